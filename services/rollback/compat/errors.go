// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package compat

import "fmt"

// IncompatibleReleaseError reports that the schema/version
// compatibility gate failed. Fatal: it blocks every mutation of the
// run, because activating an incompatible version against live data is
// unsafe.
type IncompatibleReleaseError struct {
	// TargetTag is the release under test.
	TargetTag string

	// SchemaTag is the schema release currently deployed.
	SchemaTag string

	// Output is the tail of the test command's combined output.
	Output string

	// Err is the command failure, when one exists.
	Err error
}

// Error implements the error interface.
func (e *IncompatibleReleaseError) Error() string {
	msg := fmt.Sprintf("release %s is incompatible with schema %s", e.TargetTag, e.SchemaTag)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap returns the underlying command error.
func (e *IncompatibleReleaseError) Unwrap() error {
	return e.Err
}
