// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import "fmt"

// MalformedRecordError reports a structurally invalid catalog or config
// record. It is fatal and surfaced immediately; the tool never retries
// or repairs records.
type MalformedRecordError struct {
	// Line is the 1-based line number in the source object, when the
	// record came from a file. Zero when constructed from a raw tuple.
	Line int

	// Record is the offending record text.
	Record string

	// Reason describes the structural violation.
	Reason string
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d (%q): %s", e.Line, e.Record, e.Reason)
	}
	return fmt.Sprintf("malformed record %q: %s", e.Record, e.Reason)
}
