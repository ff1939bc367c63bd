// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package plan

import (
	"fmt"
	"strings"
)

// IncompleteTargetError reports that the target release does not cover
// every managed service. Fatal: the operator must pick a different
// release or redeploy the missing services first.
type IncompleteTargetError struct {
	// Missing holds the managed service ids the release never deployed
	// to, sorted.
	Missing []string
}

// Error implements the error interface.
func (e *IncompleteTargetError) Error() string {
	return fmt.Sprintf("target release does not cover managed services: %s",
		strings.Join(e.Missing, ", "))
}
