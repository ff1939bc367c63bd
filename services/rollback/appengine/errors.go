// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package appengine

import "fmt"

// PagingError reports an unexpected partial page from a list call.
//
// List calls in this package do not handle pagination; the requested
// page size is meant to exceed the platform's maximum object count. A
// continuation token therefore means the page size is misconfigured,
// which is fatal and not retried.
type PagingError struct {
	// Call names the list call that paginated.
	Call string
}

// Error implements the error interface.
func (e *PagingError) Error() string {
	return fmt.Sprintf("received a paged response unexpectedly from %s; the configured page size is too small", e.Call)
}
