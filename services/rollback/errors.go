// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rollback

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/rollback/services/rollback/catalog"
)

// ServiceStateError reports that a version required by the plan (target
// or currently serving) has no resolvable configuration on the
// platform: it was deleted or never deployed. Fatal; the platform needs
// manual inspection before retrying.
type ServiceStateError struct {
	// Missing holds the unresolvable identities.
	Missing []catalog.VersionKey
}

// Error implements the error interface.
func (e *ServiceStateError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, key := range e.Missing {
		ids[i] = key.String()
	}
	return fmt.Sprintf("no resolvable configuration for required versions: %s",
		strings.Join(ids, ", "))
}
