// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"sort"
	"strings"
)

// versionMapFields is the exact field count of a version-map record:
// releaseTag,serviceId,versionId. Fields never contain commas, so a
// plain split is sufficient and any other count is a parse error.
const versionMapFields = 3

// ParseVersionMap filters the deployment record store for one release
// tag and groups the matching records by service.
//
// Each line of content is a `releaseTag,serviceId,versionId` triple.
// Records are append-only and may repeat; duplicates collapse into the
// per-service sets. Blank lines (including the trailing newline) are
// ignored. A line with the wrong field count or an empty field fails
// with MalformedRecordError.
//
// The returned sets are sorted by service id.
func ParseVersionMap(content, releaseTag string) ([]ServiceVersionSet, error) {
	grouped := make(map[string]map[string]struct{})

	for i, line := range strings.Split(content, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != versionMapFields {
			return nil, &MalformedRecordError{
				Line:   i + 1,
				Record: line,
				Reason: "expected releaseTag,serviceId,versionId",
			}
		}
		tag, serviceID, versionID := fields[0], fields[1], fields[2]
		if tag == "" || serviceID == "" || versionID == "" {
			return nil, &MalformedRecordError{
				Line:   i + 1,
				Record: line,
				Reason: "empty field",
			}
		}
		if tag != releaseTag {
			continue
		}
		if grouped[serviceID] == nil {
			grouped[serviceID] = make(map[string]struct{})
		}
		grouped[serviceID][versionID] = struct{}{}
	}

	sets := make([]ServiceVersionSet, 0, len(grouped))
	for serviceID, versionIDs := range grouped {
		sets = append(sets, ServiceVersionSet{ServiceID: serviceID, VersionIDs: versionIDs})
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].ServiceID < sets[j].ServiceID })
	return sets, nil
}

// ParseSchemaTag extracts the single release tag recorded in a schema
// tag object. The object must contain exactly one non-empty line;
// anything else indicates a corrupted deployment record.
func ParseSchemaTag(content string) (string, error) {
	var tag string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if tag != "" {
			return "", &MalformedRecordError{
				Record: line,
				Reason: "schema tag object has more than one record",
			}
		}
		tag = line
	}
	if tag == "" {
		return "", &MalformedRecordError{
			Record: "",
			Reason: "schema tag object is empty",
		}
	}
	return tag, nil
}
