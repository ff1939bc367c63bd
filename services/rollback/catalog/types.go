// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog defines the value types shared by the rollback engine:
// version identities, rollback-relevant version configuration, and
// per-service version groupings.
//
// Everything in this package is an immutable snapshot. Instances are
// constructed once per rollback invocation from gateway reads and are
// never mutated afterwards; all transforms return fresh values.
package catalog

import (
	"fmt"
	"sort"
)

// VersionKey identifies one deployed unit: a version within a service.
//
// Equality and map-key hashing are by the (ServiceID, VersionID) pair
// only. Types that carry additional fields but represent the same
// deployed unit (see VersionConfig) compare through their embedded key.
type VersionKey struct {
	ServiceID string
	VersionID string
}

// String renders the key in the service/version form used in logs,
// step descriptions, and error messages.
func (k VersionKey) String() string {
	return fmt.Sprintf("%s/%s", k.ServiceID, k.VersionID)
}

// VersionConfig is a VersionKey plus the rollback-relevant configuration
// read from the platform.
//
// ManualScalingInstances is non-nil if and only if the version is
// configured for manual (fixed-instance) scaling; nil means automatic or
// basic scaling. Manual-scaling versions do not scale back up on their
// own, so activation must restore this count.
type VersionConfig struct {
	VersionKey

	ManualScalingInstances *int64
}

// NewVersionConfig builds a VersionConfig from a raw tuple.
//
// A tuple missing either id is malformed and rejected with
// MalformedRecordError; there are no other construction failures.
func NewVersionConfig(serviceID, versionID string, manualScalingInstances *int64) (VersionConfig, error) {
	if serviceID == "" || versionID == "" {
		return VersionConfig{}, &MalformedRecordError{
			Record: fmt.Sprintf("%s,%s", serviceID, versionID),
			Reason: "missing service id or version id",
		}
	}
	return VersionConfig{
		VersionKey:             VersionKey{ServiceID: serviceID, VersionID: versionID},
		ManualScalingInstances: manualScalingInstances,
	}, nil
}

// IsManualScaling reports whether the version is pinned to a fixed
// instance count.
func (c VersionConfig) IsManualScaling() bool {
	return c.ManualScalingInstances != nil
}

// ServiceVersionSet groups version ids belonging to one service. It is
// used both for "versions recorded for a release tag" and for "versions
// currently serving traffic"; in either role it has set semantics, so
// order is irrelevant and duplicates collapse.
type ServiceVersionSet struct {
	ServiceID  string
	VersionIDs map[string]struct{}
}

// NewServiceVersionSet builds a set for one service. Duplicate version
// ids collapse.
func NewServiceVersionSet(serviceID string, versionIDs ...string) ServiceVersionSet {
	set := ServiceVersionSet{
		ServiceID:  serviceID,
		VersionIDs: make(map[string]struct{}, len(versionIDs)),
	}
	for _, id := range versionIDs {
		set.VersionIDs[id] = struct{}{}
	}
	return set
}

// Contains reports membership of a version id.
func (s ServiceVersionSet) Contains(versionID string) bool {
	_, ok := s.VersionIDs[versionID]
	return ok
}

// Sorted returns the member version ids in lexicographic order. Useful
// wherever deterministic iteration is required (tie-breaks, rendering).
func (s ServiceVersionSet) Sorted() []string {
	ids := make([]string, 0, len(s.VersionIDs))
	for id := range s.VersionIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Keys flattens a collection of per-service sets into individual
// version keys, sorted by service id then version id.
func Keys(sets []ServiceVersionSet) []VersionKey {
	var keys []VersionKey
	for _, set := range sets {
		for _, id := range set.Sorted() {
			keys = append(keys, VersionKey{ServiceID: set.ServiceID, VersionID: id})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ServiceID != keys[j].ServiceID {
			return keys[i].ServiceID < keys[j].ServiceID
		}
		return keys[i].VersionID < keys[j].VersionID
	})
	return keys
}

// UnionKeys merges key collections, collapsing duplicates. The result is
// sorted like Keys.
func UnionKeys(collections ...[]VersionKey) []VersionKey {
	seen := make(map[VersionKey]struct{})
	var keys []VersionKey
	for _, collection := range collections {
		for _, key := range collection {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ServiceID != keys[j].ServiceID {
			return keys[i].ServiceID < keys[j].ServiceID
		}
		return keys[i].VersionID < keys[j].VersionID
	})
	return keys
}

// GroupConfigs groups version configs by service id. The per-service
// slices are sorted by version id so callers iterate deterministically.
func GroupConfigs(configs []VersionConfig) map[string][]VersionConfig {
	grouped := make(map[string][]VersionConfig)
	for _, cfg := range configs {
		grouped[cfg.ServiceID] = append(grouped[cfg.ServiceID], cfg)
	}
	for _, cfgs := range grouped {
		sort.Slice(cfgs, func(i, j int) bool { return cfgs[i].VersionID < cfgs[j].VersionID })
	}
	return grouped
}
