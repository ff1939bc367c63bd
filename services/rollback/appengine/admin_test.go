// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package appengine

import (
	"testing"

	gae "google.golang.org/api/appengine/v1"
)

func managedSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestServingFromServices(t *testing.T) {
	t.Run("traffic split members are serving", func(t *testing.T) {
		services := []*gae.Service{
			{
				Id:    "default",
				Split: &gae.TrafficSplit{Allocations: map[string]float64{"v4": 0.7, "v5": 0.3}},
			},
		}

		sets := servingFromServices(services, managedSet("default"))
		if len(sets) != 1 {
			t.Fatalf("len(sets) = %d, want 1", len(sets))
		}
		if !sets[0].Contains("v4") || !sets[0].Contains("v5") {
			t.Errorf("serving = %v, want {v4, v5}", sets[0].Sorted())
		}
	})

	t.Run("unmanaged services are ignored", func(t *testing.T) {
		services := []*gae.Service{
			{Id: "experimental", Split: &gae.TrafficSplit{Allocations: map[string]float64{"v1": 1}}},
			{Id: "tools", Split: &gae.TrafficSplit{Allocations: map[string]float64{"v3": 1}}},
		}

		sets := servingFromServices(services, managedSet("tools"))
		if len(sets) != 1 || sets[0].ServiceID != "tools" {
			t.Fatalf("sets = %v, want only tools", sets)
		}
	})

	t.Run("service without traffic yields empty set", func(t *testing.T) {
		services := []*gae.Service{{Id: "backend"}}

		sets := servingFromServices(services, managedSet("backend"))
		if len(sets) != 1 {
			t.Fatalf("len(sets) = %d, want 1", len(sets))
		}
		if len(sets[0].VersionIDs) != 0 {
			t.Errorf("serving = %v, want empty", sets[0].Sorted())
		}
	})

	t.Run("zero allocation does not count as serving", func(t *testing.T) {
		services := []*gae.Service{
			{Id: "default", Split: &gae.TrafficSplit{Allocations: map[string]float64{"v4": 1, "v3": 0}}},
		}

		sets := servingFromServices(services, managedSet("default"))
		if sets[0].Contains("v3") {
			t.Error("version with zero allocation must not be serving")
		}
	})
}

func TestConfigsFromVersions(t *testing.T) {
	t.Run("captures manual scaling instances", func(t *testing.T) {
		versions := []*gae.Version{
			{Id: "v5", ManualScaling: &gae.ManualScaling{Instances: 8}},
			{Id: "v4"},
		}
		wanted := map[string]struct{}{"v4": {}, "v5": {}}

		configs := configsFromVersions("backend", versions, wanted)
		if len(configs) != 2 {
			t.Fatalf("len(configs) = %d, want 2", len(configs))
		}
		byID := map[string]bool{}
		for _, cfg := range configs {
			byID[cfg.VersionID] = cfg.IsManualScaling()
			if cfg.ServiceID != "backend" {
				t.Errorf("ServiceID = %s, want backend", cfg.ServiceID)
			}
		}
		if !byID["v5"] {
			t.Error("v5 must be manual scaling")
		}
		if byID["v4"] {
			t.Error("v4 must be automatic scaling")
		}
	})

	t.Run("unrequested versions are omitted", func(t *testing.T) {
		versions := []*gae.Version{{Id: "v1"}, {Id: "v2"}}

		configs := configsFromVersions("default", versions, map[string]struct{}{"v2": {}})
		if len(configs) != 1 || configs[0].VersionID != "v2" {
			t.Fatalf("configs = %v, want only v2", configs)
		}
	})

	t.Run("missing identities are silently absent", func(t *testing.T) {
		versions := []*gae.Version{{Id: "v1"}}

		configs := configsFromVersions("default", versions, map[string]struct{}{"gone": {}})
		if len(configs) != 0 {
			t.Fatalf("configs = %v, want empty", configs)
		}
	})
}

func TestPagingError(t *testing.T) {
	err := &PagingError{Call: "apps.services.list(proj)"}
	if err.Error() == "" {
		t.Fatal("empty error message")
	}
}
