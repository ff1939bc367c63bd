// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package plan

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback/catalog"
)

func cfg(t *testing.T, serviceID, versionID string) catalog.VersionConfig {
	t.Helper()
	c, err := catalog.NewVersionConfig(serviceID, versionID, nil)
	if err != nil {
		t.Fatalf("NewVersionConfig(%s, %s): %v", serviceID, versionID, err)
	}
	return c
}

func manualCfg(t *testing.T, serviceID, versionID string, instances int64) catalog.VersionConfig {
	t.Helper()
	c, err := catalog.NewVersionConfig(serviceID, versionID, &instances)
	if err != nil {
		t.Fatalf("NewVersionConfig(%s, %s): %v", serviceID, versionID, err)
	}
	return c
}

func TestComputePlan(t *testing.T) {
	engine := NewEngine(logging.New(logging.Config{Level: logging.LevelError, Stderr: &bytes.Buffer{}}))

	t.Run("converged system yields no plans", func(t *testing.T) {
		target := []catalog.VersionConfig{cfg(t, "default", "v5"), cfg(t, "tools", "v3")}
		serving := []catalog.VersionConfig{cfg(t, "default", "v5"), cfg(t, "tools", "v3")}

		plans, err := engine.ComputePlan(target, serving, []string{"default", "tools"})
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		if len(plans) != 0 {
			t.Errorf("len(plans) = %d, want 0", len(plans))
		}
	})

	t.Run("missing services fail all-or-nothing", func(t *testing.T) {
		target := []catalog.VersionConfig{cfg(t, "default", "v5")}

		_, err := engine.ComputePlan(target, nil, []string{"backend", "default", "tools"})

		var incomplete *IncompleteTargetError
		if !errors.As(err, &incomplete) {
			t.Fatalf("err = %v, want IncompleteTargetError", err)
		}
		want := []string{"backend", "tools"}
		if len(incomplete.Missing) != len(want) {
			t.Fatalf("Missing = %v, want %v", incomplete.Missing, want)
		}
		for i := range want {
			if incomplete.Missing[i] != want[i] {
				t.Fatalf("Missing = %v, want %v", incomplete.Missing, want)
			}
		}
	})

	t.Run("plan emitted only where action is required", func(t *testing.T) {
		target := []catalog.VersionConfig{cfg(t, "default", "v5"), cfg(t, "tools", "v3")}
		serving := []catalog.VersionConfig{cfg(t, "default", "v4"), cfg(t, "tools", "v3")}

		plans, err := engine.ComputePlan(target, serving, []string{"default", "tools"})
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		if len(plans) != 1 {
			t.Fatalf("len(plans) = %d, want 1", len(plans))
		}
		if plans[0].Target.ServiceID != "default" || plans[0].Target.VersionID != "v5" {
			t.Errorf("Target = %s, want default/v5", plans[0].Target)
		}
		if len(plans[0].Serving) != 1 || plans[0].Serving[0].VersionID != "v4" {
			t.Errorf("Serving = %v, want [default/v4]", plans[0].Serving)
		}
	})

	t.Run("plan locality and no self-targeting", func(t *testing.T) {
		target := []catalog.VersionConfig{cfg(t, "default", "v5"), cfg(t, "tools", "v2")}
		serving := []catalog.VersionConfig{
			cfg(t, "default", "v3"),
			cfg(t, "default", "v4"),
			cfg(t, "tools", "v1"),
		}

		plans, err := engine.ComputePlan(target, serving, []string{"default", "tools"})
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		for _, p := range plans {
			for _, s := range p.Serving {
				if s.ServiceID != p.Target.ServiceID {
					t.Errorf("serving member %s crosses service boundary of target %s", s, p.Target)
				}
				if s.VersionKey == p.Target.VersionKey {
					t.Errorf("target %s must never be a member of its own serving set", p.Target)
				}
			}
		}
	})

	t.Run("identity comparison ignores scaling config", func(t *testing.T) {
		// Same version id but a different instance count snapshot: the
		// service is still converged.
		target := []catalog.VersionConfig{manualCfg(t, "backend", "v7", 10)}
		serving := []catalog.VersionConfig{manualCfg(t, "backend", "v7", 3)}

		plans, err := engine.ComputePlan(target, serving, []string{"backend"})
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		if len(plans) != 0 {
			t.Errorf("len(plans) = %d, want 0", len(plans))
		}
	})

	t.Run("empty serving set still gets a plan", func(t *testing.T) {
		target := []catalog.VersionConfig{cfg(t, "default", "v5")}

		plans, err := engine.ComputePlan(target, nil, []string{"default"})
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		if len(plans) != 1 || len(plans[0].Serving) != 0 {
			t.Fatalf("plans = %v, want one plan with empty serving set", plans)
		}
	})

	t.Run("output is sorted by service id", func(t *testing.T) {
		target := []catalog.VersionConfig{
			cfg(t, "tools", "v9"),
			cfg(t, "backend", "v9"),
			cfg(t, "default", "v9"),
		}
		serving := []catalog.VersionConfig{
			cfg(t, "tools", "v1"),
			cfg(t, "backend", "v1"),
			cfg(t, "default", "v1"),
		}

		plans, err := engine.ComputePlan(target, serving, []string{"tools", "backend", "default"})
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		want := []string{"backend", "default", "tools"}
		for i, p := range plans {
			if p.Target.ServiceID != want[i] {
				t.Fatalf("plan order = %v, want %v", plans, want)
			}
		}
	})
}

func TestComputePlan_DuplicateTargetAnomaly(t *testing.T) {
	var buf bytes.Buffer
	engine := NewEngine(logging.New(logging.Config{Level: logging.LevelWarn, Stderr: &buf}))

	target := []catalog.VersionConfig{
		cfg(t, "default", "v7"),
		cfg(t, "default", "v5"),
	}
	serving := []catalog.VersionConfig{cfg(t, "default", "v4")}

	plans, err := engine.ComputePlan(target, serving, []string{"default"})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	if plans[0].Target.VersionID != "v5" {
		t.Errorf("Target = %s, want the lexicographically smallest id v5", plans[0].Target)
	}
	if !strings.Contains(buf.String(), "multiple versions") {
		t.Errorf("expected an anomaly warning, got %q", buf.String())
	}
}
