// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package plan computes per-service rollback plans from two version
// snapshots: the set a release tag says should be serving, and the set
// actually serving traffic.
//
// The computation is a pure, set-based transform. Running it against an
// already-converged platform yields an empty plan slice, so repeated
// invocations are harmless.
package plan

import (
	"sort"
	"strings"

	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback/catalog"
)

// RollbackPlan is the instruction set for one service: activate Target,
// then deactivate every member of Serving.
//
// Invariants maintained by the engine: every Serving member shares
// Target's service id, and Target is never itself a member of Serving.
// A plan is only emitted when action is required.
type RollbackPlan struct {
	// Target is the version that must reach serving state.
	Target catalog.VersionConfig

	// Serving holds the versions currently receiving traffic for the
	// service, sorted by version id. May be empty when the service has
	// no allocated traffic at all.
	Serving []catalog.VersionConfig
}

// Engine computes rollback plans. It holds no state beyond a logger for
// anomaly reporting.
type Engine struct {
	log *logging.Logger
}

// NewEngine returns an Engine. A nil logger falls back to the default
// stderr logger.
func NewEngine(log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	return &Engine{log: log}
}

// ComputePlan reconciles the target snapshot against the serving
// snapshot for every service in requiredServices and returns the plans
// for services that need action, sorted by service id.
//
// Rollback is all-or-nothing across the managed service set: if the
// grouped targets do not cover every required service, ComputePlan
// fails with IncompleteTargetError naming exactly the missing ids. A
// release that was never deployed to one managed service is not a
// valid rollback target.
//
// A service whose target version is already serving (membership is by
// version identity only; configuration fields are ignored) produces no
// plan. A release mapping to more than one version in a service is a
// recorded deployment mistake, not a fatal condition: the engine picks
// the lexicographically smallest version id and logs the anomaly.
func (e *Engine) ComputePlan(targetConfigs, servingConfigs []catalog.VersionConfig, requiredServices []string) ([]RollbackPlan, error) {
	targetsByService := catalog.GroupConfigs(targetConfigs)
	servingByService := catalog.GroupConfigs(servingConfigs)

	var missing []string
	for _, serviceID := range sortedUnique(requiredServices) {
		if len(targetsByService[serviceID]) == 0 {
			missing = append(missing, serviceID)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteTargetError{Missing: missing}
	}

	var plans []RollbackPlan
	for _, serviceID := range sortedUnique(requiredServices) {
		target := e.selectTarget(serviceID, targetsByService[serviceID])
		serving := servingByService[serviceID]

		if containsVersion(serving, target.VersionKey) {
			// Already converged for this service.
			continue
		}

		plans = append(plans, RollbackPlan{Target: target, Serving: serving})
	}
	return plans, nil
}

// selectTarget resolves the single target version for a service. The
// candidates slice is non-empty and sorted by version id, so the first
// element is the deterministic pick.
func (e *Engine) selectTarget(serviceID string, candidates []catalog.VersionConfig) catalog.VersionConfig {
	if len(candidates) > 1 {
		ids := make([]string, len(candidates))
		for i, cfg := range candidates {
			ids[i] = cfg.VersionID
		}
		e.log.Warn("release maps to multiple versions in one service; picking the smallest version id",
			"service", serviceID,
			"candidates", strings.Join(ids, ","),
			"selected", candidates[0].VersionID)
	}
	return candidates[0]
}

func containsVersion(configs []catalog.VersionConfig, key catalog.VersionKey) bool {
	for _, cfg := range configs {
		if cfg.VersionKey == key {
			return true
		}
	}
	return false
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
