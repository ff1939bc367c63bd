// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package steps turns rollback plans into an ordered step sequence and
// runs it in dry-run or execute mode.
//
// The sequence always starts with a single compatibility gate. Within
// one service's plan the activation step precedes every deactivation
// step, so the service never passes through a window with zero serving
// versions. Execution is fail-stop: the first failing step halts the
// sequence, nothing is compensated, and the report states exactly what
// ran and what was skipped.
package steps

import (
	"context"
	"fmt"

	"github.com/AleutianAI/rollback/services/rollback/catalog"
)

// Admin is the mutation surface of the platform gateway consumed by
// steps. Both operations fail fatally on any transport or
// platform-reported error; there are no partial-success semantics.
type Admin interface {
	// Activate moves a version into the serving state for its service,
	// restoring the configured instance count for manual-scaling
	// versions.
	Activate(ctx context.Context, cfg catalog.VersionConfig) error

	// Deactivate stops traffic and instances for one version.
	Deactivate(ctx context.Context, key catalog.VersionKey) error
}

// CompatibilityChecker runs the server/schema compatibility test for a
// target release against the schema currently deployed in the
// environment.
type CompatibilityChecker interface {
	Check(ctx context.Context, targetTag, schemaTag string) error
}

// Step is one unit of rollback work.
type Step interface {
	// Describe returns a short identifier for reports and logs.
	Describe() string

	// DryRun returns a rendering of what Execute would do. It performs
	// no side effects.
	DryRun() string

	// Execute performs the step's platform mutation or check.
	Execute(ctx context.Context) error
}

// CompatibilityGate verifies the target release against the current
// schema before any per-service step runs. It runs once per invocation
// regardless of how many services have pending plans; failure aborts
// the whole run with zero mutations performed, because activating an
// incompatible version against live data is unsafe.
type CompatibilityGate struct {
	checker   CompatibilityChecker
	targetTag string
	schemaTag string
}

// NewCompatibilityGate builds the gate for one run.
func NewCompatibilityGate(checker CompatibilityChecker, targetTag, schemaTag string) *CompatibilityGate {
	return &CompatibilityGate{checker: checker, targetTag: targetTag, schemaTag: schemaTag}
}

func (g *CompatibilityGate) Describe() string {
	return fmt.Sprintf("check compatibility of release %s with schema %s", g.targetTag, g.schemaTag)
}

func (g *CompatibilityGate) DryRun() string {
	return fmt.Sprintf("would run the server/schema compatibility test (release %s, schema %s)",
		g.targetTag, g.schemaTag)
}

func (g *CompatibilityGate) Execute(ctx context.Context) error {
	return g.checker.Check(ctx, g.targetTag, g.schemaTag)
}

// ActivateVersion moves the target version into the serving state. For
// manual-scaling versions the originally configured instance count is
// restored as part of activation; such versions do not scale back up on
// their own.
type ActivateVersion struct {
	admin  Admin
	config catalog.VersionConfig
}

// NewActivateVersion builds the activation step for one target version.
func NewActivateVersion(admin Admin, config catalog.VersionConfig) *ActivateVersion {
	return &ActivateVersion{admin: admin, config: config}
}

func (s *ActivateVersion) Describe() string {
	return fmt.Sprintf("activate %s", s.config.VersionKey)
}

func (s *ActivateVersion) DryRun() string {
	if s.config.IsManualScaling() {
		return fmt.Sprintf("would activate %s and restore manual scaling to %d instances",
			s.config.VersionKey, *s.config.ManualScalingInstances)
	}
	return fmt.Sprintf("would activate %s and migrate all traffic to it", s.config.VersionKey)
}

func (s *ActivateVersion) Execute(ctx context.Context) error {
	return s.admin.Activate(ctx, s.config)
}

// DeactivateVersion stops traffic and instances for one previously
// serving version.
type DeactivateVersion struct {
	admin Admin
	key   catalog.VersionKey
}

// NewDeactivateVersion builds the deactivation step for one version.
func NewDeactivateVersion(admin Admin, key catalog.VersionKey) *DeactivateVersion {
	return &DeactivateVersion{admin: admin, key: key}
}

func (s *DeactivateVersion) Describe() string {
	return fmt.Sprintf("deactivate %s", s.key)
}

func (s *DeactivateVersion) DryRun() string {
	return fmt.Sprintf("would stop serving %s", s.key)
}

func (s *DeactivateVersion) Execute(ctx context.Context) error {
	return s.admin.Deactivate(ctx, s.key)
}
