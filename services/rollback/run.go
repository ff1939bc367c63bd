// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rollback orchestrates one rollback invocation: it gathers a
// consistent snapshot from the release catalog and the platform admin
// gateway, reconciles it into per-service plans, and runs (or renders)
// the resulting step sequence.
//
// Precondition, operational rather than engineered: no two rollback
// invocations run concurrently against the same project. The tool
// holds no lock over the platform's serving-version assignment.
package rollback

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback/catalog"
	"github.com/AleutianAI/rollback/services/rollback/plan"
	"github.com/AleutianAI/rollback/services/rollback/steps"
)

// ReleaseCatalog resolves release tags against the deployment record
// store.
type ReleaseCatalog interface {
	ResolveVersions(ctx context.Context, env, releaseTag string) ([]catalog.ServiceVersionSet, error)
	SchemaTag(ctx context.Context, env string) (string, error)
}

// PlatformAdmin is the full platform gateway: the read surface used to
// build the snapshot plus the mutation surface consumed by steps.
type PlatformAdmin interface {
	ListServingVersions(ctx context.Context) ([]catalog.ServiceVersionSet, error)
	GetVersionConfigs(ctx context.Context, requested []catalog.VersionKey) ([]catalog.VersionConfig, error)
	steps.Admin
}

// Options parameterizes one invocation.
type Options struct {
	// Env is the deployment environment, e.g. sandbox.
	Env string

	// TargetRelease is the release tag to converge to.
	TargetRelease string

	// Services is the managed service set the rollback must cover.
	Services []string

	// DryRun renders the step sequence without mutating anything.
	DryRun bool
}

// Orchestrator wires the gateways to the engine and executor.
type Orchestrator struct {
	releases ReleaseCatalog
	admin    PlatformAdmin
	checker  steps.CompatibilityChecker
	log      *logging.Logger
}

// New builds an Orchestrator. A nil logger falls back to the default
// stderr logger.
func New(releases ReleaseCatalog, admin PlatformAdmin, checker steps.CompatibilityChecker, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.Default()
	}
	return &Orchestrator{releases: releases, admin: admin, checker: checker, log: log}
}

// Run performs one rollback invocation and returns its report.
//
// The three independent reads (target version set, schema tag, serving
// version set) are issued concurrently; all reads complete before
// reconciliation, so the engine sees a single consistent snapshot and
// never re-queries mid-computation. The returned error is non-nil
// whenever the run did not fully converge; the report is still
// populated for everything that happened before the failure.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*steps.RunReport, error) {
	var (
		targetSets  []catalog.ServiceVersionSet
		servingSets []catalog.ServiceVersionSet
		schemaTag   string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		targetSets, err = o.releases.ResolveVersions(groupCtx, opts.Env, opts.TargetRelease)
		return err
	})
	group.Go(func() error {
		var err error
		schemaTag, err = o.releases.SchemaTag(groupCtx, opts.Env)
		return err
	})
	group.Go(func() error {
		var err error
		servingSets, err = o.admin.ListServingVersions(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	targetKeys := catalog.Keys(targetSets)
	servingKeys := catalog.Keys(servingSets)
	configs, err := o.admin.GetVersionConfigs(ctx, catalog.UnionKeys(targetKeys, servingKeys))
	if err != nil {
		return nil, err
	}

	targetConfigs, servingConfigs, err := resolveConfigs(configs, targetKeys, servingKeys)
	if err != nil {
		return nil, err
	}

	engine := plan.NewEngine(o.log)
	plans, err := engine.ComputePlan(targetConfigs, servingConfigs, opts.Services)
	if err != nil {
		return nil, err
	}
	o.log.Info("computed rollback plan",
		"target_release", opts.TargetRelease,
		"services_pending", len(plans),
		"services_converged", len(opts.Services)-len(plans))

	executor := steps.NewExecutor(o.admin, o.checker, o.log)
	sequence := executor.Build(opts.TargetRelease, schemaTag, plans)

	var report *steps.RunReport
	if opts.DryRun {
		report = executor.DryRun(sequence)
	} else {
		report = executor.Execute(ctx, sequence)
	}
	report.TargetRelease = opts.TargetRelease
	report.Converged = convergedServices(opts.Services, plans)

	if report.Failed() {
		return report, report.FirstError()
	}
	return report, nil
}

// resolveConfigs splits the fetched configs back into target and
// serving snapshots. Every required identity must have resolved to a
// configuration; versions deleted from the platform (or never
// deployed) fail with ServiceStateError.
func resolveConfigs(configs []catalog.VersionConfig, targetKeys, servingKeys []catalog.VersionKey) (target, serving []catalog.VersionConfig, err error) {
	byKey := make(map[catalog.VersionKey]catalog.VersionConfig, len(configs))
	for _, cfg := range configs {
		byKey[cfg.VersionKey] = cfg
	}

	var missing []catalog.VersionKey
	for _, key := range targetKeys {
		cfg, ok := byKey[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		target = append(target, cfg)
	}
	for _, key := range servingKeys {
		cfg, ok := byKey[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		serving = append(serving, cfg)
	}
	if len(missing) > 0 {
		return nil, nil, &ServiceStateError{Missing: missing}
	}
	return target, serving, nil
}

func convergedServices(required []string, plans []plan.RollbackPlan) []string {
	pending := make(map[string]struct{}, len(plans))
	for _, p := range plans {
		pending[p.Target.ServiceID] = struct{}{}
	}
	var converged []string
	seen := make(map[string]struct{}, len(required))
	for _, serviceID := range required {
		if _, ok := pending[serviceID]; ok {
			continue
		}
		if _, ok := seen[serviceID]; ok {
			continue
		}
		seen[serviceID] = struct{}{}
		converged = append(converged, serviceID)
	}
	sort.Strings(converged)
	return converged
}
