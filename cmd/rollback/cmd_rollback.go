// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/rollback/cmd/rollback/config"
	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback"
	"github.com/AleutianAI/rollback/services/rollback/appengine"
	"github.com/AleutianAI/rollback/services/rollback/compat"
	"github.com/AleutianAI/rollback/services/rollback/gcs"
)

func runRollback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "rollback",
		LogDir:  "~/.rollback/logs",
	})
	defer logger.Close()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	releases, err := gcs.NewClient(ctx, cfg.DevProject, logger)
	if err != nil {
		return err
	}
	defer releases.Close()

	admin, err := appengine.NewAdmin(ctx, appengine.Config{
		Project:  cfg.Project,
		Services: cfg.Services,
	}, logger)
	if err != nil {
		return err
	}

	checker := compat.NewCommandChecker(expandCompatCommand(cfg), logger)

	orchestrator := rollback.New(releases, admin, checker, logger)
	report, runErr := orchestrator.Run(ctx, rollback.Options{
		Env:           cfg.Env,
		TargetRelease: cfg.TargetRelease,
		Services:      cfg.Services,
		DryRun:        cfg.DryRun,
	})
	if report != nil {
		fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
	}
	return runErr
}

// resolveConfig merges flags over the operator defaults file and
// validates the result.
func resolveConfig() (config.Config, error) {
	defaults, err := config.LoadDefaults(config.DefaultPath())
	if err != nil {
		return config.Config{}, err
	}

	cfg := config.Config{
		DevProject:    flagDevProject,
		Project:       flagProject,
		Env:           flagEnv,
		TargetRelease: flagTargetRelease,
		CompatCommand: flagCompatCommand,
		DryRun:        flagDryRun,
	}
	defaults.Apply(&cfg)
	if len(cfg.Services) == 0 {
		cfg.Services = appengine.DefaultServices
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// expandCompatCommand substitutes the dev-project placeholder; the
// release and schema tags substitute at check time, once the schema
// tag has been read.
func expandCompatCommand(cfg config.Config) string {
	return strings.ReplaceAll(cfg.CompatCommand, "{dev_project}", cfg.DevProject)
}
