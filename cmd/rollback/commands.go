// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	flagDevProject    string
	flagProject       string
	flagEnv           string
	flagTargetRelease string
	flagDryRun        bool
	flagCompatCommand string
	flagVerbose       bool

	rootCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Rolls back the application servers in one environment to a release tag",
		Long: `rollback converges the versions serving an App Engine environment to the
versions recorded for a release tag: it resolves the target set from the
deployment records, compares it to what is serving traffic, and activates
the target version before deactivating the old ones, per service. The
server/schema compatibility test gates every mutating run.

Run with --dry_run first to review the step sequence.`,
		RunE:          runRollback, // Defined in cmd_rollback.go
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagDevProject, "dev_project", "d", "", "GCP project with the deployment infrastructure")
	flags.StringVarP(&flagProject, "project", "p", "", "GCP project where the application servers are deployed")
	flags.StringVarP(&flagEnv, "env", "e", "", "environment name (production|sandbox|crash|alpha)")
	flags.StringVarP(&flagTargetRelease, "target_release", "t", "", "release tag to roll back (or forward) to")
	flags.BoolVar(&flagDryRun, "dry_run", false, "print the step sequence without mutating the platform")
	flags.StringVar(&flagCompatCommand, "compat_command", "", "override the compatibility-test command template")
	flags.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	// env and target_release have no defaults-file fallback; projects
	// are re-validated after the defaults merge.
	cobra.CheckErr(rootCmd.MarkFlagRequired("env"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("target_release"))
}
