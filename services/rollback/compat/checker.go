// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package compat runs the server/schema compatibility test that gates
// every mutating rollback run.
//
// The test itself is an external command (the integration test suite of
// the deployment pipeline); this package substitutes the release and
// schema tags into a command template, runs it, and maps a nonzero exit
// to IncompatibleReleaseError.
package compat

import (
	"context"
	"os/exec"
	"strings"

	"github.com/AleutianAI/rollback/pkg/logging"
)

// Placeholders substituted into the command template.
const (
	targetPlaceholder = "{target_release}"
	schemaPlaceholder = "{schema_tag}"
)

// CommandChecker runs the compatibility test as an external command.
type CommandChecker struct {
	argv []string
	log  *logging.Logger
}

// NewCommandChecker parses a whitespace-separated command template.
// Occurrences of {target_release} and {schema_tag} in any argument are
// replaced at check time.
func NewCommandChecker(template string, log *logging.Logger) *CommandChecker {
	if log == nil {
		log = logging.Default()
	}
	return &CommandChecker{argv: strings.Fields(template), log: log}
}

// Check runs the compatibility test for the target release against the
// given schema tag. A nonzero exit fails with IncompatibleReleaseError;
// an empty command template is treated the same way, because a run that
// cannot verify compatibility must not mutate.
func (c *CommandChecker) Check(ctx context.Context, targetTag, schemaTag string) error {
	if len(c.argv) == 0 {
		return &IncompatibleReleaseError{
			TargetTag: targetTag,
			SchemaTag: schemaTag,
			Output:    "no compatibility test command configured",
		}
	}

	argv := make([]string, len(c.argv))
	for i, arg := range c.argv {
		arg = strings.ReplaceAll(arg, targetPlaceholder, targetTag)
		arg = strings.ReplaceAll(arg, schemaPlaceholder, schemaTag)
		argv[i] = arg
	}

	c.log.Info("running compatibility test", "command", strings.Join(argv, " "))
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &IncompatibleReleaseError{
			TargetTag: targetTag,
			SchemaTag: schemaTag,
			Output:    tail(string(output), 2000),
			Err:       err,
		}
	}
	return nil
}

// tail keeps the last n bytes of command output; failures usually sit
// at the end.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
