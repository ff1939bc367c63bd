// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config holds the closed configuration surface of the
// rollback CLI: exactly the fields one invocation needs, validated
// before any gateway is constructed.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config enumerates the required invocation parameters. There is no
// dynamic configuration beyond these fields.
type Config struct {
	// DevProject is the GCP project hosting the deployment
	// infrastructure (record store bucket, artifact repo).
	DevProject string `yaml:"dev_project" validate:"required"`

	// Project is the GCP project where the application serves.
	Project string `yaml:"project" validate:"required"`

	// Env names the deployment environment.
	Env string `yaml:"env" validate:"required,oneof=production sandbox crash alpha"`

	// TargetRelease is the release tag to converge to.
	TargetRelease string `yaml:"target_release" validate:"required"`

	// Services is the managed service set; empty means the platform
	// default set.
	Services []string `yaml:"services"`

	// CompatCommand is the compatibility-test command template. The
	// placeholders {target_release}, {schema_tag} and {dev_project}
	// are substituted before execution.
	CompatCommand string `yaml:"compat_command"`

	// DryRun renders the step sequence without mutating anything.
	DryRun bool `yaml:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks presence and the environment enumeration, returning
// an operator-readable message for the first violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		switch first.Field() {
		case "DevProject":
			return fmt.Errorf("--dev_project is required (or set dev_project for env %q in the defaults file)", c.Env)
		case "Project":
			return fmt.Errorf("--project is required (or set project for env %q in the defaults file)", c.Env)
		case "Env":
			return fmt.Errorf("--env must be one of production, sandbox, crash, alpha; got %q", c.Env)
		case "TargetRelease":
			return fmt.Errorf("--target_release is required")
		}
	}
	return err
}
