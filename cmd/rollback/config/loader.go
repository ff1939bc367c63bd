// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults is the optional per-operator defaults file. Explicit flags
// always win over it.
type Defaults struct {
	// Environments maps an environment name to its project pair, so
	// operators do not retype projects on every invocation.
	Environments map[string]EnvDefaults `yaml:"environments"`

	// Services overrides the platform default managed service set.
	Services []string `yaml:"services"`

	// CompatCommand is the default compatibility-test command template.
	CompatCommand string `yaml:"compat_command"`
}

// EnvDefaults is the project pair of one environment.
type EnvDefaults struct {
	DevProject string `yaml:"dev_project"`
	Project    string `yaml:"project"`
}

// DefaultPath returns the operator defaults file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rollback", "rollback.yaml")
}

// LoadDefaults reads the defaults file. A missing file (or empty path)
// is not an error: it yields zero Defaults. A file that exists but
// does not parse is an error; silently ignoring a broken defaults file
// would let a typo redirect a rollback at the wrong project.
func LoadDefaults(path string) (Defaults, error) {
	var defaults Defaults
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read defaults file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return defaults, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	return defaults, nil
}

// Apply fills the empty fields of cfg from the defaults, using the
// environment-specific project pair when cfg.Env matches.
func (d Defaults) Apply(cfg *Config) {
	if env, ok := d.Environments[cfg.Env]; ok {
		if cfg.DevProject == "" {
			cfg.DevProject = env.DevProject
		}
		if cfg.Project == "" {
			cfg.Project = env.Project
		}
	}
	if len(cfg.Services) == 0 {
		cfg.Services = d.Services
	}
	if cfg.CompatCommand == "" {
		cfg.CompatCommand = d.CompatCommand
	}
}
