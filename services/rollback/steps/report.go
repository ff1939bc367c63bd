// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package steps

// Mode distinguishes a dry run from a mutating run.
type Mode string

const (
	ModeDryRun  Mode = "dry-run"
	ModeExecute Mode = "execute"
)

// Status is the outcome of one step within a run.
type Status string

const (
	// StatusPlanned marks a step rendered by a dry run.
	StatusPlanned Status = "planned"

	// StatusExecuted marks a step that completed.
	StatusExecuted Status = "executed"

	// StatusFailed marks the step that halted the run.
	StatusFailed Status = "failed"

	// StatusSkipped marks steps after the halt point.
	StatusSkipped Status = "skipped"
)

// StepResult records the outcome of one step.
type StepResult struct {
	// Description is the step's Describe() text.
	Description string

	// Detail carries the DryRun() rendering in dry-run mode, empty
	// otherwise.
	Detail string

	// Status is the step outcome.
	Status Status

	// Err is non-nil only for StatusFailed.
	Err error
}

// RunReport is the structured result of one rollback invocation,
// returned to the caller instead of printed; the CLI layer formats it.
type RunReport struct {
	// RunID uniquely identifies the invocation in logs and audit
	// trails.
	RunID string

	// Mode is dry-run or execute.
	Mode Mode

	// TargetRelease is the release tag the run converges to.
	TargetRelease string

	// Converged lists managed services that needed no action, sorted.
	Converged []string

	// Steps holds per-step outcomes in execution order. Empty when the
	// whole platform was already converged.
	Steps []StepResult
}

// Failed reports whether any step halted the run.
func (r *RunReport) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// FirstError returns the error of the step that halted the run, or nil.
func (r *RunReport) FirstError() error {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return s.Err
		}
	}
	return nil
}
