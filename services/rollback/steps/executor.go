// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package steps

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/AleutianAI/rollback/pkg/logging"
	"github.com/AleutianAI/rollback/services/rollback/plan"
)

// Executor expands rollback plans into a step sequence and runs it.
type Executor struct {
	admin   Admin
	checker CompatibilityChecker
	log     *logging.Logger
}

// NewExecutor wires the executor to its gateways. A nil logger falls
// back to the default stderr logger.
func NewExecutor(admin Admin, checker CompatibilityChecker, log *logging.Logger) *Executor {
	if log == nil {
		log = logging.Default()
	}
	return &Executor{admin: admin, checker: checker, log: log}
}

// Build expands plans into the ordered step sequence.
//
// The compatibility gate comes first and exactly once. Plans expand in
// service-id order; within one plan the activation precedes every
// deactivation, and deactivations follow version-id order. An empty
// plan slice yields no steps at all: a converged platform needs neither
// mutations nor the gate.
func (e *Executor) Build(targetTag, schemaTag string, plans []plan.RollbackPlan) []Step {
	if len(plans) == 0 {
		return nil
	}

	ordered := make([]plan.RollbackPlan, len(plans))
	copy(ordered, plans)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Target.ServiceID < ordered[j].Target.ServiceID
	})

	steps := []Step{NewCompatibilityGate(e.checker, targetTag, schemaTag)}
	for _, p := range ordered {
		steps = append(steps, NewActivateVersion(e.admin, p.Target))
		for _, serving := range p.Serving {
			steps = append(steps, NewDeactivateVersion(e.admin, serving.VersionKey))
		}
	}
	return steps
}

// Execute runs the sequence in order, halting at the first failure.
//
// Completed steps are reported as executed, the failing step as failed
// with its error, and everything after the halt point as skipped. No
// compensation is attempted; the operator inspects the report and
// resumes manually. Context cancellation surfaces as the failure of the
// step it interrupted.
func (e *Executor) Execute(ctx context.Context, steps []Step) *RunReport {
	report := &RunReport{RunID: uuid.NewString(), Mode: ModeExecute}
	log := e.log.With("run_id", report.RunID)

	halted := false
	for _, step := range steps {
		if halted {
			report.Steps = append(report.Steps, StepResult{
				Description: step.Describe(),
				Status:      StatusSkipped,
			})
			continue
		}

		log.Info("executing step", "step", step.Describe())
		if err := step.Execute(ctx); err != nil {
			log.Error("step failed; halting the remaining sequence",
				"step", step.Describe(), "error", err)
			report.Steps = append(report.Steps, StepResult{
				Description: step.Describe(),
				Status:      StatusFailed,
				Err:         err,
			})
			halted = true
			continue
		}
		report.Steps = append(report.Steps, StepResult{
			Description: step.Describe(),
			Status:      StatusExecuted,
		})
	}
	return report
}

// DryRun renders the sequence without side effects.
func (e *Executor) DryRun(steps []Step) *RunReport {
	report := &RunReport{RunID: uuid.NewString(), Mode: ModeDryRun}
	for _, step := range steps {
		report.Steps = append(report.Steps, StepResult{
			Description: step.Describe(),
			Detail:      step.DryRun(),
			Status:      StatusPlanned,
		})
	}
	return report
}
