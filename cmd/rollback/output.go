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

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/rollback/services/rollback/steps"
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
	styleExecuted = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	styleFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	styleSkipped  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
)

// renderReport formats a run report for the operator. The report is the
// structured result of the run; nothing below re-queries the platform.
func renderReport(report *steps.RunReport) string {
	var b strings.Builder

	switch report.Mode {
	case steps.ModeDryRun:
		b.WriteString(styleTitle.Render(fmt.Sprintf("Dry run for release %s", report.TargetRelease)))
	default:
		b.WriteString(styleTitle.Render(fmt.Sprintf("Rollback to release %s", report.TargetRelease)))
	}
	b.WriteString("\n")

	if len(report.Converged) > 0 {
		b.WriteString(styleMuted.Render(fmt.Sprintf("Already converged: %s",
			strings.Join(report.Converged, ", "))))
		b.WriteString("\n")
	}

	if len(report.Steps) == 0 {
		b.WriteString("No action required.\n")
		return b.String()
	}

	for i, step := range report.Steps {
		line := fmt.Sprintf("%2d. [%s] %s", i+1, step.Status, step.Description)
		switch step.Status {
		case steps.StatusExecuted:
			line = styleExecuted.Render(line)
		case steps.StatusFailed:
			line = styleFailed.Render(fmt.Sprintf("%s: %v", line, step.Err))
		case steps.StatusSkipped:
			line = styleSkipped.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if step.Detail != "" {
			b.WriteString(styleMuted.Render("      " + step.Detail))
			b.WriteString("\n")
		}
	}

	b.WriteString(styleMuted.Render(fmt.Sprintf("Run id: %s", report.RunID)))
	b.WriteString("\n")
	return b.String()
}
