// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package runner provides the main function for running auto-remediation
// with the autoremediate binary.
package runner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pomguard/autoremediate/autoremediation"
	"github.com/pomguard/autoremediate/autoremediation/result"
	"github.com/pomguard/autoremediate/binary/cli"
	"github.com/pomguard/autoremediate/log"
)

// RunRemediation executes auto-remediation with the given CLI flags
// and returns the exit code passed to os.Exit() in the main binary.
func RunRemediation(ctx context.Context, flags *cli.Flags) int {
	if flags.Verbose {
		log.SetLogger(log.NewDefaultLogger(os.Stderr, true))
	}

	opts, err := flags.GetOptions()
	if err != nil {
		log.Errorf("Failed to read options: %v", err)
		return 1
	}
	log.Infof("Remediating %s with report %s", opts.Manifest, opts.Report)
	if opts.DryRun {
		log.Infof("Dry run: the manifest will not be modified")
	}

	res, err := autoremediation.Remediate(ctx, opts)
	if err != nil {
		log.Errorf("Remediation failed: %v", err)
		return 1
	}
	fmt.Println(Summary(res))

	if err := flags.WriteResult(res); err != nil {
		log.Errorf("Error writing remediation result: %v", err)
		return 1
	}

	if res.FinalBuild != nil && res.FinalBuild.Status != "OK" {
		log.Errorf("Build verification failed with exit code %d", res.FinalBuild.ExitCode)
		return 1
	}

	return 0
}

var (
	colorApplied = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}  // Green
	colorFailed  = lipgloss.AdaptiveColor{Light: "160", Dark: "196"} // Red
	colorSkipped = lipgloss.AdaptiveColor{Light: "250", Dark: "238"} // Grey
	colorWarning = lipgloss.AdaptiveColor{Light: "166", Dark: "214"} // Orange

	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

func statusStyle(s result.Status) lipgloss.Style {
	style := cellStyle
	switch s {
	case result.Applied:
		return style.Foreground(colorApplied)
	case result.Failed, result.Error, result.Unresolvable:
		return style.Foreground(colorFailed)
	case result.Skipped, result.Unmanaged:
		return style.Foreground(colorSkipped)
	default:
		return style
	}
}

// Summary renders a table of the outcomes followed by the totals per status.
func Summary(res *result.Result) string {
	rows := [][]string{{"ARTIFACT", "STATUS", "FROM", "TO", "REASON"}}
	for _, o := range res.Outcomes {
		rows = append(rows, []string{o.Coordinate, string(o.Status), o.FromVersion, o.AttemptedVersion, o.Reason})
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := cellStyle
			switch {
			case r == 0:
				style = headerStyle.PaddingRight(2)
			case i == 1:
				style = statusStyle(result.Status(cell))
			}
			if i < len(row)-1 {
				style = style.Width(widths[i] + 2)
			}
			cells[i] = style.Render(cell)
		}
		sb.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		sb.WriteString("\n")
	}

	for _, o := range res.Outcomes {
		for _, w := range o.Warnings {
			sb.WriteString(lipgloss.NewStyle().Foreground(colorWarning).Render("warning: " + w))
			sb.WriteString("\n")
		}
	}

	counts := res.Counts()
	var totals []string
	for _, s := range result.Terminal {
		if n := counts[s]; n > 0 {
			totals = append(totals, fmt.Sprintf("%d %s", n, strings.ToLower(string(s))))
		}
	}
	if len(totals) == 0 {
		totals = append(totals, "nothing to remediate")
	}
	sb.WriteString(headerStyle.Render(strings.Join(totals, ", ")))

	return sb.String()
}
