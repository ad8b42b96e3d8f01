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

package runner_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pomguard/autoremediate/autoremediation/result"
	"github.com/pomguard/autoremediate/binary/runner"
)

func TestSummary(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	res := &result.Result{
		Outcomes: []result.Outcome{
			{
				Coordinate:       "org.yaml:snakeyaml",
				Status:           result.Applied,
				FromVersion:      "1.30",
				AttemptedVersion: "2.0",
			},
			{
				Coordinate:       "ch.qos.logback:logback-classic",
				Status:           result.Failed,
				FromVersion:      "1.2.3",
				AttemptedVersion: "1.2.13",
				Reason:           "override ineffective, no exclusion target",
				Warnings:         []string{"capped for Java 8"},
			},
			{
				Coordinate: "com.example:absent",
				Status:     result.Unmanaged,
				Reason:     "not present in resolved graph",
			},
		},
	}

	got := runner.Summary(res)
	for _, want := range []string{
		"ARTIFACT",
		"org.yaml:snakeyaml",
		"override ineffective, no exclusion target",
		"warning: capped for Java 8",
		"1 applied, 1 failed, 1 unmanaged",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, want it to contain %q", got, want)
		}
	}
	lines := strings.Split(got, "\n")
	// Columns are aligned: the status column starts at the same offset.
	if a, b := strings.Index(lines[1], "APPLIED"), strings.Index(lines[2], "FAILED"); a != b {
		t.Errorf("Summary() status columns at %d and %d, want aligned:\n%s", a, b, got)
	}
}

func TestSummary_Empty(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	if got := runner.Summary(&result.Result{}); !strings.Contains(got, "nothing to remediate") {
		t.Errorf("Summary() = %q, want it to contain %q", got, "nothing to remediate")
	}
}
