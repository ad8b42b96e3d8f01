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

// Package result defines the records produced by an auto-remediation run.
package result

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Status is a state of the per-artifact remediation state machine. The
// terminal states are the possible statuses of an Outcome.
type Status string

// States of the remediation state machine.
const (
	Pending      Status = "PENDING"
	Overridden   Status = "OVERRIDDEN"
	Validating   Status = "VALIDATING"
	Excluding    Status = "EXCLUDING"
	Applied      Status = "APPLIED"
	Failed       Status = "FAILED"
	Skipped      Status = "SKIPPED"
	Unmanaged    Status = "UNMANAGED"
	Unresolvable Status = "UNRESOLVABLE"
	Error        Status = "ERROR"
)

// Terminal lists the terminal statuses in report order.
var Terminal = []Status{Applied, Failed, Skipped, Unmanaged, Unresolvable, Error}

// Stack is the application stack detected from the project.
type Stack string

// Detected stacks.
const (
	StackLiberty Stack = "LIBERTY"
	StackSpring  Stack = "SPRING"
	StackGeneric Stack = "GENERIC"
)

// Exclusion is an exclusion added to the manifest.
type Exclusion struct {
	Parent string `json:"parent"` // groupId:artifactId of the direct declaration.
	Child  string `json:"child"`  // groupId:artifactId of the excluded dependency.
}

// Outcome is the result of remediating one vulnerable artifact.
type Outcome struct {
	Coordinate       string      `json:"coordinate"`                 // groupId:artifactId of the vulnerable artifact.
	PURL             string      `json:"purl,omitempty"`             // PURL of the version that was attempted.
	Status           Status      `json:"status"`                     // terminal status.
	FromVersion      string      `json:"fromVersion,omitempty"`      // version before remediation.
	SuggestedVersion string      `json:"suggestedVersion"`           // fixed version suggested by the report.
	AttemptedVersion string      `json:"attemptedVersion,omitempty"` // version pinned, after constraints.
	Severity         string      `json:"severity,omitempty"`
	Score            float64     `json:"score,omitempty"`
	AdvisoryID       string      `json:"advisoryId,omitempty"`
	Reason           string      `json:"reason,omitempty"`      // why the terminal status was reached.
	Exclusions       []Exclusion `json:"exclusions,omitempty"`  // exclusions added for this artifact.
	Warnings         []string    `json:"warnings,omitempty"`    // non-fatal notes, e.g. constraint caps.
	Transitions      []Status    `json:"transitions"`           // states visited, in order.
	BuildOutput      string      `json:"buildOutput,omitempty"` // raw build output of a failed invocation.
}

// Build is the outcome of the final verification build.
type Build struct {
	Status   string        `json:"status"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
}

// Result is the final artifact of an auto-remediation run.
type Result struct {
	RunID       string    `json:"runId"`
	Manifest    string    `json:"manifest"` // path to the pom.xml.
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	DryRun      bool      `json:"dryRun,omitempty"`
	JavaVersion int       `json:"javaVersion"`
	Stack       Stack     `json:"stack"`
	Outcomes    []Outcome `json:"outcomes"` // one per vulnerable artifact, in report order.
	FinalBuild  *Build    `json:"finalBuild,omitempty"`
}

// Counts returns the number of outcomes per status.
func (r *Result) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}

	return counts
}

// Write writes r to w as indented JSON.
func (r *Result) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	return nil
}

// WriteFile writes r to the file at path as indented JSON.
func (r *Result) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return r.Write(f)
}
