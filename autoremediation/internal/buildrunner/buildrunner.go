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

// Package buildrunner invokes the external build tool that resolves the
// dependency graph, and classifies the outcome of each invocation.
package buildrunner

import (
	"context"
	"strings"
	"time"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

// Status classifies a build tool invocation.
type Status int

const (
	// OK means the tool exited successfully.
	OK Status = iota
	// Unresolvable means the tool could not find an artifact in any
	// configured repository.
	Unresolvable
	// Error is any other failure, including timeouts.
	Error
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Unresolvable:
		return "UNRESOLVABLE"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Exit codes reported when the process did not exit on its own.
const (
	ExitTimeout  = 124
	ExitNotFound = 127
)

// Result is the outcome of one invocation.
type Result struct {
	Status   Status
	ExitCode int
	// Output is the combined stdout and stderr of the process.
	Output   string
	Duration time.Duration
	Err      error
}

// Runner resolves the project's dependency graph.
type Runner interface {
	// Resolve prints the dependency tree, restricted to paths that lead to
	// scope when it is not nil.
	Resolve(ctx context.Context, scope *coordinate.Coordinate) Result
	// Verify builds and tests the project.
	Verify(ctx context.Context) Result
}

// artifactNotFound are the messages Maven prints when an artifact does not
// exist in any configured repository.
var artifactNotFound = []string{
	"Could not find artifact",
	"Failure to find",
	"was not found in",
}

// Classify returns the Status of an invocation. Artifact-not-found messages
// make it Unresolvable whatever the exit code.
func Classify(exitCode int, output string, err error) Status {
	for _, msg := range artifactNotFound {
		if strings.Contains(output, msg) {
			return Unresolvable
		}
	}
	if err != nil || exitCode != 0 {
		return Error
	}

	return OK
}
