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

package buildrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/log"
)

// DefaultExecutable is the build tool invoked when none is configured.
const DefaultExecutable = "mvn"

// Maven runs the mvn command line.
type Maven struct {
	// Executable is the command to run, e.g. "mvn" or "./mvnw".
	Executable string
	// POM is the path to the pom.xml, passed with -f. Its directory is
	// used as the working directory.
	POM string
	// Timeout bounds every invocation. Zero means no timeout.
	Timeout time.Duration
	// Args are passed to every invocation, e.g. "-s settings.xml".
	Args []string
}

var _ Runner = &Maven{}

// Resolve runs "mvn dependency:tree".
func (m *Maven) Resolve(ctx context.Context, scope *coordinate.Coordinate) Result {
	args := []string{"dependency:tree"}
	if scope != nil {
		args = append(args, "-Dincludes="+scope.String())
	}

	return m.run(ctx, args)
}

// Verify runs "mvn -q test".
func (m *Maven) Verify(ctx context.Context) Result {
	return m.run(ctx, []string{"-q", "test"})
}

func (m *Maven) run(ctx context.Context, goals []string) Result {
	exe := m.Executable
	if exe == "" {
		exe = DefaultExecutable
	}
	args := []string{"-B"}
	dir := ""
	if m.POM != "" {
		args = append(args, "-f", filepath.Base(m.POM))
		dir = filepath.Dir(m.POM)
	}
	args = append(args, m.Args...)
	args = append(args, goals...)

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	log.Debugf("Running %s %v in %q", exe, args, dir)
	res, err := run(ctx, exe, args, dir)
	out := res.Stdout + res.Stderr

	r := Result{
		Status:   Classify(res.ExitCode, out, err),
		ExitCode: res.ExitCode,
		Output:   out,
		Duration: res.Duration,
		Err:      err,
	}
	switch res.ExitCode {
	case ExitTimeout:
		r.Status = Error
		r.Err = fmt.Errorf("%s timed out after %s: %w", exe, m.Timeout, err)
	case ExitNotFound:
		r.Status = Error
		r.Err = fmt.Errorf("%s not found: %w", exe, err)
	}
	log.Debugf("%s %v finished in %s with exit code %d (%s)", exe, goals, r.Duration.Round(time.Millisecond), r.ExitCode, r.Status)

	return r
}

type execResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// run executes a command, capturing its output and duration. A timeout is
// reported with exit code 124 and a missing executable with 127.
func run(ctx context.Context, name string, args []string, dir string) (execResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := execResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = ExitTimeout
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = ExitNotFound
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = 1
	}

	return res, err
}
