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

// Package autoremediation fixes vulnerable transitive Maven dependencies by
// pinning fixed versions in a pom.xml, falling back to excluding the
// vulnerable artifact from its parents, and checking each change by
// re-resolving the dependency graph with Maven.
package autoremediation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pomguard/autoremediate/autoremediation/internal/buildrunner"
	"github.com/pomguard/autoremediate/autoremediation/internal/deptree"
	"github.com/pomguard/autoremediate/autoremediation/internal/engine"
	"github.com/pomguard/autoremediate/autoremediation/internal/manifest/maven"
	"github.com/pomguard/autoremediate/autoremediation/internal/vulnreport"
	"github.com/pomguard/autoremediate/autoremediation/options"
	"github.com/pomguard/autoremediate/autoremediation/result"
	"github.com/pomguard/autoremediate/internal/mavenutil"
	"github.com/pomguard/autoremediate/log"
	"golang.org/x/sync/errgroup"
)

// ErrTreeUnavailable is returned when the dependency tree could not be
// obtained before remediation.
var ErrTreeUnavailable = errors.New("dependency tree unavailable")

// Remediate remediates the fixes of the vulnerability report in the
// manifest. It overwrites the manifest on disk, unless opts.DryRun is set,
// and returns a Result describing the outcome for every vulnerable artifact.
//
// Only unusable inputs fail the call. Failures to remediate an artifact are
// reported in the Result.
func Remediate(ctx context.Context, opts options.Options) (*result.Result, error) {
	if opts.Manifest == "" {
		return nil, errors.New("no manifest provided")
	}
	if opts.Report == "" {
		return nil, errors.New("no vulnerability report provided")
	}
	start := time.Now()
	runner := &buildrunner.Maven{
		Executable: opts.MavenExecutable,
		POM:        opts.Manifest,
		Timeout:    opts.Timeout,
		Args:       opts.MavenArgs,
	}

	return remediate(ctx, opts, runner, start)
}

func remediate(ctx context.Context, opts options.Options, runner buildrunner.Runner, start time.Time) (*result.Result, error) {
	// The report and the tree are independent inputs.
	var (
		fixes    []vulnreport.Fix
		treeText string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fixes, err = vulnreport.ParseFile(opts.Report)
		return err
	})
	g.Go(func() error {
		var err error
		treeText, err = dependencyTree(gctx, opts.TreeFile, runner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	before := deptree.Parse(treeText)
	log.Infof("Found %d vulnerable artifact(s) with fixes, %d resolved dependencies", len(fixes), len(before.Nodes()))

	if opts.MinSeverity > 0 {
		n := len(fixes)
		fixes = vulnreport.Filter(fixes, opts.MinSeverity)
		log.Infof("Dropped %d fix(es) below severity %.1f", n-len(fixes), opts.MinSeverity)
	}

	store := maven.NewStore(opts.Manifest, opts.Backup)
	state, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	java := opts.JavaVersion
	if java <= 0 {
		var ok bool
		java, ok = mavenutil.JavaVersion(state.Properties())
		if !ok {
			log.Warnf("No Java release declared in %s, assuming %d", opts.Manifest, java)
		}
	}
	pom, err := os.ReadFile(opts.Manifest)
	if err != nil {
		return nil, err
	}
	stack := DetectStack(string(pom), treeText)
	log.Infof("Java %d, %s stack", java, stack)

	e := engine.New(store, runner, before, engine.Options{
		JavaVersion:   java,
		Constraints:   opts.Constraints,
		UpgradeConfig: opts.UpgradeConfig,
		Ignore:        opts.Ignore,
		DryRun:        opts.DryRun,
	})
	res := &result.Result{
		RunID:       uuid.NewString(),
		Manifest:    opts.Manifest,
		StartTime:   start,
		DryRun:      opts.DryRun,
		JavaVersion: java,
		Stack:       stack,
		Outcomes:    e.Run(ctx, fixes),
	}

	if opts.VerifyBuild && !opts.DryRun {
		log.Infof("Verifying build")
		b := runner.Verify(ctx)
		res.FinalBuild = &result.Build{
			Status:   b.Status.String(),
			ExitCode: b.ExitCode,
			Duration: b.Duration,
		}
		if b.Status != buildrunner.OK {
			res.FinalBuild.Output = b.Output
			log.Warnf("Build verification failed with exit code %d", b.ExitCode)
		}
	}
	res.EndTime = time.Now()

	return res, nil
}

// dependencyTree reads the tree from path, or resolves it when path is empty.
func dependencyTree(ctx context.Context, path string, runner buildrunner.Runner) (string, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	res := runner.Resolve(ctx, nil)
	if res.Status != buildrunner.OK {
		if res.Err != nil {
			return "", fmt.Errorf("%w: %s with exit code %d: %w", ErrTreeUnavailable, res.Status, res.ExitCode, res.Err)
		}
		return "", fmt.Errorf("%w: %s with exit code %d", ErrTreeUnavailable, res.Status, res.ExitCode)
	}

	return res.Output, nil
}

var (
	libertyRe = regexp.MustCompile(`(?i)liberty|websphere`)
	springRe  = regexp.MustCompile(`(?i)spring`)
)

// DetectStack guesses the application stack from the pom.xml and the
// dependency tree.
func DetectStack(pom, tree string) result.Stack {
	switch {
	case libertyRe.MatchString(pom) || libertyRe.MatchString(tree):
		return result.StackLiberty
	case springRe.MatchString(pom) || springRe.MatchString(tree):
		return result.StackSpring
	default:
		return result.StackGeneric
	}
}
