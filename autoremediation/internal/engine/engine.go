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

// Package engine drives the per-artifact remediation state machine: pin the
// fixed version, re-resolve, and fall back to excluding the artifact from its
// parents when the pin alone does not take effect.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pomguard/autoremediate/autoremediation/constraint"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/buildrunner"
	"github.com/pomguard/autoremediate/autoremediation/internal/deptree"
	"github.com/pomguard/autoremediate/autoremediation/internal/manifest"
	"github.com/pomguard/autoremediate/autoremediation/internal/vulnreport"
	"github.com/pomguard/autoremediate/autoremediation/result"
	"github.com/pomguard/autoremediate/autoremediation/upgrade"
	"github.com/pomguard/autoremediate/log"
	"github.com/pomguard/autoremediate/purl"
	"github.com/pomguard/autoremediate/semantic"
)

// Reasons recorded on outcomes.
const (
	ReasonNotInGraph     = "not present in resolved graph"
	ReasonAlreadyManaged = "already managed in manifest"
	ReasonIgnored        = "ignored by configuration"
	ReasonNoExclusion    = "override ineffective, no exclusion target"
)

// Options configure an Engine.
type Options struct {
	// JavaVersion is the project's Java release, used by Constraints.
	JavaVersion int
	// Constraints may cap the version pinned for an artifact.
	Constraints constraint.Rules
	// UpgradeConfig limits how far an artifact may be upgraded.
	UpgradeConfig upgrade.Config
	// Ignore lists artifacts that are never remediated.
	Ignore []coordinate.Coordinate
	// DryRun reports what would be pinned without writing or building.
	DryRun bool
}

// Engine remediates vulnerable artifacts one at a time against a single
// manifest. The dependency tree and its parent map are taken once, before
// any mutation, and never recomputed.
type Engine struct {
	store  manifest.Store
	runner buildrunner.Runner
	before *deptree.Tree
	opts   Options
}

// New returns an Engine. before is the dependency tree resolved before any
// mutation.
func New(store manifest.Store, runner buildrunner.Runner, before *deptree.Tree, opts Options) *Engine {
	return &Engine{
		store:  store,
		runner: runner,
		before: before,
		opts:   opts,
	}
}

// Run remediates the fixes sequentially in the given order. Later fixes see
// the manifest as left by earlier ones. Per-fix failures are reported in the
// outcomes; Run itself only stops early if ctx is cancelled, in which case
// the remaining fixes are reported as ERROR.
func (e *Engine) Run(ctx context.Context, fixes []vulnreport.Fix) []result.Outcome {
	outcomes := make([]result.Outcome, 0, len(fixes))
	for _, fix := range fixes {
		if err := ctx.Err(); err != nil {
			a := newAttempt(fix)
			a.finish(result.Error, "run cancelled: %v", err)
			outcomes = append(outcomes, a.outcome)
			continue
		}
		o := e.Remediate(ctx, fix)
		log.Infof("%s: %s %s", o.Coordinate, o.Status, o.Reason)
		outcomes = append(outcomes, o)
	}

	return outcomes
}

// Remediate drives one fix to a terminal state.
func (e *Engine) Remediate(ctx context.Context, fix vulnreport.Fix) result.Outcome {
	a := newAttempt(fix)
	e.remediate(ctx, a)

	return a.outcome
}

func (e *Engine) remediate(ctx context.Context, a *attempt) {
	c := a.fix.Coordinate
	if slices.Contains(e.opts.Ignore, c) {
		a.finish(result.Skipped, ReasonIgnored)
		return
	}
	if !e.before.Contains(c) {
		a.finish(result.Unmanaged, ReasonNotInGraph)
		return
	}

	from := a.fix.CurrentVersion
	if from == "" {
		if versions := e.before.Versions(c); len(versions) > 0 {
			from = versions[0]
		}
	}
	a.outcome.FromVersion = from

	target, warning := e.opts.Constraints.Apply(c, a.fix.FixedVersion, e.opts.JavaVersion)
	a.target(target)
	if warning != "" {
		a.warn(warning)
		if from != "" && !semantic.IsGreater(target, from) {
			a.finish(result.Skipped, "constrained version %s is not greater than current version %s", target, from)
			return
		}
	}
	if from != "" {
		if ok, _ := e.opts.UpgradeConfig.Allows(c, from, target); !ok {
			a.finish(result.Skipped, "upgrade from %s to %s exceeds allowed upgrade level %s", from, target, e.opts.UpgradeConfig.Get(c))
			return
		}
	}

	// The file may have been touched since the previous fix.
	state, err := e.store.Load(ctx)
	if err != nil {
		a.finish(result.Error, "failed to load manifest: %v", err)
		return
	}
	if e.opts.DryRun {
		if state.IsManaged(c) {
			a.finish(result.Skipped, ReasonAlreadyManaged)
		} else {
			a.finish(result.Skipped, "dry run: would pin %s", target)
		}
		return
	}
	if !state.ApplyOverride(c, target) {
		a.finish(result.Skipped, ReasonAlreadyManaged)
		return
	}
	a.transition(result.Overridden)
	if err := e.store.Persist(ctx, state); err != nil {
		a.finish(result.Error, "failed to persist override: %v", err)
		return
	}

	tree, ok := e.validate(ctx, a)
	if !ok {
		return
	}
	if tree.ResolvesTo(c, target) {
		a.finish(result.Applied, "")
		return
	}

	parents := e.before.ParentsOf(c)
	if len(parents) == 0 {
		if e.before.IsDirect(c) {
			a.warn("declared directly by the project; its declared version takes precedence over the managed version")
		}
		a.finish(result.Failed, ReasonNoExclusion)
		return
	}
	a.transition(result.Excluding)
	var undeclared []string
	for _, p := range parents {
		err := state.ApplyExclusion(p, c)
		if errors.Is(err, manifest.ErrParentNotDeclared) {
			undeclared = append(undeclared, p.String())
			continue
		}
		if err != nil {
			a.finish(result.Error, "failed to exclude %s from %s: %v", c, p, err)
			return
		}
		a.outcome.Exclusions = append(a.outcome.Exclusions, result.Exclusion{Parent: p.String(), Child: c.String()})
	}
	if len(a.outcome.Exclusions) == 0 {
		a.finish(result.Failed, "override ineffective, parents not declared directly: %s", strings.Join(undeclared, ", "))
		return
	}
	for _, p := range undeclared {
		a.warn(fmt.Sprintf("no exclusion under %s: not declared directly", p))
	}
	// Excluded everywhere, so the artifact needs its own declaration.
	state.AddDirect(c, target)
	if err := e.store.Persist(ctx, state); err != nil {
		a.finish(result.Error, "failed to persist exclusions: %v", err)
		return
	}

	tree, ok = e.validate(ctx, a)
	if !ok {
		return
	}
	if tree.ResolvesTo(c, target) {
		a.finish(result.Applied, "")
		return
	}
	a.finish(result.Failed, "exclusion ineffective, resolves to %s", resolved(tree, c))
}

// validate re-resolves the graph scoped to the fix's coordinate. It returns
// false after finishing the attempt if the build tool failed.
func (e *Engine) validate(ctx context.Context, a *attempt) (*deptree.Tree, bool) {
	a.transition(result.Validating)
	c := a.fix.Coordinate
	res := e.runner.Resolve(ctx, &c)
	switch res.Status {
	case buildrunner.Unresolvable:
		a.outcome.BuildOutput = res.Output
		a.finish(result.Unresolvable, "%s is not available from any configured repository", a.outcome.AttemptedVersion)
		return nil, false
	case buildrunner.Error:
		a.outcome.BuildOutput = res.Output
		reason := fmt.Sprintf("build tool failed with exit code %d", res.ExitCode)
		if res.Err != nil {
			reason += ": " + res.Err.Error()
		}
		a.finish(result.Error, "%s", reason)
		return nil, false
	}

	return deptree.Parse(res.Output), true
}

func resolved(tree *deptree.Tree, c coordinate.Coordinate) string {
	versions := tree.Versions(c)
	if len(versions) == 0 {
		return "nothing"
	}

	return strings.Join(versions, ", ")
}

// attempt tracks one fix through the state machine.
type attempt struct {
	fix     vulnreport.Fix
	outcome result.Outcome
}

func newAttempt(fix vulnreport.Fix) *attempt {
	a := &attempt{
		fix: fix,
		outcome: result.Outcome{
			Coordinate:       fix.Coordinate.String(),
			FromVersion:      fix.CurrentVersion,
			SuggestedVersion: fix.FixedVersion,
			Severity:         string(fix.Severity),
			AdvisoryID:       fix.AdvisoryID,
		},
	}
	if fix.Score >= 0 {
		a.outcome.Score = fix.Score
	}
	a.transition(result.Pending)

	return a
}

func (a *attempt) target(version string) {
	a.outcome.AttemptedVersion = version
	a.outcome.PURL = purl.FromCoordinate(a.fix.Coordinate, version).String()
}

func (a *attempt) warn(w string) {
	log.Warnf("%s: %s", a.outcome.Coordinate, w)
	a.outcome.Warnings = append(a.outcome.Warnings, w)
}

func (a *attempt) transition(s result.Status) {
	log.Debugf("%s: -> %s", a.outcome.Coordinate, s)
	a.outcome.Transitions = append(a.outcome.Transitions, s)
}

func (a *attempt) finish(s result.Status, format string, args ...any) {
	a.transition(s)
	a.outcome.Status = s
	if format != "" {
		a.outcome.Reason = fmt.Sprintf(format, args...)
	}
}
