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

package manifest_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/manifest"
)

var (
	starter   = coordinate.New("org.springframework.boot", "spring-boot-starter-web")
	liquibase = coordinate.New("org.liquibase", "liquibase-core")
	snake     = coordinate.New("org.yaml", "snakeyaml")
	lang3     = coordinate.New("org.apache.commons", "commons-lang3")
)

func newState() *manifest.State {
	return manifest.NewState(
		[]manifest.Dependency{{Coordinate: lang3, Version: "3.12.0"}},
		[]manifest.Dependency{
			{Coordinate: starter, Version: "2.7.18"},
			{Coordinate: liquibase, Version: "4.9.1", Exclusions: []coordinate.Coordinate{coordinate.New("javax.xml.bind", "jaxb-api")}},
		},
		map[string]string{"java.version": "11"},
	)
}

func TestApplyOverride(t *testing.T) {
	s := newState()
	if !s.ApplyOverride(snake, "2.0") {
		t.Fatalf("ApplyOverride(%s) = false, want true", snake)
	}
	if s.ApplyOverride(snake, "2.2") {
		t.Errorf("second ApplyOverride(%s) = true, want false", snake)
	}
	if s.ApplyOverride(lang3, "3.18.0") {
		t.Errorf("ApplyOverride(%s) on managed coordinate = true, want false", lang3)
	}
	want := map[coordinate.Coordinate]string{lang3: "3.12.0", snake: "2.0"}
	if diff := cmp.Diff(want, s.ManagedVersions()); diff != "" {
		t.Errorf("ManagedVersions() mismatch (-want +got):\n%s", diff)
	}
	wantChanges := manifest.Changes{Overrides: []manifest.Dependency{{Coordinate: snake, Version: "2.0"}}}
	if diff := cmp.Diff(wantChanges, s.Changes()); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyExclusion(t *testing.T) {
	s := newState()
	if err := s.ApplyExclusion(snake, lang3); !errors.Is(err, manifest.ErrParentNotDeclared) {
		t.Errorf("ApplyExclusion(undeclared parent) error = %v, want %v", err, manifest.ErrParentNotDeclared)
	}
	if s.Dirty() {
		t.Errorf("Dirty() after failed exclusion = true, want false")
	}
	if err := s.ApplyExclusion(liquibase, snake); err != nil {
		t.Fatalf("ApplyExclusion() error: %v", err)
	}
	// Idempotent.
	if err := s.ApplyExclusion(liquibase, snake); err != nil {
		t.Fatalf("second ApplyExclusion() error: %v", err)
	}
	wantDirect := []manifest.Dependency{
		{Coordinate: starter, Version: "2.7.18"},
		{Coordinate: liquibase, Version: "4.9.1", Exclusions: []coordinate.Coordinate{coordinate.New("javax.xml.bind", "jaxb-api"), snake}},
	}
	if diff := cmp.Diff(wantDirect, s.Direct()); diff != "" {
		t.Errorf("Direct() mismatch (-want +got):\n%s", diff)
	}
	wantChanges := manifest.Changes{Exclusions: []manifest.Exclusion{{Parent: liquibase, Child: snake}}}
	if diff := cmp.Diff(wantChanges, s.Changes()); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestAddDirect(t *testing.T) {
	s := newState()
	if s.AddDirect(starter, "3.0.0") {
		t.Errorf("AddDirect(declared) = true, want false")
	}
	if !s.AddDirect(snake, "2.0") {
		t.Fatalf("AddDirect(%s) = false, want true", snake)
	}
	if !s.IsDirect(snake) {
		t.Errorf("IsDirect(%s) = false, want true", snake)
	}
	// An exclusion on a declaration that is not written yet travels with it.
	if err := s.ApplyExclusion(snake, lang3); err != nil {
		t.Fatalf("ApplyExclusion() error: %v", err)
	}
	want := manifest.Changes{
		Direct: []manifest.Dependency{{Coordinate: snake, Version: "2.0", Exclusions: []coordinate.Coordinate{lang3}}},
	}
	if diff := cmp.Diff(want, s.Changes()); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitAndClone(t *testing.T) {
	s := newState()
	s.ApplyOverride(snake, "2.0")
	c := s.Clone()
	s.Commit()
	if s.Dirty() {
		t.Errorf("Dirty() after Commit() = true, want false")
	}
	if !c.Dirty() {
		t.Errorf("clone Dirty() = false, want true")
	}
	if v, ok := s.Properties()["java.version"]; !ok || v != "11" {
		t.Errorf("Properties()[java.version] = (%q, %v), want (\"11\", true)", v, ok)
	}
}

func TestMemory(t *testing.T) {
	ctx := t.Context()
	initial := newState()
	mem := manifest.NewMemory(initial)

	s, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	s.ApplyOverride(snake, "2.0")
	s.AddDirect(snake, "2.0")

	// Unpersisted changes are not visible to a new Load.
	before, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if before.IsManaged(snake) {
		t.Errorf("IsManaged(%s) before Persist = true, want false", snake)
	}

	if err := mem.Persist(ctx, s); err != nil {
		t.Fatalf("Persist() error: %v", err)
	}
	if s.Dirty() {
		t.Errorf("Dirty() after Persist() = true, want false")
	}
	after, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(s.Managed(), after.Managed(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load() after Persist managed mismatch (-want +got):\n%s", diff)
	}
	if !after.IsDirect(snake) {
		t.Errorf("IsDirect(%s) after Persist = false, want true", snake)
	}
	if after.Dirty() {
		t.Errorf("loaded state is dirty")
	}
	if got := mem.Persists(); got != 1 {
		t.Errorf("Persists() = %d, want 1", got)
	}
}

func TestMemory_NotLoaded(t *testing.T) {
	mem := manifest.NewMemory(nil)
	if _, err := mem.Load(t.Context()); !errors.Is(err, manifest.ErrNotLoaded) {
		t.Errorf("Load() error = %v, want %v", err, manifest.ErrNotLoaded)
	}
	if err := mem.Persist(t.Context(), nil); !errors.Is(err, manifest.ErrNotLoaded) {
		t.Errorf("Persist(nil) error = %v, want %v", err, manifest.ErrNotLoaded)
	}
}
