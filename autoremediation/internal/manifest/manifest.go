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

// Package manifest provides the in-memory model of a project manifest that
// remediation edits, and the Store interface used to load and persist it.
package manifest

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

var (
	// ErrParentNotDeclared is returned when an exclusion targets a coordinate
	// that is not a direct dependency declaration of the manifest.
	ErrParentNotDeclared = errors.New("parent is not a direct dependency declaration")
	// ErrNotLoaded is returned when persisting a state that was never loaded.
	ErrNotLoaded = errors.New("manifest state not loaded")
)

// Store loads and persists manifest state. Persist writes the pending
// changes of the state and marks them as committed.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Persist(ctx context.Context, s *State) error
}

// Dependency is one declaration of the manifest.
type Dependency struct {
	Coordinate coordinate.Coordinate
	Version    string
	Scope      string
	Exclusions []coordinate.Coordinate
}

// Exclusion records that Child is excluded under the direct declaration Parent.
type Exclusion struct {
	Parent coordinate.Coordinate
	Child  coordinate.Coordinate
}

// Changes are the mutations applied to a State since it was loaded or last
// committed, in the order they were made.
type Changes struct {
	// Overrides are new managed-version entries.
	Overrides []Dependency
	// Direct are new direct dependency declarations, with their exclusions.
	Direct []Dependency
	// Exclusions are new exclusions on declarations that already existed.
	Exclusions []Exclusion
}

// IsEmpty reports whether there are no changes.
func (c Changes) IsEmpty() bool {
	return len(c.Overrides) == 0 && len(c.Direct) == 0 && len(c.Exclusions) == 0
}

// State is the editable model of a manifest: the ordered override table,
// the direct dependency declarations and the project properties.
// Mutations only change the in-memory model until a Store persists them.
type State struct {
	managed    []Dependency
	direct     []Dependency
	properties map[string]string

	pending Changes
}

// NewState returns a State with no pending changes.
func NewState(managed, direct []Dependency, properties map[string]string) *State {
	s := &State{
		managed:    cloneDeps(managed),
		direct:     cloneDeps(direct),
		properties: maps.Clone(properties),
	}
	if s.properties == nil {
		s.properties = make(map[string]string)
	}

	return s
}

// Clone returns a deep copy of s, including its pending changes.
func (s *State) Clone() *State {
	c := NewState(s.managed, s.direct, s.properties)
	c.pending = Changes{
		Overrides:  cloneDeps(s.pending.Overrides),
		Direct:     cloneDeps(s.pending.Direct),
		Exclusions: slices.Clone(s.pending.Exclusions),
	}

	return c
}

// ManagedVersions returns the override table as a map.
func (s *State) ManagedVersions() map[coordinate.Coordinate]string {
	out := make(map[coordinate.Coordinate]string, len(s.managed))
	for _, d := range s.managed {
		if _, ok := out[d.Coordinate]; !ok {
			out[d.Coordinate] = d.Version
		}
	}

	return out
}

// Managed returns the override table entries in declaration order.
func (s *State) Managed() []Dependency {
	return cloneDeps(s.managed)
}

// Direct returns the direct dependency declarations in declaration order.
func (s *State) Direct() []Dependency {
	return cloneDeps(s.direct)
}

// IsManaged reports whether the override table has an entry for c.
func (s *State) IsManaged(c coordinate.Coordinate) bool {
	return slices.ContainsFunc(s.managed, func(d Dependency) bool { return d.Coordinate == c })
}

// IsDirect reports whether c is declared as a direct dependency.
func (s *State) IsDirect(c coordinate.Coordinate) bool {
	return slices.ContainsFunc(s.direct, func(d Dependency) bool { return d.Coordinate == c })
}

// Properties returns a copy of the project properties.
func (s *State) Properties() map[string]string {
	return maps.Clone(s.properties)
}

// ApplyOverride adds a managed-version entry pinning c to version.
// It returns false without changing anything if c is already managed,
// whatever the managed version is.
func (s *State) ApplyOverride(c coordinate.Coordinate, version string) bool {
	if s.IsManaged(c) {
		return false
	}
	d := Dependency{Coordinate: c, Version: version}
	s.managed = append(s.managed, d)
	s.pending.Overrides = append(s.pending.Overrides, d)

	return true
}

// ApplyExclusion excludes child from every direct declaration of parent.
// It returns ErrParentNotDeclared if parent is not declared directly.
// Excluding an already excluded child is a no-op.
func (s *State) ApplyExclusion(parent, child coordinate.Coordinate) error {
	if !s.IsDirect(parent) {
		return ErrParentNotDeclared
	}
	for i := range s.direct {
		d := &s.direct[i]
		if d.Coordinate != parent || slices.Contains(d.Exclusions, child) {
			continue
		}
		d.Exclusions = append(d.Exclusions, child)
		if j := slices.IndexFunc(s.pending.Direct, func(p Dependency) bool { return p.Coordinate == parent }); j >= 0 {
			// Not written yet, so the exclusion is carried by the new declaration.
			s.pending.Direct[j].Exclusions = append(s.pending.Direct[j].Exclusions, child)
			continue
		}
		if !slices.Contains(s.pending.Exclusions, Exclusion{Parent: parent, Child: child}) {
			s.pending.Exclusions = append(s.pending.Exclusions, Exclusion{Parent: parent, Child: child})
		}
	}

	return nil
}

// AddDirect declares c as a direct dependency pinned at version.
// It returns false without changing anything if c is already declared.
func (s *State) AddDirect(c coordinate.Coordinate, version string) bool {
	if s.IsDirect(c) {
		return false
	}
	d := Dependency{Coordinate: c, Version: version}
	s.direct = append(s.direct, d)
	s.pending.Direct = append(s.pending.Direct, d)

	return true
}

// Dirty reports whether s has changes that have not been persisted.
func (s *State) Dirty() bool {
	return !s.pending.IsEmpty()
}

// Changes returns the pending changes.
func (s *State) Changes() Changes {
	return s.Clone().pending
}

// Commit marks the pending changes as persisted. Stores call it after a
// successful write.
func (s *State) Commit() {
	s.pending = Changes{}
}

func cloneDeps(deps []Dependency) []Dependency {
	if deps == nil {
		return nil
	}
	out := make([]Dependency, len(deps))
	for i, d := range deps {
		d.Exclusions = slices.Clone(d.Exclusions)
		out[i] = d
	}

	return out
}
