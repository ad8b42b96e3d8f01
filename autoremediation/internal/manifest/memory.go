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

package manifest

import (
	"context"
	"sync"
)

// Memory is a Store that keeps the manifest in memory.
type Memory struct {
	mu       sync.Mutex
	state    *State
	persists int
}

// NewMemory returns a Memory store holding a copy of initial.
// The pending changes of initial are treated as already persisted.
// Loading from a Memory created with a nil state fails with ErrNotLoaded.
func NewMemory(initial *State) *Memory {
	if initial == nil {
		return &Memory{}
	}
	s := initial.Clone()
	s.Commit()

	return &Memory{state: s}
}

// Load returns a copy of the stored state.
func (m *Memory) Load(_ context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrNotLoaded
	}

	return m.state.Clone(), nil
}

// Persist stores a copy of s and commits its pending changes.
func (m *Memory) Persist(_ context.Context, s *State) error {
	if s == nil {
		return ErrNotLoaded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.Clone()
	m.state.Commit()
	m.persists++
	s.Commit()

	return nil
}

// Persists returns the number of successful Persist calls.
func (m *Memory) Persists() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.persists
}
