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
	"context"
	"sync"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

// Call records one Resolve invocation of a Static runner.
type Call struct {
	// Scope is the zero Coordinate for an unscoped resolution.
	Scope coordinate.Coordinate
}

// Static is a Runner that replays canned results, for tests and for
// dependency trees captured ahead of time. Resolve returns Results in order
// and repeats the last one once they are exhausted.
type Static struct {
	Results      []Result
	VerifyResult Result

	mu    sync.Mutex
	calls []Call
	next  int
}

var _ Runner = &Static{}

// NewStatic returns a Static runner replaying results.
func NewStatic(results ...Result) *Static {
	return &Static{Results: results}
}

// Tree returns a successful Result whose output is the given tree text.
func Tree(text string) Result {
	return Result{Status: OK, Output: text}
}

// Resolve returns the next canned result.
func (s *Static) Resolve(_ context.Context, scope *coordinate.Coordinate) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c Call
	if scope != nil {
		c.Scope = *scope
	}
	s.calls = append(s.calls, c)
	if len(s.Results) == 0 {
		return Result{Status: OK}
	}
	r := s.Results[min(s.next, len(s.Results)-1)]
	s.next++

	return r
}

// Verify returns VerifyResult.
func (s *Static) Verify(_ context.Context) Result {
	return s.VerifyResult
}

// Calls returns the Resolve invocations so far.
func (s *Static) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}
