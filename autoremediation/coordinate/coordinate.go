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

// Package coordinate defines the (groupId, artifactId) pair that identifies a
// Maven dependency irrespective of its version.
package coordinate

import (
	"cmp"
	"fmt"
	"strings"
)

// Coordinate identifies a dependency irrespective of version.
type Coordinate struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
}

// New returns the Coordinate for groupID:artifactID.
func New(groupID, artifactID string) Coordinate {
	return Coordinate{GroupID: groupID, ArtifactID: artifactID}
}

// Parse parses a "groupId:artifactId" string.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want groupId:artifactId", s)
	}

	return New(parts[0], parts[1]), nil
}

func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID
}

// Compare orders coordinates by groupId, then artifactId.
func Compare(a, b Coordinate) int {
	if c := cmp.Compare(a.GroupID, b.GroupID); c != 0 {
		return c
	}

	return cmp.Compare(a.ArtifactID, b.ArtifactID)
}
