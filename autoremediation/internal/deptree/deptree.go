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

// Package deptree parses the text printed by `mvn dependency:tree` into
// nodes and the child-to-parents relation between coordinates.
package deptree

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

// Branch markers printed before each dependency.
const (
	markerSibling = "+- "
	markerLast    = `\- `
	// indentWidth is the width of one nesting unit ("|  " or "   ").
	indentWidth = 3
)

// levelPrefixRe matches the log level Maven prints in front of every line.
var levelPrefixRe = regexp.MustCompile(`^\[[A-Z]+\] ?`)

// Node is one dependency line of the tree.
type Node struct {
	// Depth is 0 for dependencies declared by the project itself.
	Depth      int
	Coordinate coordinate.Coordinate
	Type       string
	Classifier string
	Version    string
	Scope      string
	// Omitted marks verbose-mode entries printed in parentheses, which
	// Maven did not select during conflict resolution.
	Omitted bool
	// Line is the 1-based line number in the parsed text.
	Line int
}

// Tree is a parsed dependency tree. It is read-only after Parse.
type Tree struct {
	nodes       []Node
	occurrences map[coordinate.Coordinate][]int
	parents     map[coordinate.Coordinate]map[coordinate.Coordinate]struct{}
}

// Parse builds a Tree from dependency:tree output. Lines without a branch
// marker, and lines whose token does not look like a Maven artifact, are
// ignored.
func Parse(text string) *Tree {
	t := &Tree{
		occurrences: make(map[coordinate.Coordinate][]int),
		parents:     make(map[coordinate.Coordinate]map[coordinate.Coordinate]struct{}),
	}

	var stack []coordinate.Coordinate
	for i, line := range strings.Split(text, "\n") {
		line = levelPrefixRe.ReplaceAllString(strings.TrimRight(line, "\r"), "")
		pos := markerIndex(line)
		if pos < 0 {
			continue
		}
		n, ok := parseToken(line[pos+len(markerSibling):])
		if !ok {
			continue
		}
		n.Depth = pos / indentWidth
		n.Line = i + 1

		stack = append(stack[:min(n.Depth, len(stack))], n.Coordinate)
		if len(stack) > 1 {
			t.addParent(n.Coordinate, stack[len(stack)-2])
		}
		t.occurrences[n.Coordinate] = append(t.occurrences[n.Coordinate], len(t.nodes))
		t.nodes = append(t.nodes, n)
	}

	return t
}

func markerIndex(line string) int {
	s := strings.Index(line, markerSibling)
	l := strings.Index(line, markerLast)
	switch {
	case s < 0:
		return l
	case l < 0:
		return s
	default:
		return min(s, l)
	}
}

// parseToken parses "group:artifact:type:version[:scope]" or
// "group:artifact:type:classifier:version:scope", optionally wrapped in
// parentheses with a trailing " - omitted for ..." note.
func parseToken(s string) (Node, bool) {
	var n Node
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		n.Omitted = true
		s = strings.TrimPrefix(s, "(")
		s, _, _ = strings.Cut(s, " - ")
		s = strings.TrimSuffix(s, ")")
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	} else {
		return Node{}, false
	}

	parts := strings.Split(s, ":")
	for _, p := range parts {
		if p == "" {
			return Node{}, false
		}
	}
	switch len(parts) {
	case 4:
		n.Version = parts[3]
	case 5:
		n.Version, n.Scope = parts[3], parts[4]
	case 6:
		n.Classifier, n.Version, n.Scope = parts[3], parts[4], parts[5]
	default:
		return Node{}, false
	}
	n.Coordinate = coordinate.New(parts[0], parts[1])
	n.Type = parts[2]

	return n, true
}

func (t *Tree) addParent(child, parent coordinate.Coordinate) {
	set, ok := t.parents[child]
	if !ok {
		set = make(map[coordinate.Coordinate]struct{})
		t.parents[child] = set
	}
	set[parent] = struct{}{}
}

// Nodes returns the parsed nodes in input order.
func (t *Tree) Nodes() []Node {
	return slices.Clone(t.nodes)
}

// Contains reports whether c occurs anywhere in the tree.
func (t *Tree) Contains(c coordinate.Coordinate) bool {
	return len(t.occurrences[c]) > 0
}

// Occurrences returns every node for c in input order.
func (t *Tree) Occurrences(c coordinate.Coordinate) []Node {
	idx := t.occurrences[c]
	out := make([]Node, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.nodes[i])
	}

	return out
}

// ParentsOf returns the distinct coordinates c was seen under, sorted.
// Dependencies declared directly by the project have no parents.
func (t *Tree) ParentsOf(c coordinate.Coordinate) []coordinate.Coordinate {
	set := t.parents[c]
	out := make([]coordinate.Coordinate, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.SortFunc(out, coordinate.Compare)

	return out
}

// IsDirect reports whether c occurs at depth 0.
func (t *Tree) IsDirect(c coordinate.Coordinate) bool {
	for _, i := range t.occurrences[c] {
		if t.nodes[i].Depth == 0 {
			return true
		}
	}

	return false
}

// ResolvesTo reports whether c occurs at least once and every occurrence
// Maven selected resolves to version.
func (t *Tree) ResolvesTo(c coordinate.Coordinate, version string) bool {
	found := false
	for _, n := range t.Occurrences(c) {
		if n.Omitted {
			continue
		}
		if n.Version != version {
			return false
		}
		found = true
	}

	return found
}

// Versions returns the distinct versions Maven selected for c, in order of
// first appearance.
func (t *Tree) Versions(c coordinate.Coordinate) []string {
	var out []string
	for _, i := range t.occurrences[c] {
		n := t.nodes[i]
		if !n.Omitted && !slices.Contains(out, n.Version) {
			out = append(out, n.Version)
		}
	}

	return out
}
