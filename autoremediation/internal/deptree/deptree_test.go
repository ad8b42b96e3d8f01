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

package deptree_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/deptree"
)

var (
	a = coordinate.New("com.example", "a")
	b = coordinate.New("com.example", "b")
	c = coordinate.New("com.example", "c")
	d = coordinate.New("com.example", "d")
	e = coordinate.New("com.example", "e")
)

func TestParentsOf(t *testing.T) {
	tests := []struct {
		name string
		tree string
		want map[coordinate.Coordinate][]coordinate.Coordinate
	}{
		{
			name: "three levels",
			tree: `com.example:root:jar:1.0
+- com.example:a:jar:1.0:compile
|  \- com.example:b:jar:1.0:compile
|     \- com.example:c:jar:1.0:compile
\- com.example:d:jar:1.0:compile`,
			want: map[coordinate.Coordinate][]coordinate.Coordinate{
				a: {},
				b: {a},
				c: {b},
				d: {},
			},
		},
		{
			name: "shared child under two direct dependencies",
			tree: `[INFO] com.example:root:jar:1.0
[INFO] +- com.example:d:jar:1.0:compile
[INFO] |  \- com.example:c:jar:1.0:compile
[INFO] \- com.example:e:jar:1.0:compile
[INFO]    \- com.example:c:jar:1.1:compile`,
			want: map[coordinate.Coordinate][]coordinate.Coordinate{
				c: {d, e},
				d: {},
				e: {},
			},
		},
		{
			name: "stale deeper entries are discarded",
			tree: `+- com.example:a:jar:1.0:compile
|  \- com.example:b:jar:1.0:compile
|     \- com.example:c:jar:1.0:compile
\- com.example:d:jar:1.0:compile
   \- com.example:e:jar:1.0:compile`,
			want: map[coordinate.Coordinate][]coordinate.Coordinate{
				e: {d},
				c: {b},
			},
		},
		{
			name: "unknown coordinate",
			tree: `+- com.example:a:jar:1.0:compile`,
			want: map[coordinate.Coordinate][]coordinate.Coordinate{
				coordinate.New("org.example", "missing"): {},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := deptree.Parse(tt.tree)
			for coord, want := range tt.want {
				got := tree.ParentsOf(coord)
				if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("ParentsOf(%s) mismatch (-want +got):\n%s", coord, diff)
				}
			}
		})
	}
}

func TestParse_Nodes(t *testing.T) {
	tree := `[INFO] com.example:root:jar:1.0
[INFO] +- com.example:a:jar:1.0
[INFO] |  +- com.example:b:test-jar:tests:2.0:test
[INFO] |  \- (com.example:c:jar:1.0:compile - omitted for conflict with 1.1)
[INFO] +- this is not a coordinate
[INFO] +- com.example:d:jar:3.0:compile (optional)
[WARNING] \- com.example:e:jar::compile`
	want := []deptree.Node{
		{Depth: 0, Coordinate: a, Type: "jar", Version: "1.0", Line: 2},
		{Depth: 1, Coordinate: b, Type: "test-jar", Classifier: "tests", Version: "2.0", Scope: "test", Line: 3},
		{Depth: 1, Coordinate: c, Type: "jar", Version: "1.0", Scope: "compile", Omitted: true, Line: 4},
		{Depth: 0, Coordinate: d, Type: "jar", Version: "3.0", Scope: "compile", Line: 6},
	}
	if diff := cmp.Diff(want, deptree.Parse(tree).Nodes()); diff != "" {
		t.Errorf("Parse() nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvesTo(t *testing.T) {
	tree := deptree.Parse(`+- com.example:d:jar:1.0:compile
|  \- (com.example:c:jar:1.0:compile - omitted for conflict with 2.0)
\- com.example:e:jar:1.0:compile
   \- com.example:c:jar:2.0:compile`)

	tests := []struct {
		coord   coordinate.Coordinate
		version string
		want    bool
	}{
		{coord: c, version: "2.0", want: true},
		{coord: c, version: "1.0", want: false},
		{coord: d, version: "1.0", want: true},
		{coord: a, version: "1.0", want: false},
	}
	for _, tt := range tests {
		if got := tree.ResolvesTo(tt.coord, tt.version); got != tt.want {
			t.Errorf("ResolvesTo(%s, %s) = %v, want %v", tt.coord, tt.version, got, tt.want)
		}
	}
}

func TestResolvesTo_MixedVersions(t *testing.T) {
	tree := deptree.Parse(`+- com.example:d:jar:1.0:compile
|  \- com.example:c:jar:1.0:compile
\- com.example:c:jar:2.0:compile`)
	if tree.ResolvesTo(c, "2.0") {
		t.Errorf("ResolvesTo(%s, 2.0) = true, want false", c)
	}
	if diff := cmp.Diff([]string{"1.0", "2.0"}, tree.Versions(c)); diff != "" {
		t.Errorf("Versions() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MavenOutput(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "tree.txt"))
	if err != nil {
		t.Fatalf("failed to read tree: %v", err)
	}
	tree := deptree.Parse(string(raw))

	if got := len(tree.Nodes()); got != 13 {
		t.Errorf("len(Nodes()) = %d, want 13", got)
	}

	snakeyaml := coordinate.New("org.yaml", "snakeyaml")
	wantParents := []coordinate.Coordinate{
		coordinate.New("org.liquibase", "liquibase-core"),
		coordinate.New("org.springframework.boot", "spring-boot-starter"),
	}
	if diff := cmp.Diff(wantParents, tree.ParentsOf(snakeyaml)); diff != "" {
		t.Errorf("ParentsOf(snakeyaml) mismatch (-want +got):\n%s", diff)
	}

	logbackCore := coordinate.New("ch.qos.logback", "logback-core")
	occ := tree.Occurrences(logbackCore)
	if len(occ) != 1 || occ[0].Depth != 4 || occ[0].Version != "1.2.12" {
		t.Errorf("Occurrences(logback-core) = %+v, want one node at depth 4 with version 1.2.12", occ)
	}

	epoll := coordinate.New("io.netty", "netty-transport-native-epoll")
	if !tree.IsDirect(epoll) {
		t.Errorf("IsDirect(%s) = false, want true", epoll)
	}
	if tree.IsDirect(snakeyaml) {
		t.Errorf("IsDirect(%s) = true, want false", snakeyaml)
	}
	if !tree.Contains(coordinate.New("javax.xml.bind", "jaxb-api")) {
		t.Errorf("Contains(jaxb-api) = false, want true")
	}
}
