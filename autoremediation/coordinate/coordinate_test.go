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

package coordinate_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    coordinate.Coordinate
		wantErr bool
	}{
		{in: "org.apache.commons:commons-lang3", want: coordinate.New("org.apache.commons", "commons-lang3")},
		{in: "  ch.qos.logback:logback-core ", want: coordinate.New("ch.qos.logback", "logback-core")},
		{in: "org.apache.commons", wantErr: true},
		{in: "a:b:c", wantErr: true},
		{in: ":b", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := coordinate.Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	c := coordinate.New("com.fasterxml.jackson.core", "jackson-databind")
	got, err := coordinate.Parse(c.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", c.String(), err)
	}
	if got != c {
		t.Errorf("Parse(String()) = %v, want %v", got, c)
	}
}

func TestCompare(t *testing.T) {
	cs := []coordinate.Coordinate{
		coordinate.New("org.b", "a"),
		coordinate.New("org.a", "z"),
		coordinate.New("org.a", "b"),
	}
	slices.SortFunc(cs, coordinate.Compare)
	want := []coordinate.Coordinate{
		coordinate.New("org.a", "b"),
		coordinate.New("org.a", "z"),
		coordinate.New("org.b", "a"),
	}
	if diff := cmp.Diff(want, cs); diff != "" {
		t.Errorf("sorted coordinates (-want +got):\n%s", diff)
	}
}
