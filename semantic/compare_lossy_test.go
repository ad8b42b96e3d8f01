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

package semantic_test

import (
	"testing"

	"github.com/pomguard/autoremediate/semantic"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want semantic.Ordering
	}{
		{"1.2.0", "1.10.0", semantic.Less},
		{"1.10.0", "1.2.0", semantic.Greater},
		{"1.2-RC1", "1.2", semantic.Equal},
		{"1.2", "1.2.0", semantic.Equal},
		{"1.2.0.0.1", "1.2", semantic.Greater},
		{"2.0.0.Final", "2.0.0", semantic.Equal},
		{"", "", semantic.Equal},
		{"", "0.0.1", semantic.Less},
		{"abc", "0", semantic.Equal},
		{"1..2", "1.0.2", semantic.Equal},
		{"v3.18.0", "3.17.9", semantic.Greater},
		{"99999999999999999999999.1", "99999999999999999999999.0", semantic.Greater},
	}

	for _, tt := range tests {
		if got := semantic.Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsGreater_Antisymmetric(t *testing.T) {
	versions := []string{
		"", "0", "1", "1.0", "1.0.1", "1.2-RC1", "1.2", "1.10.0", "2.0.0.Final",
		"5.3.39", "6.0.0", "1.2.13", "1.3.0-alpha", "10", "abc", "1..1",
	}

	for _, a := range versions {
		for _, b := range versions {
			ab := semantic.IsGreater(a, b)
			ba := semantic.IsGreater(b, a)
			equal := semantic.Compare(a, b) == semantic.Equal
			if ab && ba {
				t.Errorf("IsGreater(%q, %q) and IsGreater(%q, %q) are both true", a, b, b, a)
			}
			if ab != !ba && !equal {
				t.Errorf("IsGreater(%q, %q) = %v, IsGreater(%q, %q) = %v, want exactly one true", a, b, ab, b, a, ba)
			}
			if equal && (ab || ba) {
				t.Errorf("Compare(%q, %q) is EQUAL but IsGreater reported an order", a, b)
			}
		}
	}
}
