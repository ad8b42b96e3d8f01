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

package purl_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/purl"
)

func TestString(t *testing.T) {
	tests := []struct {
		desc string
		purl purl.PackageURL
		want string
	}{
		{
			desc: "plain",
			purl: purl.FromCoordinate(coordinate.New("org.apache.commons", "commons-text"), "1.10.0"),
			want: "pkg:maven/org.apache.commons/commons-text@1.10.0",
		},
		{
			desc: "qualifiers sorted, empty dropped",
			purl: purl.PackageURL{
				GroupID:    "io.netty",
				ArtifactID: "netty-transport-native-epoll",
				Version:    "4.1.100.Final",
				Qualifiers: map[string]string{purl.Type: "jar", purl.Classifier: "linux-x86_64", "repository_url": ""},
			},
			want: "pkg:maven/io.netty/netty-transport-native-epoll@4.1.100.Final?classifier=linux-x86_64&type=jar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := tt.purl.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromString(t *testing.T) {
	got, err := purl.FromString("pkg:maven/com.fasterxml.jackson.core/jackson-databind@2.15.3?type=jar")
	if err != nil {
		t.Fatalf("FromString() error: %v", err)
	}
	want := purl.PackageURL{
		GroupID:    "com.fasterxml.jackson.core",
		ArtifactID: "jackson-databind",
		Version:    "2.15.3",
		Qualifiers: map[string]string{"type": "jar"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromString() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(coordinate.New("com.fasterxml.jackson.core", "jackson-databind"), got.Coordinate()); diff != "" {
		t.Errorf("Coordinate() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromString_Errors(t *testing.T) {
	if _, err := purl.FromString("pkg:npm/left-pad@1.3.0"); !errors.Is(err, purl.ErrNotMaven) {
		t.Errorf("FromString(npm) error = %v, want %v", err, purl.ErrNotMaven)
	}
	if _, err := purl.FromString("not a purl"); err == nil {
		t.Errorf("FromString(garbage): want error, got nil")
	}
}
