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

package vulnreport_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/severity"
	"github.com/pomguard/autoremediate/autoremediation/internal/vulnreport"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		report  string
		want    []vulnreport.Fix
		wantErr error
	}{
		{
			name: "highest fix version kept",
			report: `{"libraries": [{
				"groupId": "com.example", "artifactId": "lib", "version": "1.0.0",
				"vulnerabilities": [
					{"name": "CVE-1", "severity": "LOW", "topFix": {"fixResolution": "Upgrade to com.example:lib:1.2.0"}},
					{"name": "CVE-2", "severity": "HIGH", "topFix": {"fixResolution": "Upgrade to com.example:lib:1.10.0"}}
				]
			}]}`,
			want: []vulnreport.Fix{{
				Coordinate:     coordinate.New("com.example", "lib"),
				CurrentVersion: "1.0.0",
				FixedVersion:   "1.10.0",
				Severity:       severity.High,
				AdvisoryID:     "CVE-2",
				Score:          -1,
			}},
		},
		{
			name: "ties keep first seen",
			report: `{"libraries": [{
				"groupId": "com.example", "artifactId": "lib",
				"vulnerabilities": [
					{"name": "CVE-1", "topFix": {"fixResolution": "com.example:lib:2.0"}},
					{"name": "CVE-2", "topFix": {"fixResolution": "com.example:lib:2.0.0"}}
				]
			}]}`,
			want: []vulnreport.Fix{{
				Coordinate:   coordinate.New("com.example", "lib"),
				FixedVersion: "2.0",
				Severity:     severity.Unknown,
				AdvisoryID:   "CVE-1",
				Score:        -1,
			}},
		},
		{
			name: "structured coordinate is authoritative",
			report: `{"libraries": [{
				"groupId": "org.apache.commons", "artifactId": "commons-lang3", "version": "3.12.0",
				"vulnerabilities": [{"id": "WS-2025-0001", "topFix": {
					"fixResolution": "Upgrade to version https://github.com/apache/commons-lang.git - commons-lang-3.18.0,org.apache.commons:commons-lang3:3.18.0"
				}}]
			}]}`,
			want: []vulnreport.Fix{{
				Coordinate:     coordinate.New("org.apache.commons", "commons-lang3"),
				CurrentVersion: "3.12.0",
				FixedVersion:   "3.18.0",
				Severity:       severity.Unknown,
				AdvisoryID:     "WS-2025-0001",
				Score:          -1,
			}},
		},
		{
			name: "free text mode when coordinates are absent",
			report: `{"libraries": [{
				"vulnerabilities": [{"name": "CVE-9", "severity": "moderate", "topFix": {
					"fixResolution": "io.netty:netty-codec-http:4.1.108.Final,ch.qos.logback:logback-core:1.2.13"
				}}]
			}]}`,
			want: []vulnreport.Fix{
				{
					Coordinate:   coordinate.New("io.netty", "netty-codec-http"),
					FixedVersion: "4.1.108.Final",
					Severity:     severity.Medium,
					AdvisoryID:   "CVE-9",
					Score:        -1,
				},
				{
					Coordinate:   coordinate.New("ch.qos.logback", "logback-core"),
					FixedVersion: "1.2.13",
					Severity:     severity.Medium,
					AdvisoryID:   "CVE-9",
					Score:        -1,
				},
			},
		},
		{
			name: "string score",
			report: `{"libraries": [{
				"groupId": "com.example", "artifactId": "lib",
				"vulnerabilities": [{"name": "CVE-3", "score": "5.3", "topFix": {"fixResolution": "com.example:lib:1.1"}}]
			}]}`,
			want: []vulnreport.Fix{{
				Coordinate:   coordinate.New("com.example", "lib"),
				FixedVersion: "1.1",
				Severity:     severity.Medium,
				AdvisoryID:   "CVE-3",
				Score:        5.3,
			}},
		},
		{
			name:    "libraries missing",
			report:  `{"projectVitals": {}}`,
			wantErr: vulnreport.ErrMalformedReport,
		},
		{
			name:    "libraries not an array",
			report:  `{"libraries": {"groupId": "com.example"}}`,
			wantErr: vulnreport.ErrMalformedReport,
		},
		{
			name:    "invalid json",
			report:  `{"libraries": [`,
			wantErr: vulnreport.ErrMalformedReport,
		},
		{
			name: "no extractable versions",
			report: `{"libraries": [
				{"groupId": "com.example", "artifactId": "lib", "vulnerabilities": [{"topFix": {"fixResolution": "No fix available"}}]},
				{"groupId": "com.example", "artifactId": "other", "vulnerabilities": [{"name": "CVE-4"}]},
				{"groupId": "com.example", "artifactId": "none"}
			]}`,
			wantErr: vulnreport.ErrNoFixesFound,
		},
		{
			name:    "empty libraries",
			report:  `{"libraries": []}`,
			wantErr: vulnreport.ErrNoFixesFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vulnreport.Parse([]byte(tt.report))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 0.01)); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	got, err := vulnreport.ParseFile(filepath.Join("testdata", "report.json"))
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	want := []vulnreport.Fix{
		{
			Coordinate:     coordinate.New("org.apache.commons", "commons-text"),
			CurrentVersion: "1.9",
			FixedVersion:   "1.10.0",
			Severity:       severity.Critical,
			AdvisoryID:     "CVE-2022-42889",
			Score:          9.8,
		},
		{
			Coordinate:     coordinate.New("com.fasterxml.jackson.core", "jackson-databind"),
			CurrentVersion: "2.13.2",
			FixedVersion:   "2.13.4",
			Severity:       severity.High,
			AdvisoryID:     "CVE-2022-42004",
			Score:          7.5,
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 0.01)); diff != "" {
		t.Errorf("ParseFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFile_Missing(t *testing.T) {
	if _, err := vulnreport.ParseFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("ParseFile(missing): want error, got nil")
	}
}

func TestFilter(t *testing.T) {
	fixes := []vulnreport.Fix{
		{Coordinate: coordinate.New("g", "low"), Score: 3.1},
		{Coordinate: coordinate.New("g", "unknown"), Score: -1},
		{Coordinate: coordinate.New("g", "high"), Score: 8.2},
	}
	got := vulnreport.Filter(fixes, 7.0)
	want := []vulnreport.Fix{fixes[1], fixes[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fixes, vulnreport.Filter(fixes, 0)); diff != "" {
		t.Errorf("Filter(0) mismatch (-want +got):\n%s", diff)
	}
}
