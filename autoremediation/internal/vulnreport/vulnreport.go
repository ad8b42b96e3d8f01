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

// Package vulnreport turns a vulnerability scan report into deduplicated
// target-fix records, one per vulnerable Maven coordinate.
package vulnreport

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/severity"
	"github.com/pomguard/autoremediate/log"
	"github.com/pomguard/autoremediate/semantic"
	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedReport is returned when the report is not JSON or its
	// library list is absent or not an array.
	ErrMalformedReport = errors.New("malformed vulnerability report")
	// ErrNoFixesFound is returned when no library yields a usable fix version.
	ErrNoFixesFound = errors.New("no fix versions found in vulnerability report")
)

var (
	// fixVersionRe matches the first colon-prefixed dotted-numeric token,
	// e.g. "...,org.apache.commons:commons-lang3:3.18.0" yields "3.18.0".
	fixVersionRe = regexp.MustCompile(`:([0-9]+(?:\.[0-9]+)+)`)
	// coordinateRe mines group:artifact:version triples from free text.
	coordinateRe = regexp.MustCompile(`([\w.-]+):([\w.-]+):([0-9][\w.-]*)`)
)

// Fix is the remediation target for one vulnerable coordinate.
type Fix struct {
	Coordinate     coordinate.Coordinate
	CurrentVersion string
	FixedVersion   string
	Severity       severity.Rating
	AdvisoryID     string
	// Score is the CVSS base score, or -1 when the report carries none.
	Score float64
}

// ParseFile reads and parses the report at path.
func ParseFile(path string) ([]Fix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vulnerability report %s: %w", path, err)
	}

	return Parse(raw)
}

// Parse extracts one Fix per coordinate from a report with a top-level
// "libraries" array. When several vulnerabilities name the same coordinate
// the structurally highest fix version is kept, ties going to the first seen.
// Fixes are returned in the order their coordinate was first seen.
//
// The library's groupId and artifactId are authoritative when both are set.
// Otherwise every group:artifact:version triple found in the fix resolution
// text becomes a candidate fix.
func Parse(raw []byte) ([]Fix, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedReport)
	}
	libs := gjson.GetBytes(raw, "libraries")
	if !libs.IsArray() {
		return nil, fmt.Errorf("%w: field 'libraries' is absent or not an array", ErrMalformedReport)
	}

	c := newCollector()
	for i, lib := range libs.Array() {
		vulns := lib.Get("vulnerabilities")
		if !vulns.IsArray() {
			log.Debugf("library #%d has no vulnerabilities array, skipping", i)
			continue
		}
		groupID := strings.TrimSpace(lib.Get("groupId").String())
		artifactID := strings.TrimSpace(lib.Get("artifactId").String())
		current := lib.Get("version").String()
		structured := groupID != "" && artifactID != ""

		for _, vuln := range vulns.Array() {
			resolution := vuln.Get("topFix.fixResolution").String()
			if resolution == "" {
				continue
			}
			base := Fix{
				CurrentVersion: current,
				AdvisoryID:     advisoryID(vuln),
			}
			base.Score, base.Severity = score(vuln)

			if structured {
				m := fixVersionRe.FindStringSubmatch(resolution)
				if m == nil {
					log.Debugf("no fix version in %q for %s:%s", resolution, groupID, artifactID)
					continue
				}
				base.Coordinate = coordinate.New(groupID, artifactID)
				base.FixedVersion = m[1]
				c.add(base)

				continue
			}
			for _, m := range coordinateRe.FindAllStringSubmatch(resolution, -1) {
				f := base
				f.Coordinate = coordinate.New(m[1], m[2])
				f.FixedVersion, _, _ = strings.Cut(m[3], ",")
				c.add(f)
			}
		}
	}

	if len(c.fixes) == 0 {
		return nil, ErrNoFixesFound
	}

	return c.fixes, nil
}

// Filter returns the fixes whose score is at least minScore.
// Fixes with an unknown score are always kept.
func Filter(fixes []Fix, minScore float64) []Fix {
	if minScore <= 0 {
		return fixes
	}
	var kept []Fix
	for _, f := range fixes {
		if f.Score >= 0 && f.Score < minScore {
			log.Infof("Skipping %s: score %.1f below minimum %.1f", f.Coordinate, f.Score, minScore)
			continue
		}
		kept = append(kept, f)
	}

	return kept
}

type collector struct {
	fixes []Fix
	index map[coordinate.Coordinate]int
}

func newCollector() *collector {
	return &collector{index: make(map[coordinate.Coordinate]int)}
}

func (c *collector) add(f Fix) {
	i, ok := c.index[f.Coordinate]
	if !ok {
		c.index[f.Coordinate] = len(c.fixes)
		c.fixes = append(c.fixes, f)

		return
	}
	if semantic.IsGreater(f.FixedVersion, c.fixes[i].FixedVersion) {
		c.fixes[i] = f
	}
}

func advisoryID(vuln gjson.Result) string {
	if name := vuln.Get("name").String(); name != "" {
		return name
	}

	return vuln.Get("id").String()
}

// score returns the CVSS score and rating of a vulnerability entry. A CVSS
// vector takes precedence over the reported numbers; an explicit severity
// label takes precedence over the rating derived from the score.
func score(vuln gjson.Result) (float64, severity.Rating) {
	s := -1.0
	rating := severity.Unknown
	for _, field := range []string{"scoreMetadataVector", "cvss3Vector"} {
		vector := vuln.Get(field).String()
		if vector == "" {
			continue
		}
		sc, r, err := severity.CalculateScoreAndRating(severity.FromVector(vector))
		if err != nil {
			log.Debugf("ignoring invalid CVSS vector %q: %v", vector, err)
			continue
		}
		s, rating = sc, r

		break
	}
	if s < 0 {
		for _, field := range []string{"cvss3_score", "score"} {
			if v, ok := number(vuln.Get(field)); ok {
				s = v
				rating = severity.RatingForScore(s)

				break
			}
		}
	}
	for _, field := range []string{"severity", "cvss3_severity"} {
		if r := severity.ParseRating(vuln.Get(field).String()); r != severity.Unknown {
			rating = r
			break
		}
	}

	return s, rating
}

// number reads a numeric field that some report generators emit as a string.
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
