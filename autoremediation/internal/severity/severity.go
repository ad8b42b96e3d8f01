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

// Package severity normalizes the severity information attached to scan
// report vulnerabilities into a rating and a CVSS base score.
package severity

import (
	"fmt"
	"strings"

	osvpb "github.com/ossf/osv-schema/bindings/go/osvschema"
	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"
)

// Rating is a normalized severity label.
type Rating string

// Known ratings, ordered from least to most severe.
const (
	Unknown  Rating = "UNKNOWN"
	None     Rating = "NONE"
	Low      Rating = "LOW"
	Medium   Rating = "MEDIUM"
	High     Rating = "HIGH"
	Critical Rating = "CRITICAL"
)

// ParseRating parses a free-form severity label case-insensitively.
// "moderate" is accepted as Medium. Unrecognized labels are Unknown.
func ParseRating(s string) Rating {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return None
	case "low":
		return Low
	case "medium", "moderate":
		return Medium
	case "high":
		return High
	case "critical":
		return Critical
	default:
		return Unknown
	}
}

// FromVector builds the OSV severity record for a CVSS vector string,
// picking the CVSS type from the vector prefix. Vectors without a "CVSS:"
// prefix are treated as CVSS v2.
func FromVector(vector string) *osvpb.Severity {
	vector = strings.TrimSpace(vector)
	if vector == "" {
		return nil
	}
	typ := osvpb.Severity_CVSS_V2
	switch {
	case strings.HasPrefix(vector, "CVSS:4.0/"):
		typ = osvpb.Severity_CVSS_V4
	case strings.HasPrefix(vector, "CVSS:3."):
		typ = osvpb.Severity_CVSS_V3
	}

	return &osvpb.Severity{Type: typ, Score: vector}
}

// CalculateScoreAndRating returns the numeric score and rating for the given severity field.
// i.e. returns the CVSS Score (0.0 - 10.0) and the rating (e.g. Critical)
//
// returns (-1.0, Unknown, nil) if the severity is nil or has no score.
// returns (-1.0, Unknown, error) if severity type or score is invalid.
func CalculateScoreAndRating(sev *osvpb.Severity) (float64, Rating, error) {
	if sev == nil || sev.Score == "" {
		return -1.0, Unknown, nil
	}

	var score float64
	switch sev.Type {
	case osvpb.Severity_CVSS_V2:
		vec, err := gocvss20.ParseVector(sev.Score)
		if err != nil {
			return -1.0, Unknown, err
		}
		score = vec.BaseScore()
	case osvpb.Severity_CVSS_V3:
		switch {
		case strings.HasPrefix(sev.Score, "CVSS:3.0/"):
			vec, err := gocvss30.ParseVector(sev.Score)
			if err != nil {
				return -1.0, Unknown, err
			}
			score = vec.BaseScore()
		case strings.HasPrefix(sev.Score, "CVSS:3.1/"):
			vec, err := gocvss31.ParseVector(sev.Score)
			if err != nil {
				return -1.0, Unknown, err
			}
			score = vec.BaseScore()
		default:
			return -1.0, Unknown, fmt.Errorf("unsupported CVSS_V3 version: %s", sev.Score)
		}
	case osvpb.Severity_CVSS_V4:
		vec, err := gocvss40.ParseVector(sev.Score)
		if err != nil {
			return -1.0, Unknown, err
		}
		score = vec.Score()
	default:
		return -1.0, Unknown, fmt.Errorf("unsupported severity type: %s", sev.Type)
	}

	return score, RatingForScore(score), nil
}

// RatingForScore maps a CVSS base score onto its qualitative rating.
// CVSS 2.0 has no ratings of its own, so the CVSS 3.1 scale is used for all versions.
func RatingForScore(score float64) Rating {
	if score < 0 {
		return Unknown
	}
	r, err := gocvss31.Rating(score)
	if err != nil {
		return Unknown
	}

	return ParseRating(r)
}
