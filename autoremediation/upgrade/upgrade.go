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

// Package upgrade provides the configuration for the allowable upgrade levels of remediated Maven artifacts.
package upgrade

import (
	"strings"

	"deps.dev/util/semver"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

// Level is the maximum semver level of upgrade allowed for an artifact.
// i.e. if Level == Major, all upgrades are allowed,
// if Level == Minor, only upgrades up to minor (1.0.0 - 1.*.*) are allowed.
type Level int

const (
	Major Level = iota
	Minor
	Patch
	None
)

func (level Level) String() string {
	switch level {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	case None:
		return "none"
	default:
		return "invalid"
	}
}

// ParseLevel parses "major", "minor", "patch" or "none".
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, true
	case "minor":
		return Minor, true
	case "patch":
		return Patch, true
	case "none":
		return None, true
	default:
		return Major, false
	}
}

// Allows returns if the semver.Diff is allowable for this upgrade level constraint.
func (level Level) Allows(diff semver.Diff) bool {
	if diff == semver.Same {
		return true
	}

	switch level {
	case Major:
		return true
	case Minor:
		return diff != semver.DiffMajor
	case Patch:
		return (diff != semver.DiffMajor) && (diff != semver.DiffMinor)
	case None:
		return false
	default: // Invalid level
		return false
	}
}

// Config holds the allowed Levels for each coordinate.
// The zero Coordinate holds the default level.
type Config map[coordinate.Coordinate]Level

// NewConfig creates a new Config, with all artifacts allowing all upgrades.
func NewConfig() Config {
	return make(Config)
}

// NewConfigFromStrings creates a new Config from a list of strings.
// Each string is in the format "groupId:artifactId:level", where level is one of
// "major", "minor", "patch", or "none".
// A bare "level" sets the default level for all artifacts not specified.
// Invalid strings are ignored, duplicate coordinates are overwritten.
func NewConfigFromStrings(cfgStrings []string) Config {
	cfg := NewConfig()
	for _, c := range cfgStrings {
		rest, lvl := "", c
		if idx := strings.LastIndex(c, ":"); idx != -1 {
			rest, lvl = c[:idx], c[idx+1:]
		}
		level, ok := ParseLevel(lvl)
		if !ok {
			continue
		}
		if rest == "" {
			cfg.SetDefault(level)
			continue
		}
		coord, err := coordinate.Parse(rest)
		if err != nil {
			continue
		}
		cfg.Set(coord, level)
	}

	return cfg
}

// Set the allowed upgrade level for a given coordinate.
// If level for c was previously set, sets the coordinate to the new level and returns true.
// Otherwise, sets the coordinate's level and returns false.
func (c Config) Set(coord coordinate.Coordinate, level Level) bool {
	_, alreadySet := c[coord]
	c[coord] = level

	return alreadySet
}

// SetDefault sets the default allowed upgrade level for coordinates that weren't explicitly set.
// If default was previously set, sets the default to the new level and returns true.
// Otherwise, sets the default and returns false.
func (c Config) SetDefault(level Level) bool {
	return c.Set(coordinate.Coordinate{}, level)
}

// Get the allowed Level for the given coordinate.
func (c Config) Get(coord coordinate.Coordinate) Level {
	if lvl, ok := c[coord]; ok {
		return lvl
	}

	return c[coordinate.Coordinate{}]
}

// Allows reports whether upgrading coord from one version to another is
// permitted, and the Maven semver difference between the two. Versions that
// Maven ordering cannot parse are treated as a major difference.
func (c Config) Allows(coord coordinate.Coordinate, from, to string) (bool, semver.Diff) {
	_, diff, err := semver.Maven.Difference(from, to)
	if err != nil {
		diff = semver.DiffMajor
	}

	return c.Get(coord).Allows(diff), diff
}
