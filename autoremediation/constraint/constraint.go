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

// Package constraint caps remediation target versions that would require a
// newer Java release than the project builds with.
package constraint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/semantic"
)

// Rule caps artifacts whose "groupId:artifactId" starts with Prefix at
// MaxVersion when the project's Java release is below MinJava.
type Rule struct {
	Prefix     string `yaml:"prefix"`
	MinJava    int    `yaml:"minJava"`
	MaxVersion string `yaml:"maxVersion"`
	Reason     string `yaml:"reason,omitempty"`
}

// Validate reports whether the rule is complete.
func (r Rule) Validate() error {
	if r.Prefix == "" {
		return errors.New("constraint rule has no prefix")
	}
	if r.MaxVersion == "" {
		return fmt.Errorf("constraint rule for %q has no maxVersion", r.Prefix)
	}
	if r.MinJava <= 0 {
		return fmt.Errorf("constraint rule for %q has invalid minJava %d", r.Prefix, r.MinJava)
	}

	return nil
}

// Rules are checked in order; the first rule that caps a version wins.
type Rules []Rule

// DefaultRules returns the built-in rules.
func DefaultRules() Rules {
	return Rules{
		{Prefix: "org.springframework", MinJava: 17, MaxVersion: "5.3.39", Reason: "Spring 6 requires Java 17+"},
		{Prefix: "ch.qos.logback", MinJava: 11, MaxVersion: "1.2.13", Reason: "Logback 1.3+ requires Java 11+"},
	}
}

// Validate checks every rule.
func (rs Rules) Validate() error {
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Apply returns the version to target for c given the project's Java
// release. If a rule caps the version, the warning describes why;
// otherwise version is returned unchanged with an empty warning.
func (rs Rules) Apply(c coordinate.Coordinate, version string, javaVersion int) (string, string) {
	name := c.String()
	for _, r := range rs {
		if !strings.HasPrefix(name, r.Prefix) || javaVersion >= r.MinJava {
			continue
		}
		if !semantic.IsGreater(version, r.MaxVersion) {
			continue
		}
		warning := fmt.Sprintf("%s: applied %s instead of %s for Java %d", name, r.MaxVersion, version, javaVersion)
		if r.Reason != "" {
			warning += ": " + r.Reason
		}

		return r.MaxVersion, warning
	}

	return version, ""
}
