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

// Package options has the configuration options for auto-remediation.
package options

import (
	"time"

	"github.com/pomguard/autoremediate/autoremediation/constraint"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/upgrade"
)

// Options are the options for autoremediation.Remediate().
type Options struct {
	Manifest string // Path to the pom.xml on disk.
	Report   string // Path to the vulnerability report on disk.
	TreeFile string // Path to pre-captured dependency:tree output. If empty, the tree is resolved with Maven.

	MinSeverity   float64                 // Minimum CVSS score to remediate. Fixes without a score are kept.
	Ignore        []coordinate.Coordinate // Artifacts that are never remediated.
	UpgradeConfig upgrade.Config          // Allowed upgrade levels per artifact.
	Constraints   constraint.Rules        // Version caps depending on the project's Java release.
	JavaVersion   int                     // Java release of the project. If <= 0 it is read from the pom properties.

	DryRun      bool // If true, report what would be pinned without writing the manifest or building.
	Backup      bool // If true, back up the manifest before the first write.
	VerifyBuild bool // If true, run the project's tests after remediation.

	MavenExecutable string        // Maven command, e.g. "mvn" or "./mvnw".
	MavenArgs       []string      // Extra arguments passed to every Maven invocation.
	Timeout         time.Duration // Timeout of each Maven invocation. Zero means no timeout.
}

// DefaultOptions creates a default initialized configuration.
func DefaultOptions() Options {
	return Options{
		UpgradeConfig:   upgrade.NewConfig(),
		Constraints:     constraint.DefaultRules(),
		MavenExecutable: "mvn",
		Timeout:         15 * time.Minute,
	}
}
