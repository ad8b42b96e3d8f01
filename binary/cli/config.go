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

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pomguard/autoremediate/autoremediation/constraint"
	"gopkg.in/yaml.v3"
)

// Config is the content of the YAML config file passed with --config.
//
// e.g.
//
//	constraints:
//	  - prefix: org.springframework
//	    minJava: 17
//	    maxVersion: 5.3.39
//	upgradeConfig: [minor, "org.yaml:snakeyaml:major"]
//	ignore: ["com.h2database:h2"]
//	maven:
//	  executable: ./mvnw
//	  timeout: 10m
type Config struct {
	Constraints   constraint.Rules `yaml:"constraints"`
	UpgradeConfig []string         `yaml:"upgradeConfig"`
	Ignore        []string         `yaml:"ignore"`
	MinSeverity   float64          `yaml:"minSeverity"`
	Backup        bool             `yaml:"backup"`
	VerifyBuild   bool             `yaml:"verifyBuild"`
	Maven         MavenConfig      `yaml:"maven"`
}

// MavenConfig configures the Maven invocations.
type MavenConfig struct {
	Executable string        `yaml:"executable"`
	Args       []string      `yaml:"args"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LoadConfig reads and validates the YAML config file at path.
// Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Constraints.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := validateIgnore(cfg.Ignore); err != nil {
		return nil, fmt.Errorf("config %s: ignore: %w", path, err)
	}
	if err := validateUpgradeConfig(cfg.UpgradeConfig); err != nil {
		return nil, fmt.Errorf("config %s: upgradeConfig: %w", path, err)
	}
	if cfg.MinSeverity < 0 || cfg.MinSeverity > 10 {
		return nil, fmt.Errorf("config %s: minSeverity %v is not a CVSS score between 0 and 10", path, cfg.MinSeverity)
	}

	return cfg, nil
}
