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

// Package cli defines the structures to store the CLI flags used by the
// autoremediate binary.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/options"
	"github.com/pomguard/autoremediate/autoremediation/result"
	"github.com/pomguard/autoremediate/autoremediation/upgrade"
	"github.com/pomguard/autoremediate/log"
	"github.com/pomguard/autoremediate/purl"
)

// DefaultResultFile is where the result is written when --result is not set.
const DefaultResultFile = "auto-remediation-result.json"

// StringListFlag is a type to be passed to flag.Var that supports list flags passed as repeated
// flags, e.g. ./autoremediate --ignore a:b --ignore c:d,e:f the library will call
// arr.Set("a:b") then arr.Set("c:d,e:f").
type StringListFlag struct {
	set          bool
	value        []string
	defaultValue []string
}

// NewStringListFlag creates a new StringListFlag with the given default value.
func NewStringListFlag(defaultValue []string) StringListFlag {
	return StringListFlag{defaultValue: defaultValue}
}

// Set gets called whenever a new instance of a flag is read during CLI arg parsing.
func (s *StringListFlag) Set(x string) error {
	s.value = append(s.value, strings.Split(x, ",")...)
	s.set = true
	return nil
}

// Get returns the underlying []string value stored by this flag struct.
func (s *StringListFlag) Get() any {
	return s.GetSlice()
}

// GetSlice returns the underlying []string value stored by this flag struct.
func (s *StringListFlag) GetSlice() []string {
	if s.set {
		return s.value
	}
	return s.defaultValue
}

func (s *StringListFlag) String() string {
	if len(s.value) == 0 {
		return ""
	}
	return fmt.Sprint(s.value)
}

// Flags contains a field for all the cli flags that can be set.
type Flags struct {
	Manifest        string
	Report          string
	TreeFile        string
	ResultFile      string
	ConfigFile      string
	UpgradeConfig   []string
	Ignore          []string
	MinSeverity     float64
	JavaVersion     int
	DryRun          bool
	Backup          bool
	VerifyBuild     bool
	MavenExecutable string
	MavenArgs       []string
	Timeout         time.Duration
	Verbose         bool
}

// ValidateFlags validates the passed command line flags.
func ValidateFlags(flags *Flags) error {
	if flags.Manifest == "" {
		return errors.New("--manifest needs to be set")
	}
	if flags.Report == "" {
		return errors.New("--report needs to be set")
	}
	if err := validateResultPath(flags.ResultFile); err != nil {
		return fmt.Errorf("--result %w", err)
	}
	if flags.MinSeverity < 0 || flags.MinSeverity > 10 {
		return fmt.Errorf("--min-severity %v is not a CVSS score between 0 and 10", flags.MinSeverity)
	}
	if flags.JavaVersion < 0 {
		return fmt.Errorf("--java-version %d is invalid", flags.JavaVersion)
	}
	if flags.Timeout < 0 {
		return fmt.Errorf("--timeout %v cannot be negative", flags.Timeout)
	}
	if err := validateMultiStringArg(flags.Ignore); err != nil {
		return fmt.Errorf("--ignore: %w", err)
	}
	if err := validateIgnore(flags.Ignore); err != nil {
		return fmt.Errorf("--ignore: %w", err)
	}
	if err := validateMultiStringArg(flags.UpgradeConfig); err != nil {
		return fmt.Errorf("--upgrade-config: %w", err)
	}
	if err := validateUpgradeConfig(flags.UpgradeConfig); err != nil {
		return fmt.Errorf("--upgrade-config: %w", err)
	}
	return nil
}

func validateResultPath(filePath string) error {
	if len(filePath) == 0 {
		return nil
	}
	if ext := filepath.Ext(filePath); ext != ".json" {
		return fmt.Errorf("file %q has extension %q, want .json", filePath, ext)
	}
	return nil
}

func validateMultiStringArg(arg []string) error {
	for _, item := range arg {
		if len(item) == 0 {
			return errors.New("list item cannot be left empty")
		}
	}
	return nil
}

func validateIgnore(arg []string) error {
	for _, item := range arg {
		if _, err := parseIgnore(item); err != nil {
			return err
		}
	}
	return nil
}

// parseIgnore parses an ignore entry, either groupId:artifactId or a
// pkg:maven package url. The version of a package url is not used.
func parseIgnore(s string) (coordinate.Coordinate, error) {
	if strings.HasPrefix(s, "pkg:") {
		p, err := purl.FromString(s)
		if err != nil {
			return coordinate.Coordinate{}, err
		}
		return p.Coordinate(), nil
	}
	return coordinate.Parse(s)
}

func validateUpgradeConfig(arg []string) error {
	for _, item := range arg {
		rest, lvl := "", item
		if idx := strings.LastIndex(item, ":"); idx != -1 {
			rest, lvl = item[:idx], item[idx+1:]
		}
		if _, ok := upgrade.ParseLevel(lvl); !ok {
			return fmt.Errorf("invalid upgrade level %q in %q", lvl, item)
		}
		if rest == "" {
			continue
		}
		if _, err := coordinate.Parse(rest); err != nil {
			return err
		}
	}
	return nil
}

// GetOptions returns the remediation options for the flags. Values from the
// config file are used where the corresponding flag is not set.
func (f *Flags) GetOptions() (options.Options, error) {
	cfg := &Config{}
	if f.ConfigFile != "" {
		var err error
		if cfg, err = LoadConfig(f.ConfigFile); err != nil {
			return options.Options{}, err
		}
	}

	opts := options.DefaultOptions()
	opts.Manifest = f.Manifest
	opts.Report = f.Report
	opts.TreeFile = f.TreeFile
	opts.JavaVersion = f.JavaVersion
	opts.DryRun = f.DryRun
	opts.Backup = f.Backup || cfg.Backup
	opts.VerifyBuild = f.VerifyBuild || cfg.VerifyBuild

	if len(cfg.Constraints) > 0 {
		opts.Constraints = cfg.Constraints
	}
	// Later entries win, so flags override the config file.
	opts.UpgradeConfig = upgrade.NewConfigFromStrings(slices.Concat(cfg.UpgradeConfig, f.UpgradeConfig))
	for _, s := range slices.Concat(cfg.Ignore, f.Ignore) {
		c, err := parseIgnore(s)
		if err != nil {
			return options.Options{}, err
		}
		if !slices.Contains(opts.Ignore, c) {
			opts.Ignore = append(opts.Ignore, c)
		}
	}

	opts.MinSeverity = cfg.MinSeverity
	if f.MinSeverity > 0 {
		opts.MinSeverity = f.MinSeverity
	}
	if cfg.Maven.Executable != "" {
		opts.MavenExecutable = cfg.Maven.Executable
	}
	if f.MavenExecutable != "" {
		opts.MavenExecutable = f.MavenExecutable
	}
	opts.MavenArgs = cfg.Maven.Args
	if len(f.MavenArgs) > 0 {
		opts.MavenArgs = f.MavenArgs
	}
	if cfg.Maven.Timeout > 0 {
		opts.Timeout = cfg.Maven.Timeout
	}
	if f.Timeout > 0 {
		opts.Timeout = f.Timeout
	}

	return opts, nil
}

// WriteResult writes the result to the result file.
func (f *Flags) WriteResult(res *result.Result) error {
	path := f.ResultFile
	if path == "" {
		path = DefaultResultFile
	}
	log.Infof("Writing remediation result to %s", path)
	return res.WriteFile(path)
}
