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

// The autoremediate command pins fixed versions of vulnerable transitive
// Maven dependencies in a pom.xml and verifies them with Maven.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pomguard/autoremediate/binary/cli"
	"github.com/pomguard/autoremediate/binary/runner"
	"github.com/pomguard/autoremediate/log"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	flags, err := parseFlags(args[1:])
	if err != nil {
		log.Errorf("Error parsing CLI args: %v", err)
		return 1
	}
	ctx, stop := notifyContext(context.Background())
	defer stop()

	return runner.RunRemediation(ctx, flags)
}

// notifyContext returns a copy of ctx that is cancelled on SIGINT or SIGTERM.
func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func parseFlags(args []string) (*cli.Flags, error) {
	fs := flag.NewFlagSet("autoremediate", flag.ContinueOnError)
	manifest := fs.String("manifest", "pom.xml", "Path to the pom.xml to remediate")
	report := fs.String("report", "", "Path to the vulnerability report (JSON)")
	treeFile := fs.String("tree", "", "Path to pre-captured 'mvn dependency:tree' output. If not set, the tree is resolved with Maven")
	resultFile := fs.String("result", cli.DefaultResultFile, "The path of the output remediation result file (JSON)")
	configFile := fs.String("config", "", "Path to a YAML config file with constraint rules, upgrade levels, ignored artifacts and Maven settings")
	upgradeConfig := cli.NewStringListFlag(nil)
	fs.Var(&upgradeConfig, "upgrade-config", "Comma-separated list of allowed upgrade levels, e.g. --upgrade-config=minor,org.yaml:snakeyaml:major")
	ignore := cli.NewStringListFlag(nil)
	fs.Var(&ignore, "ignore", "Comma-separated list of groupId:artifactId or pkg:maven package URLs to never remediate")
	minSeverity := fs.Float64("min-severity", 0, "Minimum CVSS score of the vulnerabilities to remediate")
	javaVersion := fs.Int("java-version", 0, "Java release of the project. If not set, it is read from the pom.xml properties")
	dryRun := fs.Bool("dry-run", false, "Report the versions that would be pinned without modifying the pom.xml or running Maven")
	backup := fs.Bool("backup", false, "Back up the pom.xml to pom.xml.orig before modifying it")
	verifyBuild := fs.Bool("verify-build", false, "Run 'mvn test' after remediation")
	mavenExecutable := fs.String("mvn", "", `The Maven command to run, e.g. "mvn" or "./mvnw"`)
	var mavenArgs cli.StringListFlag
	fs.Var(&mavenArgs, "mvn-args", "Comma-separated list of extra arguments passed to every Maven invocation")
	timeout := fs.Duration("timeout", 0, "Timeout of each Maven invocation, e.g. 10m")
	verbose := fs.Bool("verbose", false, "Enable this to print debug logs")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	flags := &cli.Flags{
		Manifest:        *manifest,
		Report:          *report,
		TreeFile:        *treeFile,
		ResultFile:      *resultFile,
		ConfigFile:      *configFile,
		UpgradeConfig:   upgradeConfig.GetSlice(),
		Ignore:          ignore.GetSlice(),
		MinSeverity:     *minSeverity,
		JavaVersion:     *javaVersion,
		DryRun:          *dryRun,
		Backup:          *backup,
		VerifyBuild:     *verifyBuild,
		MavenExecutable: *mavenExecutable,
		MavenArgs:       mavenArgs.GetSlice(),
		Timeout:         *timeout,
		Verbose:         *verbose,
	}
	if err := cli.ValidateFlags(flags); err != nil {
		return nil, err
	}
	return flags, nil
}
