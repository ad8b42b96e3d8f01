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

// Package mavenutil provides utilities for reading Maven pom.xml files.
package mavenutil

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"deps.dev/util/maven"
	"golang.org/x/net/html/charset"
)

// MaxParent sets a limit on the number of parents to avoid indefinite loop.
const MaxParent = 100

// DefaultJavaVersion is assumed when a project declares no Java release.
const DefaultJavaVersion = 8

// NewDecoder returns an xml decoder for pom.xml content that handles
// non-UTF-8 charsets and HTML entities.
func NewDecoder(reader io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(reader)
	// Set charset reader for conversion from non-UTF-8 charset into UTF-8.
	decoder.CharsetReader = charset.NewReaderLabel
	// Set HTML entity map for translation between non-standard entity names
	// and string replacements.
	decoder.Entity = xml.HTMLEntity

	return decoder
}

// ReadProject decodes the pom.xml at p in fsys.
func ReadProject(fsys fs.FS, p string) (maven.Project, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return maven.Project{}, err
	}
	defer f.Close()

	var proj maven.Project
	if err := NewDecoder(f).Decode(&proj); err != nil {
		return maven.Project{}, fmt.Errorf("failed to unmarshal project %s: %w", p, err)
	}

	return proj, nil
}

// ProjectKey returns a project key with empty groupId/version
// filled by corresponding fields in parent.
func ProjectKey(proj maven.Project) maven.ProjectKey {
	if proj.GroupID == "" {
		proj.GroupID = proj.Parent.GroupID
	}
	if proj.Version == "" {
		proj.Version = proj.Parent.Version
	}

	return proj.ProjectKey
}

// ParentPOMPath returns the path of a parent pom.xml in fsys.
// Maven looks for the parent POM first in 'relativePath', then
// '../pom.xml'. An empty string is returned if no local parent exists.
func ParentPOMPath(fsys fs.FS, currentPath, relativePath string) string {
	if relativePath == "" {
		relativePath = "../pom.xml"
	}

	p := path.Join(path.Dir(currentPath), relativePath)
	if !fs.ValidPath(p) {
		return ""
	}
	if info, err := fs.Stat(fsys, p); err == nil {
		if !info.IsDir() {
			return p
		}
		// Current path is a directory, so look for pom.xml in the directory.
		p = path.Join(p, "pom.xml")
		if _, err := fs.Stat(fsys, p); err == nil {
			return p
		}
	}

	return ""
}

// Properties returns the properties of proj merged with those of any parent
// pom.xml reachable on the local file system. Properties declared closer to
// proj win. Parents that cannot be found locally are ignored.
func Properties(fsys fs.FS, p string, proj maven.Project) (map[string]string, error) {
	props := make(map[string]string)
	addProps := func(pr maven.Project) {
		for _, prop := range pr.Properties.Properties {
			if _, ok := props[prop.Name]; !ok {
				props[prop.Name] = prop.Value
			}
		}
	}
	addProps(proj)

	parent := proj.Parent
	current := p
	visited := make(map[maven.ProjectKey]bool, MaxParent)
	for range MaxParent {
		if parent.GroupID == "" || parent.ArtifactID == "" || parent.Version == "" {
			break
		}
		if visited[parent.ProjectKey] {
			// A cycle of parents is detected
			return nil, errors.New("a cycle of parents is detected")
		}
		visited[parent.ProjectKey] = true

		current = ParentPOMPath(fsys, current, string(parent.RelativePath))
		if current == "" {
			break
		}
		pp, err := ReadProject(fsys, current)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent: %w", err)
		}
		if ProjectKey(pp) != parent.ProjectKey {
			// Only the expected parent contributes properties.
			break
		}
		addProps(pp)
		parent = pp.Parent
	}

	return props, nil
}

// javaVersionProperties are consulted in order for the Java release.
var javaVersionProperties = []string{
	"java.version",
	"maven.compiler.release",
	"maven.compiler.source",
	"maven.compiler.target",
}

// JavaVersion returns the Java feature release declared by props, and
// whether one was found. Legacy "1.x" releases are reported as x.
func JavaVersion(props map[string]string) (int, bool) {
	for _, name := range javaVersionProperties {
		if v, ok := parseJavaRelease(props[name]); ok {
			return v, true
		}
	}

	return DefaultJavaVersion, false
}

func parseJavaRelease(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "${") {
		return 0, false
	}
	s = strings.TrimPrefix(s, "1.")
	if i := strings.IndexAny(s, ".-_"); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}

	return v, true
}
