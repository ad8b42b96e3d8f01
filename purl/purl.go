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

// Package purl builds and parses package URLs for Maven artifacts, following
// https://github.com/package-url/purl-spec/blob/master/PURL-TYPES.rst#maven.
// It is a thin wrapper around packageurl-go.
package purl

import (
	"errors"
	"fmt"

	"github.com/package-url/packageurl-go"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
)

// TypeMaven is a pkg:maven purl.
const TypeMaven = "maven"

// Qualifier keys used by Maven purls.
const (
	Classifier = "classifier"
	Type       = "type"
)

// ErrNotMaven is returned when a purl of another ecosystem is parsed.
var ErrNotMaven = errors.New("not a maven purl")

// PackageURL is the struct representation of the parts that make a Maven package url.
type PackageURL struct {
	GroupID    string
	ArtifactID string
	Version    string
	// Qualifiers such as classifier and type. Empty values are dropped.
	Qualifiers map[string]string
}

// FromCoordinate returns the purl of coord at the given version.
func FromCoordinate(coord coordinate.Coordinate, version string) PackageURL {
	return PackageURL{
		GroupID:    coord.GroupID,
		ArtifactID: coord.ArtifactID,
		Version:    version,
	}
}

// Coordinate returns the groupId:artifactId the purl names.
func (p PackageURL) Coordinate() coordinate.Coordinate {
	return coordinate.New(p.GroupID, p.ArtifactID)
}

func (p PackageURL) String() string {
	quals := map[string]string{}
	for k, v := range p.Qualifiers {
		if v != "" {
			quals[k] = v
		}
	}
	purl := packageurl.PackageURL{
		Type:       TypeMaven,
		Namespace:  p.GroupID,
		Name:       p.ArtifactID,
		Version:    p.Version,
		Qualifiers: packageurl.QualifiersFromMap(quals),
	}

	return (&purl).String()
}

// FromString parses a pkg:maven package url.
func FromString(s string) (PackageURL, error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return PackageURL{}, err
	}
	if p.Type != TypeMaven {
		return PackageURL{}, fmt.Errorf("%w: %q has type %q", ErrNotMaven, s, p.Type)
	}
	if p.Namespace == "" {
		return PackageURL{}, fmt.Errorf("maven purl %q is missing a namespace", s)
	}
	var quals map[string]string
	if len(p.Qualifiers) > 0 {
		quals = p.Qualifiers.Map()
	}

	return PackageURL{
		GroupID:    p.Namespace,
		ArtifactID: p.Name,
		Version:    p.Version,
		Qualifiers: quals,
	}, nil
}
