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

package maven

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"deps.dev/util/maven"
	forkedxml "github.com/michaelkedar/xml"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/manifest"
)

// Elements written for new entries.
type dependencyManagement struct {
	Dependencies []dependency `xml:"dependencies>dependency"`
}

type dependencies struct {
	Dependencies []dependency `xml:"dependency"`
}

type dependency struct {
	GroupID    string      `xml:"groupId"`
	ArtifactID string      `xml:"artifactId"`
	Version    string      `xml:"version,omitempty"`
	Exclusions *exclusions `xml:"exclusions,omitempty"`
}

type exclusions struct {
	Exclusions []exclusion `xml:"exclusion"`
}

type exclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

func makeDependency(d manifest.Dependency) dependency {
	dep := dependency{
		GroupID:    d.Coordinate.GroupID,
		ArtifactID: d.Coordinate.ArtifactID,
		Version:    d.Version,
	}
	if len(d.Exclusions) > 0 {
		dep.Exclusions = &exclusions{Exclusions: makeExclusions(d.Exclusions)}
	}

	return dep
}

func makeExclusions(cs []coordinate.Coordinate) []exclusion {
	var out []exclusion
	for _, c := range cs {
		out = append(out, exclusion{GroupID: c.GroupID, ArtifactID: c.ArtifactID})
	}

	return out
}

// tokenWriter copies xml tokens to an encoder. Whitespace is held back until
// the next token so that new elements can be inserted right after the last
// child of an element, before the indentation of its closing tag.
type tokenWriter struct {
	w   io.Writer
	enc *forkedxml.Encoder
	ws  *forkedxml.CharData
}

func newTokenWriter(w io.Writer) *tokenWriter {
	return &tokenWriter{w: w, enc: forkedxml.NewEncoder(w)}
}

// token writes t. src is the text t was decoded from.
func (tw *tokenWriter) token(t forkedxml.Token, src string) error {
	if cd, ok := t.(forkedxml.CharData); ok && strings.TrimSpace(src) == "" {
		if err := tw.release(); err != nil {
			return err
		}
		ws := cd.Copy()
		tw.ws = &ws

		return nil
	}
	if err := tw.release(); err != nil {
		return err
	}

	return tw.enc.EncodeToken(t)
}

func (tw *tokenWriter) release() error {
	if tw.ws == nil {
		return nil
	}
	ws := *tw.ws
	tw.ws = nil

	return tw.enc.EncodeToken(ws)
}

// insert writes v on a new line at the given indentation.
func (tw *tokenWriter) insert(v any, prefix, indent string) error {
	b, err := forkedxml.MarshalIndent(v, prefix, indent)
	if err != nil {
		return err
	}
	if err := tw.enc.Flush(); err != nil {
		return err
	}
	if _, err := tw.w.Write([]byte("\n")); err != nil {
		return err
	}
	_, err = tw.w.Write(b)

	return err
}

// raw writes s verbatim after any held whitespace.
func (tw *tokenWriter) raw(s string) error {
	if err := tw.release(); err != nil {
		return err
	}
	if err := tw.enc.Flush(); err != nil {
		return err
	}
	_, err := tw.w.Write([]byte(s))

	return err
}

func (tw *tokenWriter) flush() error {
	if err := tw.release(); err != nil {
		return err
	}

	return tw.enc.Flush()
}

// visitor customizes stream. start is called for every start element with
// its depth (0 for the outermost element); returning true means the callback
// consumed and wrote the element. end is called before an end element is
// written.
type visitor struct {
	start func(dec *forkedxml.Decoder, se forkedxml.StartElement, depth int) (bool, error)
	end   func(ee forkedxml.EndElement, depth int) error
}

func (tw *tokenWriter) stream(raw string, v visitor) error {
	dec := forkedxml.NewDecoder(strings.NewReader(raw))
	depth := 0
	for {
		offset := dec.InputOffset()
		token, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		src := raw[min(offset, int64(len(raw))):min(dec.InputOffset(), int64(len(raw)))]

		switch tt := token.(type) {
		case forkedxml.StartElement:
			if v.start != nil {
				handled, err := v.start(dec, tt, depth)
				if err != nil {
					return err
				}
				if handled {
					continue
				}
			}
			depth++
		case forkedxml.EndElement:
			depth--
			if v.end != nil {
				if err := v.end(tt, depth); err != nil {
					return err
				}
			}
		}
		if err := tw.token(token, src); err != nil {
			return err
		}
	}
}

type rawElement struct {
	InnerXML string `xml:",innerxml"`
}

// write applies changes to the pom.xml in raw and writes the result to w.
// Only the top-level dependencyManagement and dependencies sections of the
// project are modified; missing sections are created before </project>.
func write(raw string, w io.Writer, changes manifest.Changes) error {
	tw := newTokenWriter(w)
	err := tw.stream(raw, visitor{
		start: func(dec *forkedxml.Decoder, se forkedxml.StartElement, depth int) (bool, error) {
			if depth != 0 || se.Name.Local != "project" {
				return false, nil
			}
			var rawProj rawElement
			if err := dec.DecodeElement(&rawProj, &se); err != nil {
				return false, err
			}
			// Encoding the project start element would rewrite its name spaces,
			// so the original text is written instead.
			projectStart := projectStartElement(raw)
			if projectStart == "" {
				return false, errors.New("unable to get start element of project")
			}
			if err := tw.raw(projectStart); err != nil {
				return false, fmt.Errorf("writing start element of project: %w", err)
			}
			if err := writeProject(tw, rawProj.InnerXML, changes); err != nil {
				return false, fmt.Errorf("updating project: %w", err)
			}
			if err := tw.raw("</project>"); err != nil {
				return false, fmt.Errorf("writing end element of project: %w", err)
			}

			return true, nil
		},
	})
	if err != nil {
		return err
	}

	return tw.flush()
}

func writeProject(tw *tokenWriter, raw string, changes manifest.Changes) error {
	parents := make(map[coordinate.Coordinate][]coordinate.Coordinate)
	for _, e := range changes.Exclusions {
		parents[e.Parent] = append(parents[e.Parent], e.Child)
	}
	if len(parents) > 0 && !hasChild("<project>"+raw+"</project>", "dependencies") {
		return errors.New("exclusions target a pom without dependencies")
	}
	// The project element starts at column 0, so the indentation of its
	// children is one unit.
	unit := leadingIndentation(raw, "  ")
	var managementFound, dependenciesFound bool

	err := tw.stream(raw, visitor{
		start: func(dec *forkedxml.Decoder, se forkedxml.StartElement, depth int) (bool, error) {
			if depth != 0 {
				return false, nil
			}
			switch se.Name.Local {
			case "dependencyManagement":
				managementFound = true
				var rawDM rawElement
				if err := dec.DecodeElement(&rawDM, &se); err != nil {
					return false, err
				}
				if err := writeManagement(tw, "<dependencyManagement>"+rawDM.InnerXML+"</dependencyManagement>", changes.Overrides, unit); err != nil {
					return false, fmt.Errorf("updating dependency management: %w", err)
				}

				return true, nil
			case "dependencies":
				dependenciesFound = true
				var rawDeps rawElement
				if err := dec.DecodeElement(&rawDeps, &se); err != nil {
					return false, err
				}
				if err := writeDependencies(tw, "<dependencies>"+rawDeps.InnerXML+"</dependencies>", changes.Direct, parents, unit); err != nil {
					return false, fmt.Errorf("updating dependencies: %w", err)
				}

				return true, nil
			}

			return false, nil
		},
	})
	if err != nil {
		return err
	}

	if !managementFound && len(changes.Overrides) > 0 {
		dm := dependencyManagement{}
		for _, d := range changes.Overrides {
			dm.Dependencies = append(dm.Dependencies, makeDependency(d))
		}
		if err := tw.insert(dm, unit, unit); err != nil {
			return err
		}
	}
	if !dependenciesFound && len(changes.Direct) > 0 {
		deps := dependencies{}
		for _, d := range changes.Direct {
			deps.Dependencies = append(deps.Dependencies, makeDependency(d))
		}
		if err := tw.insert(deps, unit, unit); err != nil {
			return err
		}
	}

	return tw.flush()
}

// writeManagement appends overrides to the dependencies of the
// dependencyManagement element in raw, a child of project.
func writeManagement(tw *tokenWriter, raw string, overrides []manifest.Dependency, unit string) error {
	depsIndent := indentation(raw, "dependencyManagement", unit+unit)
	indent := indentation(raw, "dependencies", depsIndent+unit)
	inserted := len(overrides) == 0

	return tw.stream(raw, visitor{
		end: func(ee forkedxml.EndElement, depth int) error {
			if inserted {
				return nil
			}
			switch {
			case depth == 1 && ee.Name.Local == "dependencies":
				inserted = true
				for _, d := range overrides {
					if err := tw.insert(makeDependency(d), indent, unit); err != nil {
						return err
					}
				}
			case depth == 0:
				// dependencyManagement without a dependencies element.
				inserted = true
				deps := dependencies{}
				for _, d := range overrides {
					deps.Dependencies = append(deps.Dependencies, makeDependency(d))
				}
				return tw.insert(deps, depsIndent, unit)
			}

			return nil
		},
	})
}

// writeDependencies adds exclusions to existing declarations and appends
// new declarations to the dependencies element in raw.
func writeDependencies(tw *tokenWriter, raw string, direct []manifest.Dependency, parents map[coordinate.Coordinate][]coordinate.Coordinate, unit string) error {
	indent := indentation(raw, "dependencies", unit+unit)

	return tw.stream(raw, visitor{
		start: func(dec *forkedxml.Decoder, se forkedxml.StartElement, depth int) (bool, error) {
			if depth != 1 || se.Name.Local != "dependency" || len(parents) == 0 {
				return false, nil
			}
			type rawDependency struct {
				maven.Dependency

				InnerXML string `xml:",innerxml"`
			}
			var rawDep rawDependency
			if err := dec.DecodeElement(&rawDep, &se); err != nil {
				return false, err
			}
			c := coordinate.New(string(rawDep.GroupID), string(rawDep.ArtifactID))
			if err := writeExclusions(tw, "<dependency>"+rawDep.InnerXML+"</dependency>", parents[c], indent, unit); err != nil {
				return false, fmt.Errorf("updating exclusions of %s: %w", c, err)
			}

			return true, nil
		},
		end: func(ee forkedxml.EndElement, depth int) error {
			if depth != 0 {
				return nil
			}
			for _, d := range direct {
				if err := tw.insert(makeDependency(d), indent, unit); err != nil {
					return err
				}
			}

			return nil
		},
	})
}

// writeExclusions adds children to the exclusions of the dependency element
// in raw, creating the exclusions element when it is missing. depIndent is
// the indentation of the dependency element.
func writeExclusions(tw *tokenWriter, raw string, children []coordinate.Coordinate, depIndent, unit string) error {
	if len(children) == 0 {
		return tw.stream(raw, visitor{})
	}
	childIndent := indentation(raw, "dependency", depIndent+unit)
	hasExclusions := hasChild(raw, "exclusions")

	excl := makeExclusions(children)
	return tw.stream(raw, visitor{
		end: func(ee forkedxml.EndElement, depth int) error {
			switch {
			case hasExclusions && depth == 1 && ee.Name.Local == "exclusions":
				exclIndent := indentation(raw, "exclusions", childIndent+unit)
				for _, e := range excl {
					if err := tw.insert(e, exclIndent, unit); err != nil {
						return err
					}
				}
			case !hasExclusions && depth == 0:
				return tw.insert(exclusions{Exclusions: excl}, childIndent, unit)
			}

			return nil
		},
	})
}

// hasChild reports whether the outermost element in raw has a child element
// named name.
func hasChild(raw, name string) bool {
	dec := forkedxml.NewDecoder(strings.NewReader(raw))
	depth := 0
	for {
		token, err := dec.Token()
		if err != nil {
			return false
		}
		switch tt := token.(type) {
		case forkedxml.StartElement:
			if depth == 1 && tt.Name.Local == name {
				return true
			}
			depth++
		case forkedxml.EndElement:
			depth--
		}
	}
}

func projectStartElement(raw string) string {
	start := strings.Index(raw, "<project")
	if start < 0 {
		return ""
	}
	end := strings.Index(raw[start:], ">")
	if end < 0 {
		return ""
	}

	return raw[start : start+end+1]
}

// indentation returns the indentation of the first child of the first
// <tag> element in raw, or fallback if it cannot be determined.
func indentation(raw, tag, fallback string) string {
	i := strings.Index(raw, "<"+tag+">")
	if i < 0 {
		return fallback
	}

	return leadingIndentation(raw[i+len(tag)+2:], fallback)
}

// leadingIndentation returns the indentation of the first element in raw.
func leadingIndentation(raw, fallback string) string {
	j := strings.Index(raw, "<")
	if j < 0 || strings.HasPrefix(raw[j:], "</") {
		return fallback
	}
	ws := raw[:j]
	k := strings.LastIndex(ws, "\n")
	if k < 0 || strings.TrimSpace(ws) != "" {
		return fallback
	}

	return ws[k+1:]
}
