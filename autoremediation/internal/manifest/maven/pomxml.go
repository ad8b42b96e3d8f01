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

// Package maven provides the manifest Store for the Maven pom.xml format.
package maven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"deps.dev/util/maven"
	"github.com/pomguard/autoremediate/autoremediation/coordinate"
	"github.com/pomguard/autoremediate/autoremediation/internal/manifest"
	"github.com/pomguard/autoremediate/internal/mavenutil"
	"github.com/pomguard/autoremediate/log"
	"go.uber.org/multierr"
)

// BackupSuffix is appended to the pom.xml path to name its backup.
const BackupSuffix = ".orig"

// Store reads and writes the pom.xml at a path on disk.
// It is not safe for concurrent use.
type Store struct {
	path     string
	backup   bool
	backedUp bool
}

var _ manifest.Store = &Store{}

// NewStore returns a Store for the pom.xml at path. If backup is set, the
// original file is copied to path+BackupSuffix before it is first modified.
func NewStore(path string, backup bool) *Store {
	return &Store{path: path, backup: backup}
}

// Load parses the pom.xml. Properties of parent poms found on the local
// file system are included.
func (s *Store) Load(ctx context.Context) (*manifest.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fsys, p, err := rootFS(s.path)
	if err != nil {
		return nil, err
	}
	proj, err := mavenutil.ReadProject(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	props, err := mavenutil.Properties(fsys, p, proj)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties of %s: %w", s.path, err)
	}

	return manifest.NewState(
		makeDependencies(proj.DependencyManagement.Dependencies),
		makeDependencies(proj.Dependencies),
		props,
	), nil
}

// Persist writes the pending changes of st into the pom.xml, keeping the
// rest of the file as it is, and commits them.
func (s *Store) Persist(ctx context.Context, st *manifest.State) error {
	if st == nil {
		return manifest.ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !st.Dirty() {
		return nil
	}

	in, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if s.backup && !s.backedUp {
		if err := writeBackup(s.path+BackupSuffix, in); err != nil {
			return fmt.Errorf("failed to back up %s: %w", s.path, err)
		}
		s.backedUp = true
	}

	changes := st.Changes()
	out := new(bytes.Buffer)
	if err := write(string(in), out, changes); err != nil {
		return fmt.Errorf("failed to update %s: %w", s.path, err)
	}
	if err := writeFileAtomic(s.path, out.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	st.Commit()
	log.Debugf("Wrote %s: %d override(s), %d direct dependency(ies), %d exclusion(s)",
		s.path, len(changes.Overrides), len(changes.Direct), len(changes.Exclusions))

	return nil
}

// rootFS returns a file system rooted at the volume of path, and path
// relative to it, so that local parent poms can be reached.
func rootFS(path string) (fs.FS, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	root := filepath.VolumeName(abs) + string(filepath.Separator)
	rel := filepath.ToSlash(strings.TrimPrefix(abs, root))

	return os.DirFS(root), rel, nil
}

func makeDependencies(deps []maven.Dependency) []manifest.Dependency {
	out := make([]manifest.Dependency, 0, len(deps))
	for _, d := range deps {
		md := manifest.Dependency{
			Coordinate: coordinate.New(string(d.GroupID), string(d.ArtifactID)),
			Version:    string(d.Version),
			Scope:      string(d.Scope),
		}
		for _, e := range d.Exclusions {
			md.Exclusions = append(md.Exclusions, coordinate.New(string(e.GroupID), string(e.ArtifactID)))
		}
		out = append(out, md)
	}

	return out
}

// writeBackup writes data to path unless a backup already exists there.
func writeBackup(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		log.Infof("Keeping existing backup %s", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	_, err = f.Write(data)

	return err
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, keeping the file mode of path.
func writeFileAtomic(path string, data []byte) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp))
		}
	}()

	_, err = f.Write(data)
	if err = multierr.Append(err, f.Close()); err != nil {
		return err
	}
	if err = os.Chmod(tmp, info.Mode().Perm()); err != nil {
		return err
	}
	err = os.Rename(tmp, path)

	return err
}
