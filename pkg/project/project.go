// Package project loads the specaudit.yaml manifest — the single
// configuration surface resolving the spec, run-history, generated-test
// and report directories. The manifest is discovered by walking up from
// the invocation directory; there is no implicit default project.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file looked up in the invocation directory and
// its ancestors.
const ManifestName = "specaudit.yaml"

// ErrNotFound is returned when no manifest exists anywhere up the tree.
// Callers should tell the user to run `specaudit init`.
var ErrNotFound = errors.New("no " + ManifestName + " found in this directory or any parent")

// Project is a parsed manifest plus its resolved root directory.
type Project struct {
	Name  string `yaml:"name"`
	Paths Paths  `yaml:"paths,omitempty"`

	// Root is the absolute path of the directory containing the
	// manifest. Set by loading, not from YAML.
	Root string `yaml:"-"`
}

// Paths overrides the convention directories. All are relative to Root
// unless absolute.
type Paths struct {
	Specs   string `yaml:"specs,omitempty"`
	Runs    string `yaml:"runs,omitempty"`
	Tests   string `yaml:"tests,omitempty"`
	Reports string `yaml:"reports,omitempty"`
}

func (p *Project) dir(override, def string) string {
	d := def
	if override != "" {
		d = override
	}
	if filepath.IsAbs(d) {
		return d
	}
	return filepath.Join(p.Root, d)
}

// SpecsDir returns the absolute spec directory (default "specs").
func (p *Project) SpecsDir() string { return p.dir(p.Paths.Specs, "specs") }

// RunsDir returns the absolute run-history directory (default "runs").
func (p *Project) RunsDir() string { return p.dir(p.Paths.Runs, "runs") }

// TestsDir returns the absolute generated-test directory (default "tests").
func (p *Project) TestsDir() string { return p.dir(p.Paths.Tests, "tests") }

// ReportsDir returns the absolute reports directory (default "reports").
func (p *Project) ReportsDir() string { return p.dir(p.Paths.Reports, "reports") }

// LoadFile reads and parses a manifest with strict unknown-field
// rejection.
func LoadFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p Project
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%s: name is required", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p.Root = filepath.Dir(abs)
	return &p, nil
}

// Discover walks up from startPath to the filesystem root looking for
// the manifest. A missing manifest is a hard error (ErrNotFound), never
// a silent default: every command except init refuses to guess paths.
func Discover(startPath string) (*Project, error) {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFile(candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotFound
		}
		dir = parent
	}
}

// starterManifest is what `specaudit init` writes.
const starterManifest = `# specaudit project manifest
name: %s
paths:
  specs: specs
  runs: runs
  tests: tests
  reports: reports
`

// Init writes a starter manifest into dir. It refuses to overwrite an
// existing one.
func Init(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}

	content := fmt.Sprintf(starterManifest, filepath.Base(abs))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
