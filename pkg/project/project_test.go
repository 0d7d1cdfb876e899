package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestDiscoverWalksAncestors finds the manifest from a nested directory.
func TestDiscoverWalksAncestors(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "qa", "specs", "auth")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := "name: webapp-qa\npaths:\n  specs: qa/specs\n"
	if err := os.WriteFile(filepath.Join(root, ManifestName), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if p.Name != "webapp-qa" {
		t.Errorf("name: got %q", p.Name)
	}
	if got, want := p.SpecsDir(), filepath.Join(p.Root, "qa", "specs"); got != want {
		t.Errorf("specs dir: got %q, want %q", got, want)
	}
	// Unset paths fall back to convention directories.
	if got, want := p.RunsDir(), filepath.Join(p.Root, "runs"); got != want {
		t.Errorf("runs dir: got %q, want %q", got, want)
	}
}

// TestDiscoverMissingManifestIsFatal returns ErrNotFound, not a default.
func TestDiscoverMissingManifestIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestLoadFileRejectsUnknownKeys enforces strict decoding.
func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte("name: x\nspec_dir: specs\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unknown manifest key")
	}
}

// TestInitRefusesOverwrite keeps an existing manifest intact.
func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := Init(dir); err == nil {
		t.Fatal("expected error on second init")
	}

	p, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover after init: %v", err)
	}
	if p.Name == "" {
		t.Error("starter manifest should carry a project name")
	}
}
