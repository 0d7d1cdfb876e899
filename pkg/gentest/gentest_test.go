package gentest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

const playwrightSrc = "import { test, expect } from '@playwright/test';\n" +
	"\n" +
	"test.describe('Login flow', () => {\n" +
	"  test('valid credentials sign the user in from the landing page', async ({ page }) => {\n" +
	"    // ...\n" +
	"  });\n" +
	"  it(\"wrong password shows an inline error\", async () => {});\n" +
	"  test(`session expires after timeout`, async () => {});\n" +
	"});\n"

// TestParseNames extracts test(), it(), and describe() names across
// quote styles, without duplicates.
func TestParseNames(t *testing.T) {
	names := ParseNames([]byte(playwrightSrc))
	want := map[string]bool{
		"Login flow": true,
		"valid credentials sign the user in from the landing page": true,
		"wrong password shows an inline error":                     true,
		"session expires after timeout":                            true,
	}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d: %v", len(want), len(names), names)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected name %q", n)
		}
	}
}

// TestCoversSubstringMatching is case-insensitive and substring-based.
func TestCoversSubstringMatching(t *testing.T) {
	tf := &TestFile{Names: ParseNames([]byte(playwrightSrc))}

	if !tf.Covers("Valid credentials sign the user in") {
		t.Error("case-insensitive substring should match")
	}
	if tf.Covers("password reset email arrives") {
		t.Error("unrelated title should not match")
	}
}

// TestBaseNameConvention maps file names back to spec bases.
func TestBaseNameConvention(t *testing.T) {
	cases := map[string]string{
		"auth-login.spec.ts":    "auth-login",
		"auth-login.test.js":    "auth-login",
		"ws-create.spec.tsx":    "ws-create",
		"billing-invoice.py":    "billing-invoice",
		"nested/auth-login.spec.ts": "auth-login",
	}
	for file, want := range cases {
		if got := baseName(file); got != want {
			t.Errorf("baseName(%q): got %q, want %q", file, got, want)
		}
	}
}

// TestIndexOrphans: a test file with no corresponding spec is orphaned.
func TestIndexOrphans(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("auth-login.spec.ts", playwrightSrc)
	write("ghost-feature.spec.ts", "test('never specified', () => {});")

	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ix := NewIndex(files)

	login := &schema.Spec{Metadata: schema.Metadata{ID: "AUTH-LOGIN", Area: "auth", Priority: schema.PriorityP1}, Base: "auth-login"}
	set := schema.NewSet([]*schema.Spec{login})

	if ix.ForSpec(login) == nil {
		t.Error("auth-login should have a matched test file")
	}
	orphans := ix.Orphans(set)
	if len(orphans) != 1 || orphans[0].Base != "ghost-feature" {
		t.Errorf("orphans: got %v", orphans)
	}
}

// TestLoadDirMissingIsEmpty: no tests directory is a valid state.
func TestLoadDirMissingIsEmpty(t *testing.T) {
	files, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}
