package drift

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// ClassificationsName is the reviewer-verdict file kept in the
// reports directory.
const ClassificationsName = "classifications.yaml"

// Category buckets a failing finding. The auditor never picks one of
// the three reviewed categories itself; absent a recorded verdict a
// failure stays pending.
type Category string

const (
	CategoryPending     Category = "pendingReview"
	CategoryAppRegress  Category = "appRegression"
	CategorySpecStale   Category = "specStaleness"
	CategoryTestBrittle Category = "testBrittleness"
)

// Valid reports whether c is a recordable reviewer verdict.
// pendingReview is the absence of a verdict, so it is not recordable.
func (c Category) Valid() bool {
	switch c {
	case CategoryAppRegress, CategorySpecStale, CategoryTestBrittle:
		return true
	}
	return false
}

// Verdict is one reviewer judgment for a failing scenario.
type Verdict struct {
	Category   Category  `yaml:"category"`
	Reviewer   string    `yaml:"reviewer,omitempty"`
	Note       string    `yaml:"note,omitempty"`
	ReviewedAt time.Time `yaml:"reviewed_at"`
}

// Classifications maps "<spec-id>/<scenario-id>" keys to reviewer
// verdicts.
type Classifications map[string]Verdict

// Key builds the lookup key for one scenario's verdict.
func Key(specID, scenarioID string) string {
	return schema.NormalizeID(specID) + "/" + scenarioID
}

// Lookup returns the recorded verdict for a scenario, or a pending
// placeholder when no reviewer has judged it yet.
func (c Classifications) Lookup(specID, scenarioID string) Verdict {
	if v, ok := c[Key(specID, scenarioID)]; ok {
		return v
	}
	return Verdict{Category: CategoryPending}
}

// Record stores a verdict, rejecting categories a reviewer cannot
// assign.
func (c Classifications) Record(specID, scenarioID string, v Verdict) error {
	if !v.Category.Valid() {
		return fmt.Errorf("category %q is not a reviewer verdict", v.Category)
	}
	c[Key(specID, scenarioID)] = v
	return nil
}

// LoadClassifications reads the verdict file from the reports
// directory. A missing file means nothing has been reviewed yet.
func LoadClassifications(reportsDir string) (Classifications, error) {
	path := filepath.Join(reportsDir, ClassificationsName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Classifications{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	out := Classifications{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

// SaveClassifications writes the verdict file atomically so an
// interrupted review never corrupts earlier verdicts.
func SaveClassifications(reportsDir string, c Classifications) error {
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("creating reports directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding classifications: %w", err)
	}
	path := filepath.Join(reportsDir, ClassificationsName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
