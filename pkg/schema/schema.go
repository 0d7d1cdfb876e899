// Package schema defines the Go struct types for QA spec documents
// and provides strict parsing of spec files (YAML front matter plus
// numbered scenario sections).
package schema

import (
	"fmt"
	"strings"
)

// Priority is the ordered severity class of a spec. P0 is the highest
// (data-loss risk), P3 the lowest (edge case). Priority is only ever a
// tie-break, never a correctness gate.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Rank returns the ordering value of a priority (P0=0 … P3=3).
// Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	}
	return 4
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	return p.Rank() < 4
}

// Metadata is the front matter block of a spec file.
type Metadata struct {
	ID        string   `yaml:"id"                   json:"id"                   jsonschema:"required,minLength=1"`
	Area      string   `yaml:"area"                 json:"area"                 jsonschema:"required,minLength=1"`
	Priority  Priority `yaml:"priority"             json:"priority"             jsonschema:"required,enum=P0,enum=P1,enum=P2,enum=P3"`
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Owner     string   `yaml:"owner,omitempty"      json:"owner,omitempty"`
}

// Spec is one parsed specification document. Specs are immutable after
// parsing; every invocation re-reads them from disk.
type Spec struct {
	Metadata

	// Title is the text of the leading H1 heading.
	Title string

	// Scenarios in authoring order. Order is significant: it is the
	// default display and execution order.
	Scenarios []Scenario

	// File is the path the spec was parsed from.
	File string

	// Base is the file name without the spec suffix. Generated test
	// files are associated with a spec by this base name.
	Base string
}

// Scenario is one testable expectation within a Spec. Scenarios are
// owned by their parent spec and never referenced across specs.
type Scenario struct {
	// ID is the section number token, or the explicit `ID:` override
	// when the author provided one. Unique within the parent spec.
	ID string

	// Title is the section heading text.
	Title string

	// Body is the free prose between the heading and the expected line.
	Body string

	// Expected is the observable outcome the scenario is judged against.
	// The judgment itself happens outside this tool.
	Expected string

	// Line is the 1-based line number of the section heading.
	Line int
}

// ScenarioByID returns the scenario with the given identifier, or nil.
func (s *Spec) ScenarioByID(id string) *Scenario {
	for i := range s.Scenarios {
		if s.Scenarios[i].ID == id {
			return &s.Scenarios[i]
		}
	}
	return nil
}

// NormalizeID canonicalizes a spec identifier for use as a join key.
// IDs are case-insensitive everywhere; the canonical form is upper case.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Set is the full collection of parsed specs, indexed by normalized id.
// It is the adjacency source for the resolver and the join table for
// runs and generated tests.
type Set struct {
	Specs []*Spec
	byID  map[string]*Spec
}

// NewSet builds a Set from parsed specs. Duplicate ids keep the first
// occurrence; duplicates are reported by validation, not resolved here.
func NewSet(specs []*Spec) *Set {
	s := &Set{Specs: specs, byID: make(map[string]*Spec, len(specs))}
	for _, sp := range specs {
		key := NormalizeID(sp.ID)
		if _, exists := s.byID[key]; !exists {
			s.byID[key] = sp
		}
	}
	return s
}

// ByID looks up a spec by (case-insensitive) id.
func (s *Set) ByID(id string) (*Spec, bool) {
	sp, ok := s.byID[NormalizeID(id)]
	return sp, ok
}

// Areas returns the distinct area labels in first-seen order.
func (s *Set) Areas() []string {
	seen := make(map[string]bool)
	var areas []string
	for _, sp := range s.Specs {
		if !seen[sp.Area] {
			seen[sp.Area] = true
			areas = append(areas, sp.Area)
		}
	}
	return areas
}

// InArea returns the specs sharing one area value, in load order.
func (s *Set) InArea(area string) []*Spec {
	var out []*Spec
	for _, sp := range s.Specs {
		if strings.EqualFold(sp.Area, area) {
			out = append(out, sp)
		}
	}
	return out
}

func (s *Set) String() string {
	return fmt.Sprintf("Set(%d specs, %d areas)", len(s.Specs), len(s.Areas()))
}
