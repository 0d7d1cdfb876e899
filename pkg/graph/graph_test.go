package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

func spec(id string, prio schema.Priority, deps ...string) *schema.Spec {
	return &schema.Spec{Metadata: schema.Metadata{
		ID:        id,
		Area:      "core",
		Priority:  prio,
		DependsOn: deps,
	}}
}

func ids(order []*schema.Spec) string {
	parts := make([]string, len(order))
	for i, sp := range order {
		parts[i] = sp.ID
	}
	return strings.Join(parts, ",")
}

// TestResolveChain: A (no deps), B after A, C after A and B ⇒ A,B,C.
func TestResolveChain(t *testing.T) {
	set := schema.NewSet([]*schema.Spec{
		spec("C", schema.PriorityP1, "A", "B"),
		spec("B", schema.PriorityP1, "A"),
		spec("A", schema.PriorityP1),
	})
	order, err := Resolve(set, set.Specs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := ids(order); got != "A,B,C" {
		t.Errorf("order: got %s, want A,B,C", got)
	}
}

// TestResolvePriorityTieBreak orders eligible peers P0-first, then by id.
func TestResolvePriorityTieBreak(t *testing.T) {
	set := schema.NewSet([]*schema.Spec{
		spec("Z-LOW", schema.PriorityP3),
		spec("M-HIGH", schema.PriorityP0),
		spec("B-MID", schema.PriorityP2),
		spec("A-MID", schema.PriorityP2),
	})
	order, err := Resolve(set, set.Specs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := ids(order); got != "M-HIGH,A-MID,B-MID,Z-LOW" {
		t.Errorf("tie-break order: got %s", got)
	}
}

// TestResolveDeterministic: same input ⇒ identical output, repeatedly.
func TestResolveDeterministic(t *testing.T) {
	set := schema.NewSet([]*schema.Spec{
		spec("D", schema.PriorityP2, "B"),
		spec("C", schema.PriorityP2, "A"),
		spec("B", schema.PriorityP1),
		spec("A", schema.PriorityP1),
	})
	first, err := Resolve(set, set.Specs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Resolve(set, set.Specs)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if ids(again) != ids(first) {
			t.Fatalf("nondeterministic order: %s vs %s", ids(again), ids(first))
		}
	}
}

// TestResolveDependenciesComeFirst checks the ordering invariant for a
// denser graph: every dependency appears strictly before its dependent.
func TestResolveDependenciesComeFirst(t *testing.T) {
	set := schema.NewSet([]*schema.Spec{
		spec("E", schema.PriorityP0, "C", "D"),
		spec("D", schema.PriorityP3, "A"),
		spec("C", schema.PriorityP1, "B"),
		spec("B", schema.PriorityP2, "A"),
		spec("A", schema.PriorityP2),
	})
	order, err := Resolve(set, set.Specs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	pos := make(map[string]int)
	for i, sp := range order {
		pos[sp.ID] = i
	}
	for _, sp := range order {
		for _, dep := range sp.DependsOn {
			if pos[dep] >= pos[sp.ID] {
				t.Errorf("%s must come after its dependency %s (order %s)", sp.ID, dep, ids(order))
			}
		}
	}
}

// TestResolveMutualCycle: X and Y depending on each other is fatal and
// the reported path is a valid cycle naming both.
func TestResolveMutualCycle(t *testing.T) {
	set := schema.NewSet([]*schema.Spec{
		spec("X", schema.PriorityP1, "Y"),
		spec("Y", schema.PriorityP1, "X"),
	})
	_, err := Resolve(set, set.Specs)
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	msg := ce.Error()
	if !strings.Contains(msg, "X") || !strings.Contains(msg, "Y") {
		t.Errorf("cycle error should name both ids: %s", msg)
	}
	if len(ce.Cycles) == 0 {
		t.Fatal("expected at least one cycle path")
	}
	// The path closes on its starting node.
	c := ce.Cycles[0]
	if c[0] != c[len(c)-1] {
		t.Errorf("cycle path should close on itself: %v", c)
	}
}

// TestResolveCycleDoesNotDropAcyclicPart: nodes outside the cycle are
// not silently ordered; the whole resolve fails.
func TestResolveCycleDoesNotDropAcyclicPart(t *testing.T) {
	set := schema.NewSet([]*schema.Spec{
		spec("OK", schema.PriorityP0),
		spec("X", schema.PriorityP1, "Y"),
		spec("Y", schema.PriorityP1, "X"),
	})
	if _, err := Resolve(set, set.Specs); err == nil {
		t.Fatal("expected cycle error for graph containing a cycle")
	}
}

// TestResolveSubsetAssumesOutOfScopeDeps: a dependency present in the
// full set but outside the selection is treated as already satisfied.
func TestResolveSubsetAssumesOutOfScopeDeps(t *testing.T) {
	a := spec("A", schema.PriorityP1)
	b := spec("B", schema.PriorityP1, "A")
	set := schema.NewSet([]*schema.Spec{a, b})

	order, err := Resolve(set, []*schema.Spec{b})
	if err != nil {
		t.Fatalf("resolve subset: %v", err)
	}
	if got := ids(order); got != "B" {
		t.Errorf("subset order: got %s, want B", got)
	}
}

// TestSelectScopes covers the all / area / id-list selection forms.
func TestSelectScopes(t *testing.T) {
	a := spec("A", schema.PriorityP1)
	a.Area = "auth"
	b := spec("B", schema.PriorityP1)
	b.Area = "billing"
	set := schema.NewSet([]*schema.Spec{a, b})

	all, err := Select(set, "all")
	if err != nil || len(all) != 2 {
		t.Fatalf("select all: %v (%d)", err, len(all))
	}
	area, err := Select(set, "auth")
	if err != nil || len(area) != 1 || area[0].ID != "A" {
		t.Fatalf("select area: %v", err)
	}
	list, err := Select(set, "a,b")
	if err != nil || len(list) != 2 {
		t.Fatalf("select id list: %v", err)
	}
	if _, err := Select(set, "nope"); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}

// TestDiagramFormats sanity-checks each renderer.
func TestDiagramFormats(t *testing.T) {
	order := []*schema.Spec{spec("A", schema.PriorityP0), spec("B", schema.PriorityP1, "A")}

	mermaid, err := Diagram(order, FormatMermaid)
	if err != nil || !strings.Contains(mermaid, "A --> B") {
		t.Errorf("mermaid output missing edge: %v\n%s", err, mermaid)
	}
	ascii, err := Diagram(order, FormatASCII)
	if err != nil || !strings.Contains(ascii, "A") {
		t.Errorf("ascii output: %v", err)
	}
	list, err := Diagram(order, FormatList)
	if err != nil || !strings.Contains(list, "1. A") {
		t.Errorf("list output: %v\n%s", err, list)
	}
	if _, err := Diagram(order, Format("dot")); err == nil {
		t.Error("expected error for unsupported format")
	}
}
