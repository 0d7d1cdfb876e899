// Package graph builds the spec dependency graph and resolves a
// deterministic execution order. An edge A → B means "B depends on A":
// A must execute (and pass) first.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// CycleError is the fatal result when the graph admits no topological
// order. No partial order is meaningful, so nothing else is returned
// alongside it.
type CycleError struct {
	// Cycles holds one minimal path per detected cycle, each written
	// with its starting node repeated at the end (A -> B -> A).
	Cycles [][]string
}

func (e *CycleError) Error() string {
	paths := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		paths[i] = strings.Join(c, " -> ")
	}
	return fmt.Sprintf("dependency cycle: %s", strings.Join(paths, "; "))
}

// Resolve produces the execution order for the selected specs.
//
// Selection policy: a dependency that exists in the full set but was
// not selected (the user scoped the run to one area) is assumed already
// satisfied and contributes no edge. A dependency missing from the full
// set entirely is a validation concern, not a resolver one, and is
// likewise skipped here.
//
// Tie-break: among simultaneously eligible specs, priority ascending
// (P0 first), then id lexicographically. Output is reproducible for a
// fixed input set.
func Resolve(full *schema.Set, selected []*schema.Spec) ([]*schema.Spec, error) {
	inSelection := make(map[string]*schema.Spec, len(selected))
	for _, sp := range selected {
		inSelection[sp.ID] = sp
	}

	// In-degree and reverse adjacency over the selected subset only.
	indegree := make(map[string]int, len(selected))
	dependents := make(map[string][]string, len(selected))
	for _, sp := range selected {
		indegree[sp.ID] += 0
		for _, dep := range sp.DependsOn {
			if _, ok := inSelection[dep]; !ok {
				continue // out of scope for this run, or missing: no edge
			}
			indegree[sp.ID]++
			dependents[dep] = append(dependents[dep], sp.ID)
		}
	}

	order := make([]*schema.Spec, 0, len(indegree))
	for len(indegree) > 0 {
		ready := readyNodes(indegree, inSelection)
		if len(ready) == 0 {
			// Everything left has an unsatisfied in-selection
			// dependency: one or more cycles.
			return nil, &CycleError{Cycles: findCycles(indegree, inSelection)}
		}
		next := ready[0]
		order = append(order, inSelection[next])
		delete(indegree, next)
		for _, dep := range dependents[next] {
			if _, still := indegree[dep]; still {
				indegree[dep]--
			}
		}
	}
	return order, nil
}

// readyNodes returns the in-degree-zero ids sorted by the tie-break
// rule: priority rank ascending, then id.
func readyNodes(indegree map[string]int, specs map[string]*schema.Spec) []string {
	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := specs[ready[i]], specs[ready[j]]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.ID < b.ID
	})
	return ready
}

// findCycles extracts one minimal cycle path per strongly connected
// remainder. Every remaining node has at least one remaining dependency,
// so following dependencies from any node must revisit one.
func findCycles(remaining map[string]int, specs map[string]*schema.Spec) [][]string {
	ids := make([]string, 0, len(remaining))
	for id := range remaining {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	claimed := make(map[string]bool)
	var cycles [][]string

	for _, start := range ids {
		if claimed[start] {
			continue
		}
		path := []string{}
		index := map[string]int{}
		cur := start
		for {
			if at, seen := index[cur]; seen {
				cycle := append(append([]string{}, path[at:]...), cur)
				for _, id := range cycle {
					claimed[id] = true
				}
				cycles = append(cycles, cycle)
				break
			}
			index[cur] = len(path)
			path = append(path, cur)
			cur = firstRemainingDep(specs[cur], remaining)
		}
	}
	return cycles
}

// firstRemainingDep picks the lexicographically first dependency still
// in the remainder, keeping reported cycle paths deterministic.
func firstRemainingDep(sp *schema.Spec, remaining map[string]int) string {
	deps := append([]string{}, sp.DependsOn...)
	sort.Strings(deps)
	for _, dep := range deps {
		if _, ok := remaining[dep]; ok {
			return dep
		}
	}
	return "" // unreachable: remaining nodes always have a remaining dep
}

// Select filters the full set down to the requested scope: "all", an
// area label, or an explicit comma-separated id list.
func Select(full *schema.Set, scope string) ([]*schema.Spec, error) {
	switch {
	case scope == "" || scope == "all":
		return full.Specs, nil
	case strings.Contains(scope, ","):
		var out []*schema.Spec
		for _, raw := range strings.Split(scope, ",") {
			sp, ok := full.ByID(raw)
			if !ok {
				return nil, fmt.Errorf("unknown spec id %q", schema.NormalizeID(raw))
			}
			out = append(out, sp)
		}
		return out, nil
	default:
		if sp, ok := full.ByID(scope); ok {
			return []*schema.Spec{sp}, nil
		}
		if specs := full.InArea(scope); len(specs) > 0 {
			return specs, nil
		}
		return nil, fmt.Errorf("%q matches no spec id or area", scope)
	}
}
