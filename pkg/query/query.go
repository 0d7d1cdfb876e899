// Package query filters spec sets with boolean expressions, used by
// the --where flag across commands.
package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// Filter is one compiled --where expression.
type Filter struct {
	src     string
	program *vm.Program
}

// env builds the per-spec evaluation environment. Fields mirror the
// spec metadata plus a few derived conveniences.
func env(sp *schema.Spec) map[string]any {
	return map[string]any{
		"id":        sp.ID,
		"area":      sp.Area,
		"priority":  string(sp.Priority),
		"owner":     sp.Owner,
		"depends":   sp.DependsOn,
		"scenarios": len(sp.Scenarios),
	}
}

// Compile parses a filter expression, e.g.
//
//	area == "auth" && priority in ["P0", "P1"]
//	scenarios > 3
func Compile(src string) (*Filter, error) {
	program, err := expr.Compile(src, expr.Env(env(&schema.Spec{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	return &Filter{src: src, program: program}, nil
}

// Match evaluates the filter against one spec.
func (f *Filter) Match(sp *schema.Spec) (bool, error) {
	output, err := expr.Run(f.program, env(sp))
	if err != nil {
		return false, fmt.Errorf("eval filter %q: %w", f.src, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q did not return bool (got %T: %v)", f.src, output, output)
	}
	return result, nil
}

// Apply returns the specs the filter selects, preserving order. An
// empty expression selects everything.
func Apply(src string, specs []*schema.Spec) ([]*schema.Spec, error) {
	if src == "" {
		return specs, nil
	}
	f, err := Compile(src)
	if err != nil {
		return nil, err
	}
	var out []*schema.Spec
	for _, sp := range specs {
		ok, err := f.Match(sp)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, sp)
		}
	}
	return out, nil
}
