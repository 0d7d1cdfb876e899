package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is a single diagnostic with location context.
// Severity "warning" is advisory; only "error" should make a caller
// exit non-zero.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain, set
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Path     string `json:"path,omitempty"` // location within the document
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if loc != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Phase, loc, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
}

func errorf(phase, file string, line int, msg string, args ...any) *ValidationError {
	return &ValidationError{Phase: phase, File: file, Line: line, Message: fmt.Sprintf(msg, args...), Severity: "error"}
}

func warningf(phase, file string, line int, msg string, args ...any) *ValidationError {
	return &ValidationError{Phase: phase, File: file, Line: line, Message: fmt.Sprintf(msg, args...), Severity: "warning"}
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// ValidateFile runs the full per-file pipeline on one spec file.
// Phase 1: structural (front matter fences, strict YAML decode)
// Phase 2: semantic (JSON Schema over the metadata block)
// Phase 3: domain (scenario-level rules)
func ValidateFile(path string) (*Spec, []*ValidationError) {
	sp, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", path, 0, "%s", err)}
	}

	var errs []*ValidationError
	errs = append(errs, validateSemantic(sp)...)
	errs = append(errs, validateDomain(sp)...)
	return sp, errs
}

// metadataSchema compiles the generated JSON Schema once per process.
var metadataSchema = sync.OnceValues(func() (*sjsonschema.Schema, error) {
	schemaJSON, err := GenerateSpecJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("generate schema: %w", err)
	}
	doc, err := sjsonschema.UnmarshalJSON(strings.NewReader(string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("spec-metadata.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile("spec-metadata.json")
})

// validateSemantic checks the metadata block against the generated
// JSON Schema (required fields, priority enum).
func validateSemantic(sp *Spec) []*ValidationError {
	sch, err := metadataSchema()
	if err != nil {
		return []*ValidationError{errorf("semantic", sp.File, 0, "%s", err)}
	}

	data, err := json.Marshal(sp.Metadata)
	if err != nil {
		return []*ValidationError{errorf("semantic", sp.File, 0, "marshal metadata: %s", err)}
	}
	doc, err := sjsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return []*ValidationError{errorf("semantic", sp.File, 0, "unmarshal metadata: %s", err)}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				e := errorf("semantic", sp.File, 0, "%v", cause.ErrorKind)
				e.Path = strings.Join(cause.InstanceLocation, "/")
				errs = append(errs, e)
			}
		} else {
			errs = append(errs, errorf("semantic", sp.File, 0, "%s", err))
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf causes.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// validateDomain applies per-file rules that the schema cannot express.
// Rules are reported independently, never short-circuited.
func validateDomain(sp *Spec) []*ValidationError {
	var errs []*ValidationError
	file := sp.File

	if len(sp.Scenarios) == 0 {
		errs = append(errs, errorf("domain", file, 0, "spec %q has no scenarios", sp.ID))
	}

	seen := make(map[string]int)
	for _, sc := range sp.Scenarios {
		if prevLine, dup := seen[sc.ID]; dup {
			errs = append(errs, errorf("domain", file, sc.Line,
				"duplicate scenario id %q (first at line %d)", sc.ID, prevLine))
		} else {
			seen[sc.ID] = sc.Line
		}
		if sc.Expected == "" {
			errs = append(errs, errorf("domain", file, sc.Line,
				"scenario %q is missing its Expected: clause", sc.ID))
		}
		if sc.Title == "" {
			errs = append(errs, errorf("domain", file, sc.Line,
				"scenario %q has an empty title", sc.ID))
		}
	}

	for _, dep := range sp.DependsOn {
		if dep == sp.ID {
			errs = append(errs, errorf("domain", file, 0,
				"spec %q depends on itself", sp.ID))
		}
	}

	return errs
}

// ValidateSet applies cross-file referential rules over the whole spec
// set: id uniqueness and dependency resolution.
func ValidateSet(specs []*Spec) []*ValidationError {
	var errs []*ValidationError

	firstFile := make(map[string]string)
	for _, sp := range specs {
		if prev, dup := firstFile[sp.ID]; dup {
			errs = append(errs, errorf("set", sp.File, 0,
				"duplicate spec id %q (already defined in %s)", sp.ID, prev))
			continue
		}
		firstFile[sp.ID] = sp.File
	}

	for _, sp := range specs {
		for _, dep := range sp.DependsOn {
			if _, ok := firstFile[dep]; !ok {
				errs = append(errs, errorf("set", sp.File, 0,
					"spec %q depends on %q which does not exist in the spec set", sp.ID, dep))
			}
		}
	}

	return errs
}

// LoadDir parses and validates every spec file under dir. A malformed
// file contributes diagnostics but never aborts the scan: the failure
// is isolated to that file and the rest of the set still loads.
func LoadDir(dir string) (*Set, []*ValidationError, error) {
	files, err := DiscoverFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	var specs []*Spec
	var errs []*ValidationError
	for _, f := range files {
		sp, fileErrs := ValidateFile(f)
		errs = append(errs, fileErrs...)
		if sp != nil {
			specs = append(specs, sp)
		}
	}

	errs = append(errs, ValidateSet(specs)...)
	return NewSet(specs), errs, nil
}
