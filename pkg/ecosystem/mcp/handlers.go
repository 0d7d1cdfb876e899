package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caleidos-dev/specaudit/pkg/coverage"
	"github.com/caleidos-dev/specaudit/pkg/drift"
	"github.com/caleidos-dev/specaudit/pkg/gentest"
	"github.com/caleidos-dev/specaudit/pkg/graph"
	"github.com/caleidos-dev/specaudit/pkg/project"
	"github.com/caleidos-dev/specaudit/pkg/runs"
	"github.com/caleidos-dev/specaudit/pkg/schema"
)

// loadSet discovers the project from dir and loads its spec set.
func loadSet(dir string) (*project.Project, *schema.Set, []*schema.ValidationError, error) {
	proj, err := project.Discover(dir)
	if err != nil {
		return nil, nil, nil, err
	}
	set, diags, err := schema.LoadDir(proj.SpecsDir())
	if err != nil {
		return nil, nil, nil, err
	}
	return proj, set, diags, nil
}

// HandleValidate implements the specaudit/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, _ := req.GetArguments()["dir"].(string)
	if dir == "" {
		return errorResult("dir argument is required"), nil
	}

	_, set, diags, err := loadSet(dir)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if hasErrors(diags) {
		return errorResult(formatErrors(diags)), nil
	}
	warnings := len(diags)
	return textResult(fmt.Sprintf("✓ %d specs valid (%d warnings)", len(set.Specs), warnings)), nil
}

// HandleStatus implements the specaudit/status MCP tool.
func HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, _ := req.GetArguments()["dir"].(string)
	if dir == "" {
		return errorResult("dir argument is required"), nil
	}

	proj, set, diags, err := loadSet(dir)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if hasErrors(diags) {
		return errorResult(formatErrors(diags)), nil
	}

	hist, _, err := runs.Load(proj.RunsDir())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	sum := coverage.FromRuns(set, hist.LatestBySpec())

	specs := make([]map[string]any, 0, len(sum.Specs))
	for _, sc := range sum.Specs {
		specs = append(specs, map[string]any{
			"id":          sc.Spec.ID,
			"area":        sc.Spec.Area,
			"priority":    string(sc.Spec.Priority),
			"ratio":       sc.Ratio,
			"neverTested": sc.NeverTested,
			"noData":      sc.NoData,
			"failing":     sc.FailedScenarios,
		})
	}
	response := map[string]any{
		"overall": map[string]any{
			"ratio":       sum.Overall.Ratio,
			"specs":       sum.Overall.SpecCount,
			"neverTested": sum.Overall.NeverTested,
			"noData":      sum.Overall.NoData,
		},
		"specs": specs,
	}
	data, _ := json.MarshalIndent(response, "", "  ")
	return textResult(string(data)), nil
}

// HandleOrder implements the specaudit/order MCP tool.
func HandleOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	dir, _ := args["dir"].(string)
	if dir == "" {
		return errorResult("dir argument is required"), nil
	}
	scope, _ := args["scope"].(string)

	_, set, diags, err := loadSet(dir)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if hasErrors(diags) {
		return errorResult(formatErrors(diags)), nil
	}

	selected, err := graph.Select(set, scope)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	order, err := graph.Resolve(set, selected)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	ids := make([]string, len(order))
	for i, sp := range order {
		ids[i] = sp.ID
	}
	data, _ := json.MarshalIndent(map[string]any{"order": ids}, "", "  ")
	return textResult(string(data)), nil
}

// HandleAudit implements the specaudit/audit MCP tool. The result is
// flagged as an error when any finding is still pending review, so an
// agent sees unreviewed drift the way a CI gate would.
func HandleAudit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, _ := req.GetArguments()["dir"].(string)
	if dir == "" {
		return errorResult("dir argument is required"), nil
	}

	proj, set, diags, err := loadSet(dir)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if hasErrors(diags) {
		return errorResult(formatErrors(diags)), nil
	}

	hist, _, err := runs.Load(proj.RunsDir())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	tests, err := gentest.LoadDir(proj.TestsDir())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	verdicts, err := drift.LoadClassifications(proj.ReportsDir())
	if err != nil {
		return errorResult(err.Error()), nil
	}

	rep := drift.Audit(set, gentest.NewIndex(tests), hist, verdicts)

	failing := make([]map[string]any, 0, len(rep.Failing))
	for _, f := range rep.Failing {
		failing = append(failing, map[string]any{
			"spec":           f.SpecID,
			"scenario":       f.ScenarioID,
			"expected":       f.Expected,
			"note":           f.RunNote,
			"classification": string(f.Verdict.Category),
		})
	}
	uncovered := make([]string, 0, len(rep.Uncovered))
	for _, u := range rep.Uncovered {
		uncovered = append(uncovered, u.SpecID+"/"+u.ScenarioID)
	}
	orphanTests := make([]string, 0, len(rep.OrphanTests))
	for _, tf := range rep.OrphanTests {
		orphanTests = append(orphanTests, tf.File)
	}
	response := map[string]any{
		"uncovered":     uncovered,
		"orphanTests":   orphanTests,
		"orphanRuns":    rep.OrphanRunSpecs,
		"neverTested":   rep.NeverTested,
		"failing":       failing,
		"pendingReview": rep.Pending(),
	}
	data, _ := json.MarshalIndent(response, "", "  ")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: rep.Pending() > 0,
	}, nil
}

// HandleSchema implements the specaudit/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GenerateSpecJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func hasErrors(errs []*schema.ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

func formatErrors(errs []*schema.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Phase, e.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
