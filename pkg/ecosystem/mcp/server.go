// Package mcp exposes the audit engine to AI agents over the Model
// Context Protocol. Every tool is read-only: agents can inspect
// coverage and drift but never write reports or verdicts.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with specaudit tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"specaudit",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("specaudit/validate",
			mcp.WithDescription("Validate the spec files of a specaudit project"),
			mcp.WithString("dir", mcp.Required(), mcp.Description("Directory inside the project (specaudit.yaml is discovered upward)")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("specaudit/status",
			mcp.WithDescription("Coverage summary from the latest recorded runs"),
			mcp.WithString("dir", mcp.Required(), mcp.Description("Directory inside the project")),
		),
		HandleStatus,
	)

	s.AddTool(
		mcp.NewTool("specaudit/order",
			mcp.WithDescription("Dependency-resolved execution order for specs"),
			mcp.WithString("dir", mcp.Required(), mcp.Description("Directory inside the project")),
			mcp.WithString("scope", mcp.Description("Area name, comma-separated spec ids, or 'all' (default)")),
		),
		HandleOrder,
	)

	s.AddTool(
		mcp.NewTool("specaudit/audit",
			mcp.WithDescription("Drift report reconciling specs, generated tests, and run results"),
			mcp.WithString("dir", mcp.Required(), mcp.Description("Directory inside the project")),
		),
		HandleAudit,
	)

	s.AddTool(
		mcp.NewTool("specaudit/schema",
			mcp.WithDescription("Export the spec metadata JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
