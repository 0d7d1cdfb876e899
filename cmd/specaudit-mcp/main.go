// Package main provides the specaudit-mcp binary — MCP server for AI
// agents.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	samcp "github.com/caleidos-dev/specaudit/pkg/ecosystem/mcp"
)

var version = "dev"

func main() {
	s := samcp.NewServer(version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
