package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/raks/aegis/internal/application"
)

// Services are the application services the MCP tools call into.
type Services struct {
	Validation *application.ValidationService
	Rules      *application.RuleService
}

// NewAegisMCPServer creates an MCP server with the aegis tools and resources
// registered. projectPath and rulesFile are the defaults for tool calls that
// do not name their own.
func NewAegisMCPServer(projectPath, rulesFile string, svc Services) *server.MCPServer {
	s := server.NewMCPServer(
		"aegis",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	defaults := target{path: projectPath, rules: rulesFile}
	registerTools(s, defaults, svc)
	registerResources(s, defaults, svc)

	return s
}

// target is the project and rules file a call operates on.
type target struct {
	path  string
	rules string
}

func (t target) with(args map[string]any) target {
	if p, ok := args["path"].(string); ok && p != "" {
		t.path = p
	}
	if r, ok := args["rules"].(string); ok && r != "" {
		t.rules = r
	}
	return t
}
