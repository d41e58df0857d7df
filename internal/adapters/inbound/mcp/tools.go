package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerTools registers all aegis MCP tools on the given server.
func registerTools(s *server.MCPServer, defaults target, svc Services) {
	// 1. aegis_validate
	s.AddTool(
		mcplib.NewTool("aegis_validate",
			mcplib.WithDescription("Validates the project against its rules and returns the full report as JSON"),
			mcplib.WithString("path", mcplib.Description("Project root (defaults to the server's project)")),
			mcplib.WithString("rules", mcplib.Description("Rules file (defaults to .aegis.yaml rules_file, then aegis-rules.yaml)")),
		),
		handleValidate(defaults, svc),
	)

	// 2. aegis_list_rules
	s.AddTool(
		mcplib.NewTool("aegis_list_rules",
			mcplib.WithDescription("Returns the rules defined for the project as JSON"),
			mcplib.WithString("path", mcplib.Description("Project root (defaults to the server's project)")),
			mcplib.WithString("rules", mcplib.Description("Rules file")),
		),
		handleListRules(defaults, svc),
	)

	// 3. aegis_list_check_types
	s.AddTool(
		mcplib.NewTool("aegis_list_check_types",
			mcplib.WithDescription("Returns the registered check types and the legacy type names mapped onto each"),
		),
		handleListCheckTypes(svc),
	)

	// 4. aegis_explain_check
	s.AddTool(
		mcplib.NewTool("aegis_explain_check",
			mcplib.WithDescription("Resolves a declared check type name, including legacy and class-style names, to its registered type"),
			mcplib.WithString("type",
				mcplib.Required(),
				mcplib.Description("Check type as written in a rules file, e.g. TokenSearchCheck or XML_XPATH_EXISTS"),
			),
		),
		handleExplainCheck(svc),
	)
}

func handleValidate(defaults target, svc Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		t := defaults.with(request.GetArguments())
		report, err := svc.Validation.ValidateProject(ctx, t.path, t.rules, "")
		if err != nil {
			return errorResult(fmt.Sprintf("validation failed: %v", err)), nil
		}
		return jsonResult(report)
	}
}

func handleListRules(defaults target, svc Services) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		t := defaults.with(request.GetArguments())
		_, rs, err := svc.Rules.Load(t.path, t.rules)
		if err != nil {
			return errorResult(fmt.Sprintf("loading rules failed: %v", err)), nil
		}
		return jsonResult(rs.Rules)
	}
}

func handleListCheckTypes(svc Services) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return jsonResult(svc.Rules.CheckTypes())
	}
}

func handleExplainCheck(svc Services) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		typ, err := request.RequireString("type")
		if err != nil {
			return errorResult("type parameter is required"), nil
		}
		ct, ok := svc.Rules.Resolve(typ)
		if !ok {
			return errorResult(fmt.Sprintf("unknown check type: %s", typ)), nil
		}
		return jsonResult(map[string]any{"declared": typ, "kind": ct.Kind, "aliases": ct.Aliases})
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
