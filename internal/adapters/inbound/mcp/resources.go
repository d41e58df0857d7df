package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources registers all aegis MCP resources on the given server.
func registerResources(s *server.MCPServer, defaults target, svc Services) {
	// 1. aegis://rules - rules of the served project
	s.AddResource(
		mcplib.NewResource(
			"aegis://rules",
			"Rules",
			mcplib.WithResourceDescription("Rules defined for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		handleRulesResource(defaults, svc),
	)

	// 2. aegis://check-types - registered check kinds
	s.AddResource(
		mcplib.NewResource(
			"aegis://check-types",
			"Check types",
			mcplib.WithResourceDescription("Registered check types and their legacy aliases"),
			mcplib.WithMIMEType("application/json"),
		),
		handleCheckTypesResource(svc),
	)
}

func handleRulesResource(defaults target, svc Services) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		_, rs, err := svc.Rules.Load(defaults.path, defaults.rules)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		return jsonResource("aegis://rules", rs.Rules)
	}
}

func handleCheckTypesResource(svc Services) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		return jsonResource("aegis://check-types", svc.Rules.CheckTypes())
	}
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
