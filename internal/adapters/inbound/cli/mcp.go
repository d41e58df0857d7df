package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/raks/aegis/internal/adapters/inbound/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the aegis MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var projectPath, rulesFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start aegis MCP server (stdio)",
		Long:  "Start the aegis MCP server using stdio transport. This lets AI coding assistants validate the project and inspect its rules.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectPath == "" {
				projectPath = "."
			}
			s := mcpadapter.NewAegisMCPServer(projectPath, rulesFile, mcpadapter.Services{
				Validation: newValidationService(nil),
				Rules:      newRuleService(),
			})
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", "", "Project path (defaults to current working directory)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules file")

	return cmd
}
