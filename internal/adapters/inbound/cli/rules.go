package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raks/aegis/internal/adapters/outbound/tui"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rule files",
	}
	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesLintCmd())
	cmd.AddCommand(newRulesTypesCmd())
	return cmd
}

func newRulesListCmd() *cobra.Command {
	var (
		rulesFile  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List the rules in a project's rule file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rs, err := newRuleService().Load(projectPath(args), rulesFile)
			if err != nil {
				return err
			}
			if jsonOutput {
				return renderJSON(cmd, rs.Rules)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRuleList(rs.Rules))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output rules as JSON")
	return cmd
}

func newRulesLintCmd() *cobra.Command {
	var (
		rulesFile  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "lint [path]",
		Short: "Build every check without running it and report configuration problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newRuleService()
			_, rs, err := svc.Load(projectPath(args), rulesFile)
			if err != nil {
				return err
			}
			issues := svc.Lint(rs.Rules)

			if jsonOutput {
				if err := renderJSON(cmd, issues); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, is := range issues {
					fmt.Fprintf(out, "%s check #%d (%s): %s\n", is.RuleID, is.Index+1, is.Check, is.Error)
				}
				if len(issues) == 0 {
					fmt.Fprintf(out, "%d rule(s) OK\n", len(rs.Rules))
				}
			}

			if len(issues) > 0 {
				return fmt.Errorf("%d check(s) have configuration problems", len(issues))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output issues as JSON")
	return cmd
}

func newRulesTypesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the registered check types and their legacy aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := newRuleService().CheckTypes()
			if jsonOutput {
				return renderJSON(cmd, types)
			}
			kinds := make([]string, 0, len(types))
			aliases := make(map[string]string)
			for _, ct := range types {
				kinds = append(kinds, ct.Kind)
				for _, a := range ct.Aliases {
					aliases[a] = ct.Kind
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderCheckTypes(kinds, aliases))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output check types as JSON")
	return cmd
}
