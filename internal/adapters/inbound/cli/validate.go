package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/raks/aegis/internal/adapters/outbound/history"
	"github.com/raks/aegis/internal/adapters/outbound/metrics"
	"github.com/raks/aegis/internal/adapters/outbound/tui"
	"github.com/raks/aegis/internal/application"
	"github.com/raks/aegis/internal/domain"
)

// ReportFile is the report written after every validate run.
const ReportFile = "report.json"

func newValidateCmd() *cobra.Command {
	var (
		rulesFile   string
		linked      string
		jsonOutput  bool
		ciMode      bool
		outputDir   string
		metricsFile string
		saveHistory bool
		failOn      string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a project against its rules",
		Long: "Evaluate every rule of the rules file against the project and print the report. " +
			"The report is also written as JSON to the project's report directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if failOn != "" && !domain.IsSeverity(failOn) {
				return fmt.Errorf("invalid --fail-on %q (valid: INFO, LOW, MEDIUM, HIGH, CRITICAL)", failOn)
			}

			var recorder *metrics.Recorder
			if metricsFile != "" {
				recorder = metrics.NewRecorder(nil)
			}
			svc := newValidationService(recorderOrNil(recorder))

			req, err := svc.Prepare(projectPath(args), rulesFile, linked)
			if err != nil {
				return err
			}
			if outputDir != "" {
				excludeOutputDir(&req, outputDir)
			}
			report, err := svc.Validate(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			// 1. Persist the report, metrics and history
			dir := outputDir
			if dir == "" {
				dir = filepath.Join(report.ProjectPath, req.Config.EffectiveReportDir())
			}
			if err := writeReport(dir, report); err != nil {
				return err
			}
			if recorder != nil {
				if err := recorder.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}
			if saveHistory {
				hist := application.NewHistoryService(history.New(req.Config.EffectiveReportDir()))
				if _, err := hist.Record(report); err != nil {
					log.Warn().Err(err).Msg("recording history")
				}
			}

			// 2. Render
			if jsonOutput {
				if err := renderJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderValidationReport(report, verbose))
			}

			// 3. CI verdict
			if ciMode {
				if failOn == "" && report.HasFailures() {
					return fmt.Errorf("%d rule(s) failed", len(report.Failed))
				}
				if failOn != "" && report.FailuresAtOrAbove(failOn) {
					return fmt.Errorf("rule(s) at or above %s failed", strings.ToUpper(failOn))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules file (default: rules_file from .aegis.yaml, then aegis-rules.yaml)")
	cmd.Flags().StringVar(&linked, "linked-config", "", "Linked configuration project root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output report as JSON")
	cmd.Flags().BoolVar(&ciMode, "ci", false, "CI mode: exit 1 if rules fail")
	cmd.Flags().StringVar(&outputDir, "output", "", "Directory for report.json (default: <project>/<report_dir>)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&saveHistory, "save-history", false, "Record this run in the project history")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "With --ci, fail only on rules at or above this severity")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details for passed rules too")

	return cmd
}

// excludeOutputDir keeps a report directory under the project root out of
// the scan so earlier reports are not validated.
func excludeOutputDir(req *application.ValidationRequest, dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return
	}
	rel, err := filepath.Rel(req.ProjectPath, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	req.Config.IgnoredFiles.Dirs = append(req.Config.IgnoredFiles.Dirs, filepath.ToSlash(rel))
}

// recorderOrNil keeps a nil *metrics.Recorder from becoming a non-nil interface.
func recorderOrNil(r *metrics.Recorder) domain.ValidationRecorder {
	if r == nil {
		return nil
	}
	return r
}

func writeReport(dir string, report *domain.ValidationReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ReportFile), data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
