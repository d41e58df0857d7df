package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/raks/aegis/internal/adapters/outbound/tui"
	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

const watchDebounce = 300 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var (
		rulesFile  string
		linked     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-validate the project whenever its files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := newValidationService(nil)
			req, err := svc.Prepare(projectPath(args), rulesFile, linked)
			if err != nil {
				return err
			}

			run := func() {
				// Rules and config are reloaded so edits to them take effect.
				next, err := svc.Prepare(req.ProjectPath, rulesFile, linked)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					return
				}
				report, err := svc.Validate(ctx, next)
				if err != nil {
					if ctx.Err() == nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					}
					return
				}
				writeWatchReport(cmd, report, jsonOutput)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", req.ProjectPath)
			return watchProject(ctx, req.ProjectPath, req.Config.IgnoreRules(), watchDebounce, run)
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rules file")
	cmd.Flags().StringVar(&linked, "linked-config", "", "Linked configuration project root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output each report as JSON")
	return cmd
}

// writeWatchReport prints one report. A failed write is reported on stderr
// and the watch keeps running.
func writeWatchReport(cmd *cobra.Command, report *domain.ValidationReport, jsonOutput bool) {
	if !jsonOutput {
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderValidationReport(report, false))
		return
	}
	if err := renderJSON(cmd, report); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: writing report: %v\n", err)
	}
}

// watchProject calls run once, then again after every burst of changes under
// root settles for debounce. It returns when ctx is done.
func watchProject(ctx context.Context, root string, ignore domain.IgnoreRules, debounce time.Duration, run func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := addWatchRecursive(w, root, ignore); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	run()

	var timer *time.Timer
	trigger := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if rel, err := filepath.Rel(root, ev.Name); err == nil && eval.ShouldIgnoreRel(filepath.ToSlash(rel), ignore) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(w, ev.Name, ignore); err != nil {
						log.Warn().Err(err).Str("dir", ev.Name).Msg("watching new directory")
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			run()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root string, ignore domain.IgnoreRules) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && eval.IsSkippedDir(d.Name(), ignore) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
