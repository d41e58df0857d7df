package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raks/aegis/internal/domain"
)

func waitRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for validation run")
	}
}

func TestWatchProject_RerunsOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	runs := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchProject(ctx, root, domain.IgnoreRules{ReportDir: domain.DefaultReportDir}, 20*time.Millisecond, func() {
			runs <- struct{}{}
		})
	}()

	waitRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "App.java"), []byte("class App {}"), 0o644))
	waitRun(t, runs)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchProject_MissingRoot(t *testing.T) {
	err := watchProject(context.Background(), filepath.Join(t.TempDir(), "missing"), domain.IgnoreRules{}, time.Millisecond, func() {})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteWatchReport(t *testing.T) {
	report := &domain.ValidationReport{ProjectName: "orders-api", Passed: []domain.RuleResult{}, Failed: []domain.RuleResult{}}

	tests := []struct {
		name       string
		jsonOutput bool
		failing    bool
		wantOut    string
		wantErr    string
	}{
		{name: "json", jsonOutput: true, wantOut: `"project_name": "orders-api"`},
		{name: "json write fails", jsonOutput: true, failing: true, wantErr: "error: writing report: broken pipe"},
		{name: "text", wantOut: "orders-api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			if tt.failing {
				cmd.SetOut(failingWriter{})
			}
			cmd.SetErr(&errOut)

			writeWatchReport(cmd, report, tt.jsonOutput)

			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, errOut.String(), tt.wantErr)
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}
