package e2e_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raks/aegis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build binary before running tests
	dir, err := os.MkdirTemp("", "aegis-e2e")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(dir, "aegis")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/aegis")
	if out, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(dir)
		panic("build failed: " + string(out))
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func fixturePath(name string) string {
	abs, _ := filepath.Abs(filepath.Join("../../testdata/projects", name))
	return abs
}

func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.Output()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	return string(out), exitCode
}

func cleanReports(t *testing.T, project string) {
	t.Cleanup(func() {
		os.RemoveAll(filepath.Join(project, domain.DefaultReportDir))
	})
}

func TestE2E_ValidateJSON(t *testing.T) {
	project := fixturePath("orders-system-api")
	cleanReports(t, project)

	out, code := run(t, "validate", project, "--json")
	require.Equal(t, 0, code, out)

	var report domain.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, domain.ReportSummary{Total: 8, Passed: 5, Failed: 1, Skipped: 1, NotApplicable: 1}, report.Summary)
	assert.Equal(t, []string{"MULE_API"}, report.ProjectTypes)
	assert.True(t, strings.HasSuffix(report.LinkedRoot, "orders-system-api_config"), report.LinkedRoot)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "MULE-002", report.Failed[0].ID)
	assert.FileExists(t, filepath.Join(project, domain.DefaultReportDir, "report.json"))
}

func TestE2E_ValidateCI(t *testing.T) {
	project := fixturePath("orders-system-api")
	cleanReports(t, project)

	_, code := run(t, "validate", project, "--ci")
	assert.Equal(t, 1, code, "should exit 1 when a rule fails")

	_, code = run(t, "validate", project, "--ci", "--fail-on", "CRITICAL")
	assert.Equal(t, 1, code, "MULE-002 is critical")
}

func TestE2E_ValidateMissingProject(t *testing.T) {
	_, code := run(t, "validate", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 1, code)
}

func TestE2E_RulesList(t *testing.T) {
	out, code := run(t, "rules", "list", fixturePath("orders-system-api"), "--json")
	require.Equal(t, 0, code, out)

	var rules []domain.Rule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	assert.Len(t, rules, 8)
}

func TestE2E_RulesLint(t *testing.T) {
	out, code := run(t, "rules", "lint", fixturePath("orders-system-api"))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "8 rule(s) OK")
}

func TestE2E_Version(t *testing.T) {
	out, code := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "aegis")
}
