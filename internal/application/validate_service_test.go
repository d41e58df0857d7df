package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/raks/aegis/internal/adapters/outbound/config"
	"github.com/raks/aegis/internal/adapters/outbound/gitinfo"
	"github.com/raks/aegis/internal/adapters/outbound/jsonpath"
	"github.com/raks/aegis/internal/adapters/outbound/properties"
	"github.com/raks/aegis/internal/adapters/outbound/rules"
	"github.com/raks/aegis/internal/adapters/outbound/scanner"
	"github.com/raks/aegis/internal/adapters/outbound/xpath"
	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/check"
)

const projectRules = `
config:
  labels:
    FAIL: BLOCKER
  projectTypes:
    MULE:
      detectionCriteria:
        markerFiles: [mule-artifact.json]
rules:
  - id: R1
    name: No TODO markers
    severity: HIGH
    checks:
      - type: TOKEN_SEARCH
        description: todo markers
        params:
          filePatterns: ["**/*.java"]
          tokens: [TODO]
          mode: FORBIDDEN
          environments: [dev]
  - id: R2
    name: Readme present
    appliesTo: [mule]
    checks:
      - type: FILE_EXISTS
        params:
          filePatterns: [README.md]
  - id: R3
    name: Disabled
    enabled: false
    checks:
      - type: FILE_EXISTS
        params:
          filePatterns: [README.md]
  - id: R4
    name: Python only
    appliesTo: [PYTHON]
    checks:
      - type: FILE_EXISTS
        params:
          filePatterns: [setup.py]
  - id: R5
    name: Broken checks
    checks:
      - type: NO_SUCH_CHECK
      - type: TOKEN_SEARCH
        params:
          filePatterns: ["**/*.java"]
          tokens: [x]
          matchCount: many
`

type recorded struct {
	checks []string
	rules  []string
	files  int
}

func (r *recorded) ObserveCheck(kind string, passed bool, _ time.Duration) {
	r.checks = append(r.checks, kind)
}
func (r *recorded) ObserveRule(severity string, passed bool) { r.rules = append(r.rules, severity) }
func (r *recorded) ObserveFilesScanned(n int)                { r.files += n }

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "orders-api")
	writeProjectFile(t, root, "mule-artifact.json", `{"minMuleVersion": "4.4.0"}`)
	writeProjectFile(t, root, "README.md", "# orders")
	writeProjectFile(t, root, "src/main/java/App.java", "class App { // TODO remove\n}")
	writeProjectFile(t, root, domain.DefaultRulesFile, projectRules)
	return root
}

func newValidationService(rec domain.ValidationRecorder) *ValidationService {
	return newValidationServiceWith(rec, nil)
}

func newValidationServiceWith(rec domain.ValidationRecorder, factory *check.Factory) *ValidationService {
	sc := scanner.New()
	svc := NewValidationService(ValidationDeps{
		Scanner: sc,
		Linked:  sc,
		Backends: check.Backends{
			XML:        xpath.New(),
			JSON:       jsonpath.New(),
			Properties: properties.New(),
			POM:        xpath.NewPOMReader(),
		},
		Configs:  config.New(),
		Rules:    rules.New(),
		Git:      gitinfo.New(),
		Recorder: rec,
		Factory:  factory,
		Logger:   zerolog.Nop(),
	})
	svc.newID = func() string { return "run-1" }
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestValidateProject(t *testing.T) {
	root := newProject(t)
	rec := &recorded{}
	svc := newValidationService(rec)

	report, err := svc.ValidateProject(context.Background(), root, "", "")
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "orders-api", report.ProjectName)
	assert.Equal(t, []string{"MULE"}, report.ProjectTypes)
	assert.Equal(t, "BLOCKER", report.Label(domain.LabelFail))
	assert.Equal(t, "PASS", report.Label(domain.LabelPass))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), report.Timestamp)

	assert.Equal(t, domain.ReportSummary{Total: 5, Passed: 1, Failed: 2, Skipped: 1, NotApplicable: 1}, report.Summary)
	assert.Equal(t, []string{"R3: Disabled"}, report.Skipped)
	assert.Equal(t, []string{"R4: Python only"}, report.NotApplicable)

	require.Len(t, report.Passed, 1)
	assert.Equal(t, "R2", report.Passed[0].ID)

	require.Len(t, report.Failed, 2)
	r1 := report.Failed[0]
	assert.Equal(t, "R1", r1.ID)
	assert.Equal(t, "HIGH", r1.Severity)
	assert.Equal(t, domain.ScopeGlobal, r1.Scope)
	require.Len(t, r1.Checks, 1)
	assert.Equal(t, "R1", r1.Checks[0].RuleID)
	assert.Equal(t, "src/main/java/App.java", r1.Checks[0].CheckedFiles)

	r5 := report.Failed[1]
	require.Len(t, r5.Checks, 2)
	assert.Equal(t, "Execution error: unknown check type: NO_SUCH_CHECK", r5.Checks[0].Message)
	assert.True(t, strings.HasPrefix(r5.Checks[1].Message, "Configuration error: "), r5.Checks[1].Message)

	assert.Equal(t, []string{"TOKEN_SEARCH", "FILE_EXISTS", "NO_SUCH_CHECK", "TOKEN_SEARCH"}, rec.checks)
	assert.Equal(t, []string{"HIGH", "MEDIUM", "MEDIUM"}, rec.rules)
	assert.Equal(t, 4, rec.files)
}

func TestValidate_DisabledRulesFromConfig(t *testing.T) {
	root := newProject(t)
	writeProjectFile(t, root, config.FileName, "disabled_rules: [R1, R5]\n")

	report, err := newValidationService(nil).ValidateProject(context.Background(), root, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"R1: No TODO markers", "R3: Disabled", "R5: Broken checks"}, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.False(t, report.HasFailures())
}

func TestValidate_DeclaredProjectTypes(t *testing.T) {
	root := newProject(t)
	writeProjectFile(t, root, config.FileName, "project_types: [PYTHON]\n")

	report, err := newValidationService(nil).ValidateProject(context.Background(), root, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"MULE", "PYTHON"}, report.ProjectTypes)
	assert.Empty(t, report.NotApplicable)
}

func TestValidate_MissingRoot(t *testing.T) {
	svc := newValidationService(nil)
	_, err := svc.Validate(context.Background(), ValidationRequest{ProjectPath: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, domain.ErrProjectRootMissing)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = svc.ValidateProject(context.Background(), file, "", "")
	assert.ErrorIs(t, err, domain.ErrProjectRootMissing)
}

func TestValidate_MissingRulesFile(t *testing.T) {
	_, err := newValidationService(nil).ValidateProject(context.Background(), t.TempDir(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading rules")
}

func TestValidate_CancelledContext(t *testing.T) {
	root := newProject(t)
	svc := newValidationService(nil)
	req, err := svc.Prepare(root, "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Validate(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_LinkedRoot(t *testing.T) {
	root := newProject(t)
	sibling := filepath.Join(filepath.Dir(root), "Orders-API_config")
	writeProjectFile(t, sibling, "src/main/resources/dev.properties", "db.user=svc\n")
	svc := newValidationService(nil)

	t.Run("discovered", func(t *testing.T) {
		report, err := svc.ValidateProject(context.Background(), root, "", "")
		require.NoError(t, err)
		assert.Equal(t, sibling, report.LinkedRoot)
	})

	t.Run("explicit wins", func(t *testing.T) {
		other := t.TempDir()
		report, err := svc.ValidateProject(context.Background(), root, "", other)
		require.NoError(t, err)
		assert.Equal(t, other, report.LinkedRoot)
	})

	t.Run("discovery disabled", func(t *testing.T) {
		writeProjectFile(t, root, config.FileName, "discover_linked_config: false\n")
		defer os.Remove(filepath.Join(root, config.FileName))
		report, err := svc.ValidateProject(context.Background(), root, "", "")
		require.NoError(t, err)
		assert.Empty(t, report.LinkedRoot)
	})
}

func TestConfigSummary(t *testing.T) {
	rule := domain.Rule{
		ID:           "R1",
		Name:         "Ports",
		ErrorMessage: "bad port",
		Checks: []domain.Check{{
			Type:   "PROPERTY_GENERIC",
			Params: map[string]any{"properties": []any{"http.port"}, "environments": []any{"ALL"}},
		}},
	}
	summary := configSummary(rule)
	assert.True(t, strings.HasPrefix(summary, "id: R1\nname: Ports\nenabled: true\nseverity: MEDIUM\nerrorMessage: bad port\nchecks:\n"), summary)
	assert.NotContains(t, summary, "environments")

	var decoded struct {
		Checks []struct {
			Type   string         `yaml:"type"`
			Params map[string]any `yaml:"params"`
		} `yaml:"checks"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(summary), &decoded))
	require.Len(t, decoded.Checks, 1)
	assert.Equal(t, "PROPERTY_GENERIC", decoded.Checks[0].Type)
	assert.Equal(t, map[string]any{"properties": []any{"http.port"}}, decoded.Checks[0].Params)
}

func TestAppliesTo(t *testing.T) {
	assert.True(t, appliesTo(domain.Rule{}, nil))
	assert.True(t, appliesTo(domain.Rule{AppliesTo: []string{"mule"}}, []string{"MULE"}))
	assert.False(t, appliesTo(domain.Rule{AppliesTo: []string{"JAVA"}}, []string{"MULE"}))
	assert.False(t, appliesTo(domain.Rule{AppliesTo: []string{"JAVA"}}, nil))
}

func TestValidate_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
	}{
		{name: "default rules", setup: func(*testing.T, string) {}},
		{name: "linked config", setup: func(t *testing.T, root string) {
			sibling := filepath.Join(filepath.Dir(root), "orders-api_config")
			writeProjectFile(t, sibling, "src/main/resources/dev.properties", "db.user=svc\n")
		}},
		{name: "disabled rules", setup: func(t *testing.T, root string) {
			writeProjectFile(t, root, config.FileName, "disabled_rules: [R2]\n")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			tt.setup(t, root)
			svc := newValidationService(nil)

			first, err := svc.ValidateProject(context.Background(), root, "", "")
			require.NoError(t, err)
			second, err := svc.ValidateProject(context.Background(), root, "", "")
			require.NoError(t, err)

			assert.Equal(t, first.Summary, second.Summary)
			assert.Equal(t, first.Passed, second.Passed)
			assert.Equal(t, first.Failed, second.Failed)
			assert.Equal(t, first.Skipped, second.Skipped)
			assert.Equal(t, first.NotApplicable, second.NotApplicable)
			assert.Equal(t, first, second)
		})
	}
}

const panicRules = `
rules:
  - id: P1
    name: Exploding check
    checks:
      - type: EXPLODING_CHECK
      - type: FILE_EXISTS
        params:
          filePatterns: [README.md]
  - id: P2
    name: Readme present
    checks:
      - type: FILE_EXISTS
        params:
          filePatterns: [README.md]
`

type explodingStrategy struct{ value any }

func (s explodingStrategy) Execute(*check.Env, domain.Check) domain.CheckResult { panic(s.value) }

func TestValidate_RecoversFromPanics(t *testing.T) {
	tests := []struct {
		name string
		ctor check.Constructor
		want string
	}{
		{
			name: "string from execute",
			ctor: func(map[string]any) (check.Strategy, error) { return explodingStrategy{value: "boom"}, nil },
			want: "Execution error: boom",
		},
		{
			name: "error from execute",
			ctor: func(map[string]any) (check.Strategy, error) {
				return explodingStrategy{value: errors.New("index out of range")}, nil
			},
			want: "Execution error: index out of range",
		},
		{
			name: "constructor",
			ctor: func(map[string]any) (check.Strategy, error) { panic("bad params") },
			want: "Execution error: bad params",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			writeProjectFile(t, root, domain.DefaultRulesFile, panicRules)
			factory := check.NewFactory()
			factory.Register("EXPLODING_CHECK", tt.ctor)
			rec := &recorded{}

			report, err := newValidationServiceWith(rec, factory).ValidateProject(context.Background(), root, "", "")
			require.NoError(t, err)

			assert.Equal(t, domain.ReportSummary{Total: 2, Passed: 1, Failed: 1}, report.Summary)
			require.Len(t, report.Failed, 1)
			p1 := report.Failed[0]
			assert.Equal(t, "P1", p1.ID)
			require.Len(t, p1.Checks, 2)
			assert.False(t, p1.Checks[0].Passed)
			assert.Equal(t, tt.want, p1.Checks[0].Message)
			assert.Equal(t, "P1", p1.Checks[0].RuleID)
			assert.True(t, p1.Checks[1].Passed, "sibling check still runs")

			require.Len(t, report.Passed, 1)
			assert.Equal(t, "P2", report.Passed[0].ID)
			assert.Equal(t, []string{"EXPLODING_CHECK", "FILE_EXISTS", "FILE_EXISTS"}, rec.checks)
		})
	}
}
