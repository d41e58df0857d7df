package application

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raks/aegis/internal/adapters/outbound/config"
	"github.com/raks/aegis/internal/adapters/outbound/rules"
	"github.com/raks/aegis/internal/domain"
)

func TestRuleService_Load(t *testing.T) {
	root := newProject(t)
	svc := NewRuleService(config.New(), rules.New())

	cfg, rs, err := svc.Load(root, "")
	require.NoError(t, err)
	assert.Len(t, rs.Rules, 5)
	assert.Equal(t, "BLOCKER", cfg.MergedLabels()[domain.LabelFail])
	assert.Contains(t, cfg.TypeDefinitions, "MULE")
}

func TestRuleService_LoadConfiguredRulesFile(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "policy/rules.yaml", "rules:\n  - id: ONLY\n    name: only\n")
	writeProjectFile(t, root, config.FileName, "rules_file: policy/rules.yaml\n")

	_, rs, err := NewRuleService(config.New(), rules.New()).Load(root, "")
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, "ONLY", rs.Rules[0].ID)
}

func TestRuleService_LoadRejectsBadPropertySyntax(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, domain.DefaultRulesFile, "config:\n  propertySyntax: ['no-group']\nrules: []\n")

	_, _, err := NewRuleService(config.New(), rules.New()).Load(root, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rules config")
}

func TestRuleService_Lint(t *testing.T) {
	root := newProject(t)
	svc := NewRuleService(config.New(), rules.New())
	_, rs, err := svc.Load(root, "")
	require.NoError(t, err)

	issues := svc.Lint(rs.Rules)
	require.Len(t, issues, 2)
	assert.Equal(t, LintIssue{RuleID: "R5", Check: "NO_SUCH_CHECK", Index: 0, Error: "unknown check type: NO_SUCH_CHECK"}, issues[0])
	assert.Equal(t, "R5", issues[1].RuleID)
	assert.Equal(t, 1, issues[1].Index)
}

func TestRuleService_CheckTypes(t *testing.T) {
	types := NewRuleService(config.New(), rules.New()).CheckTypes()
	require.Len(t, types, 12)

	byKind := make(map[string][]string)
	for _, ct := range types {
		byKind[ct.Kind] = ct.Aliases
	}
	assert.Contains(t, byKind["TOKEN_SEARCH"], "SUBSTRING_TOKEN_CHECK")
	assert.Contains(t, byKind["XML_GENERIC"], "XML_XPATH_EXISTS")
	assert.Contains(t, byKind["XML_GENERIC"], "IBM_MQ_CIPHER_CHECK")
	assert.Contains(t, byKind["POM_VALIDATION_FORBIDDEN"], "POM_PLUGIN_REMOVED")
	assert.Empty(t, byKind["PROJECT_CONTEXT"])
	assert.Empty(t, byKind["CLIENTIDMAP_VALIDATOR"])
}

func TestRulesPath(t *testing.T) {
	root := t.TempDir()

	got, err := RulesPath(root, "", domain.ProjectConfig{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, domain.DefaultRulesFile), got)

	got, err = RulesPath(root, "", domain.ProjectConfig{RulesFile: "/etc/aegis/rules.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/etc/aegis/rules.yaml", got)

	explicit := filepath.Join(root, "x.yaml")
	got, err = RulesPath(root, explicit, domain.ProjectConfig{RulesFile: "/etc/aegis/rules.yaml"})
	require.NoError(t, err)
	assert.Equal(t, explicit, got)
}

func TestRuleService_Resolve(t *testing.T) {
	svc := NewRuleService(config.New(), rules.New())

	ct, ok := svc.Resolve("TokenSearchCheck")
	require.True(t, ok)
	assert.Equal(t, "TOKEN_SEARCH", ct.Kind)

	ct, ok = svc.Resolve("xml_xpath_exists")
	require.True(t, ok)
	assert.Equal(t, "XML_GENERIC", ct.Kind)

	_, ok = svc.Resolve("NOPE")
	assert.False(t, ok)
}
