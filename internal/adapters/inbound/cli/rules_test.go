package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/raks/aegis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesListCommand(t *testing.T) {
	root := newCLIProject(t)

	out, err := execute(t, "rules", "list", root, "--json")
	require.NoError(t, err)
	var rules []domain.Rule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, "DOC-001", rules[0].ID)

	out, err = execute(t, "rules", "list", root)
	require.NoError(t, err)
	assert.Contains(t, out, "SEC-001")
}

func TestRulesLintCommand(t *testing.T) {
	root := newCLIProject(t)
	out, err := execute(t, "rules", "lint", root)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rule(s) OK")

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`
rules:
  - id: BAD-001
    name: Missing tokens
    checks:
      - type: TOKEN_SEARCH
        params:
          filePatterns: ["**/*.java"]
`), 0o644))

	out, err = execute(t, "rules", "lint", root, "--rules", broken)
	assert.EqualError(t, err, "1 check(s) have configuration problems")
	assert.Contains(t, out, "BAD-001 check #1 (TOKEN_SEARCH): 'tokens' is required")
}

func TestRulesTypesCommand(t *testing.T) {
	out, err := execute(t, "rules", "types", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "TOKEN_SEARCH"`)

	out, err = execute(t, "rules", "types")
	require.NoError(t, err)
	assert.Contains(t, out, "CONDITIONAL_CHECK")
}
