package check_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedProject(t *testing.T, name string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(root, 0o755))
	return root
}

func TestProjectContext(t *testing.T) {
	env := newEnv(t, namedProject(t, "Orders-System-API"))

	tests := []struct {
		name   string
		params map[string]any
		passed bool
		want   string
	}{
		{"contains ignoring case", map[string]any{"nameContains": "system-api"}, true, "satisfies context constraints"},
		{"contains case sensitive", map[string]any{"nameContains": "system-api", "ignoreCase": false}, false, "does not contain 'system-api'"},
		{"not contains", map[string]any{"nameNotContains": "process"}, true, ""},
		{"not contains violated", map[string]any{"nameNotContains": "ORDERS"}, false, "must not contain 'ORDERS'"},
		{"regex", map[string]any{"nameRegex": `[A-Za-z]+-System-API`}, true, ""},
		{"regex mismatch", map[string]any{"nameRegex": `.*-exp-api`}, false, "does not match regex '.*-exp-api'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, env, "PROJECT_CONTEXT", tt.params)
			assert.Equal(t, tt.passed, res.Passed, res.Message)
			assert.Equal(t, "Orders-System-API", res.CheckedFiles)
			if tt.want != "" {
				assert.Contains(t, res.Message, tt.want)
			}
		})
	}
}

func TestProjectContext_RequiresConstraint(t *testing.T) {
	env := newEnv(t, namedProject(t, "orders"))
	res := run(t, env, "PROJECT_CONTEXT", map[string]any{})
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "Configuration error: at least one of 'nameContains'")
}

func TestFileExists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# orders")
	writeFile(t, root, "src/main/mule/a.xml", "<a/>")
	writeFile(t, root, "src/main/mule/b.xml", "<b/>")
	env := newEnv(t, root)

	res := run(t, env, "FILE_EXISTS", map[string]any{"filePatterns": []any{"README.md"}})
	assert.True(t, res.Passed)
	assert.Equal(t, "Found 1 file(s) matching [README.md]", res.Message)

	res = run(t, env, "FILE_EXISTS", map[string]any{"filePatterns": []any{"src/main/mule/*.xml"}, "minCount": 3})
	assert.False(t, res.Passed)
	assert.Equal(t, "Expected at least 3 file(s) matching [src/main/mule/*.xml], found 2", res.Message)

	res = run(t, env, "FILE_EXISTS", map[string]any{"filePatterns": []any{"**/*.jks"}, "mode": "NOT_EXISTS"})
	assert.True(t, res.Passed)

	res = run(t, env, "FILE_EXISTS", map[string]any{"filePatterns": []any{"**/*.xml"}, "mode": "NOT_EXISTS"})
	assert.False(t, res.Passed)
	assert.Equal(t, "src/main/mule/a.xml, src/main/mule/b.xml", res.FoundItems)
}
