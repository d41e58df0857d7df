package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const dbConfig = `<?xml version="1.0" encoding="UTF-8"?>
<mule xmlns="http://www.mulesoft.org/schema/mule/core"
      xmlns:db="http://www.mulesoft.org/schema/mule/db">
  <db:config name="orders-db">
    <db:my-sql-connection host="${db.host}" user="admin" password="${secure::db.password}"/>
  </db:config>
  <db:config name="audit-db">
    <db:my-sql-connection host="${audit.host}"/>
  </db:config>
</mule>
`

func TestXMLExternalized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main/mule/db.xml", dbConfig)
	env := newEnv(t, root)

	tests := []struct {
		name     string
		sets     []any
		passed   bool
		contains []string
		excludes []string
	}{
		{
			name:   "all placeholders",
			sets:   []any{map[string]any{"element": "db:my-sql-connection", "attributes": []any{"host"}}},
			passed: true,
		},
		{
			name: "literal and missing attributes",
			sets: []any{map[string]any{"element": "db:my-sql-connection", "attributes": []any{"user", "password"}}},
			contains: []string{
				"Externalization failures:\n• ",
				"Attribute 'user' in element 'db:my-sql-connection' is NOT externalized (Found: 'admin') in file: src/main/mule/db.xml",
				"Element 'db:my-sql-connection' missing required attribute 'user' in file: src/main/mule/db.xml",
				"Element 'db:my-sql-connection' missing required attribute 'password' in file: src/main/mule/db.xml",
			},
		},
		{
			name: "lenient presence",
			sets: []any{map[string]any{"element": "db:my-sql-connection", "attributes": []any{"user"}, "strictPresence": false}},
			contains: []string{
				"Attribute 'user' in element 'db:my-sql-connection' is NOT externalized (Found: 'admin')",
			},
			excludes: []string{"missing required attribute"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, env, "XML_ATTRIBUTE_EXTERNALIZED", map[string]any{
				"filePatterns":         []any{"src/main/mule/*.xml"},
				"elementAttributeSets": tt.sets,
			})
			assert.Equal(t, tt.passed, res.Passed, res.Message)
			if tt.passed {
				assert.Equal(t, "All checked attributes are properly externalized.", res.Message)
			}
			for _, want := range tt.contains {
				assert.Contains(t, res.Message, want)
			}
			for _, not := range tt.excludes {
				assert.NotContains(t, res.Message, not)
			}
		})
	}
}

func TestXMLExternalized_RequiresParams(t *testing.T) {
	env := newEnv(t, t.TempDir())

	res := run(t, env, "XmlAttributeExternalized", map[string]any{
		"elementAttributeSets": []any{map[string]any{"element": "a", "attributes": []any{"b"}}},
	})
	assert.Equal(t, "Configuration error: 'filePatterns' is required", res.Message)

	res = run(t, env, "XML_ATTRIBUTE_EXTERNALIZED", map[string]any{"filePatterns": []any{"*.xml"}})
	assert.Equal(t, "Configuration error: 'elementAttributeSets' is required", res.Message)
}
