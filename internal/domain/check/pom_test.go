package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.x</groupId>
    <artifactId>base</artifactId>
    <version>2.0.0</version>
  </parent>
  <artifactId>orders-api</artifactId>
  <properties>
    <app.runtime>4.4.0</app.runtime>
    <mule.maven.plugin.version>4.1.1</mule.maven.plugin.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.mule.connectors</groupId>
      <artifactId>mule-http-connector</artifactId>
      <version>1.7.3</version>
    </dependency>
    <dependency>
      <groupId>log4j</groupId>
      <artifactId>log4j</artifactId>
      <version>1.2.17</version>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <groupId>org.mule.tools.maven</groupId>
        <artifactId>mule-maven-plugin</artifactId>
      </plugin>
      <plugin>
        <artifactId>maven-clean-plugin</artifactId>
      </plugin>
    </plugins>
  </build>
</project>
`

func pomProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "pom.xml", samplePOM)
	return root
}

func TestPOMRequired_ParentMinVersion(t *testing.T) {
	env := newEnv(t, pomProject(t))

	res := run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"validationType": "PARENT",
		"parent":         map[string]any{"groupId": "com.x", "artifactId": "base", "minVersion": "1.5.0"},
	})
	assert.True(t, res.Passed, res.Message)
	assert.Equal(t, "Parent: com.x:base:2.0.0 (in pom.xml)", res.FoundItems)
	assert.Equal(t, "pom.xml", res.CheckedFiles)
	assert.Contains(t, res.Message, "All required POM elements found\nFiles validated: pom.xml")

	res = run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"validationType": "PARENT",
		"parent":         map[string]any{"groupId": "com.x", "artifactId": "base", "minVersion": "3.0.0"},
	})
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "Parent com.x:base version too low in pom.xml: expected >= '3.0.0', got '2.0.0'")
}

func TestPOMRequired_Combined(t *testing.T) {
	env := newEnv(t, pomProject(t))

	res := run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"properties": []any{
			map[string]any{"name": "app.runtime", "minVersion": "4.3.0"},
			map[string]any{"name": "mule.maven.plugin.version", "expectedValue": "4.1.1"},
		},
		"dependencies": []any{map[string]any{"groupId": "org.mule.connectors", "artifactId": "mule-http-connector"}},
		"plugins": []any{
			map[string]any{"groupId": "org.mule.tools.maven", "artifactId": "mule-maven-plugin"},
			map[string]any{"groupId": "org.apache.maven.plugins", "artifactId": "maven-clean-plugin"},
		},
	})
	assert.True(t, res.Passed, res.Message)
	assert.Contains(t, res.Message, "• Dependency: org.mule.connectors:mule-http-connector:1.7.3 (in pom.xml)")
	assert.Len(t, res.MatchedPaths, 1)

	res = run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"properties":   []any{map[string]any{"name": "java.version"}},
		"dependencies": []any{map[string]any{"groupId": "org.mule.connectors", "artifactId": "mule-db-connector"}},
	})
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "Property 'java.version' missing in pom.xml")
	assert.Contains(t, res.Message, "Dependency org.mule.connectors:mule-db-connector not found in pom.xml")
}

func TestPOMRequired_ValidationTypeSelectsSection(t *testing.T) {
	env := newEnv(t, pomProject(t))
	res := run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"validationType": "PLUGINS",
		"dependencies":   []any{map[string]any{"groupId": "a", "artifactId": "missing"}},
		"plugins":        []any{map[string]any{"groupId": "org.mule.tools.maven", "artifactId": "mule-maven-plugin"}},
	})
	assert.True(t, res.Passed, res.Message)
}

func TestPOMRequired_NoPOM(t *testing.T) {
	env := newEnv(t, t.TempDir())
	res := run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"dependencies": []any{map[string]any{"groupId": "a", "artifactId": "b"}},
	})
	assert.False(t, res.Passed)
	assert.Equal(t, "No pom.xml files found in project", res.Message)
}

func TestPOMRequired_ConfigErrors(t *testing.T) {
	env := newEnv(t, pomProject(t))

	res := run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{})
	assert.Contains(t, res.Message, "Configuration error: at least one of 'parent'")

	res = run(t, env, "POM_VALIDATION_REQUIRED", map[string]any{
		"dependencies": []any{map[string]any{"groupId": "a"}},
	})
	assert.Equal(t, "Configuration error: 'dependencies' entries need groupId and artifactId", res.Message)
}

func TestPOMForbidden(t *testing.T) {
	env := newEnv(t, pomProject(t))

	res := run(t, env, "POM_VALIDATION_FORBIDDEN", map[string]any{
		"forbiddenDependencies": []any{map[string]any{"groupId": "log4j", "artifactId": "log4j"}},
		"forbiddenProperties":   []any{"skipTests"},
	})
	assert.False(t, res.Passed)
	assert.Equal(t, "Dependency log4j:log4j (in pom.xml)", res.FoundItems)
	assert.Contains(t, res.Message, "Forbidden POM elements present:\n• Dependency log4j:log4j (in pom.xml)")

	res = run(t, env, "POM_VALIDATION_FORBIDDEN", map[string]any{
		"validationType":        "PLUGINS",
		"forbiddenDependencies": []any{map[string]any{"groupId": "log4j", "artifactId": "log4j"}},
	})
	assert.True(t, res.Passed, res.Message)
	assert.Contains(t, res.Message, "No forbidden POM elements found")
}

func TestPOMForbidden_NoPOMPasses(t *testing.T) {
	env := newEnv(t, t.TempDir())
	res := run(t, env, "POM_VALIDATION_FORBIDDEN", map[string]any{"forbiddenProperties": []any{"x"}})
	assert.True(t, res.Passed)
	assert.Equal(t, "No pom.xml files found (nothing to validate)", res.Message)
}
