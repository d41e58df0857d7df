package xpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raks/aegis/internal/adapters/outbound/xpath"
)

const muleConfig = `<?xml version="1.0" encoding="UTF-8"?>
<mule xmlns="http://www.mulesoft.org/schema/mule/core"
      xmlns:http="http://www.mulesoft.org/schema/mule/http">
  <http:listener-config name="api-httpListenerConfig">
    <http:listener-connection host="0.0.0.0" port="8081"/>
  </http:listener-config>
  <flow name="main">
    <logger level="INFO" message="  hello  "/>
  </flow>
</mule>`

func TestQuerier_Query(t *testing.T) {
	q := xpath.New()

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"attribute value", "//*[local-name()='listener-connection']/@port", []string{"8081"}},
		{"trimmed attribute", "//*[local-name()='logger']/@message", []string{"hello"}},
		{"no match", "//*[local-name()='missing']", nil},
		{"count", "count(//*[local-name()='flow'])", []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Query([]byte(muleConfig), tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuerier_QueryUnion(t *testing.T) {
	got, err := xpath.New().Query([]byte(muleConfig),
		"//*[local-name()='flow']/@name | //*[local-name()='listener-config']/@name")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"api-httpListenerConfig", "main"}, got)
}

func TestQuerier_InvalidExpression(t *testing.T) {
	_, err := xpath.New().Query([]byte(muleConfig), "//*[")
	assert.Error(t, err)
}

func TestQuerier_ContainsNamespace(t *testing.T) {
	q := xpath.New()
	assert.True(t, q.ContainsNamespace([]byte(muleConfig), "http://www.mulesoft.org/schema/mule/http"))
	assert.False(t, q.ContainsNamespace([]byte(muleConfig), "http://www.mulesoft.org/schema/mule/db"))
	assert.False(t, q.ContainsNamespace([]byte(muleConfig), ""))
}

const pomXML = `<?xml version="1.0"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>base-parent</artifactId>
    <version>2.1.0</version>
  </parent>
  <properties>
    <java.version>17</java.version>
    <app.runtime> 4.6.0 </app.runtime>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.mule.connectors</groupId>
      <artifactId>mule-http-connector</artifactId>
      <version>1.9.0</version>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <artifactId>maven-compiler-plugin</artifactId>
        <version>3.11.0</version>
      </plugin>
    </plugins>
  </build>
</project>`

func TestPOMReader_Read(t *testing.T) {
	pom, err := xpath.NewPOMReader().Read([]byte(pomXML))
	require.NoError(t, err)

	require.NotNil(t, pom.Parent)
	assert.Equal(t, "com.acme:base-parent:2.1.0", pom.Parent.String())

	v, ok := pom.Property("app.runtime")
	assert.True(t, ok)
	assert.Equal(t, "4.6.0", v)
	assert.Len(t, pom.Properties, 2)
	assert.Equal(t, "java.version", pom.Properties[0].Name)

	require.Len(t, pom.Dependencies, 1)
	assert.Equal(t, "org.mule.connectors:mule-http-connector:1.9.0", pom.Dependencies[0].String())

	require.Len(t, pom.Plugins, 1)
	assert.Equal(t, "org.apache.maven.plugins", pom.Plugins[0].GroupID)
}

func TestPOMReader_NoParent(t *testing.T) {
	pom, err := xpath.NewPOMReader().Read([]byte(`<project><artifactId>x</artifactId></project>`))
	require.NoError(t, err)
	assert.Nil(t, pom.Parent)
	assert.Empty(t, pom.Dependencies)
}
