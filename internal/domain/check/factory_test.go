package check_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/check"
)

func TestFactory_Create(t *testing.T) {
	f := check.NewFactory()
	for _, typ := range []string{"TOKEN_SEARCH", "TokenSearchCheck", "XML_XPATH_EXISTS", "JSON_VALIDATION_REQUIRED",
		"GENERIC_PROPERTY_FILE", "POM_VALIDATION_REQUIRED", "POM_VALIDATION_FORBIDDEN", "ConditionalCheck",
		"PROJECT_CONTEXT", "FILE_EXISTS"} {
		s, err := f.Create(domain.Check{Type: typ})
		require.NoError(t, err, typ)
		assert.NotNil(t, s, typ)
	}
}

func TestFactory_UnknownType(t *testing.T) {
	_, err := check.NewFactory().Create(domain.Check{Type: "NOPE"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownCheckType))
	assert.EqualError(t, err, "unknown check type: NOPE")
}

func TestFactory_DecodeErrorIsConfigError(t *testing.T) {
	_, err := check.NewFactory().Create(domain.Check{Type: "TOKEN_SEARCH", Params: map[string]any{"matchCount": "many"}})
	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFactory_Kinds(t *testing.T) {
	kinds := check.NewFactory().Kinds()
	assert.Len(t, kinds, 12)
	assert.Equal(t, check.KindClientIDMap, kinds[0])
	assert.Contains(t, kinds, check.KindFileExists)
}

func TestFactory_Lint(t *testing.T) {
	f := check.NewFactory()

	assert.NoError(t, f.Lint(domain.Check{Type: "TOKEN_SEARCH", Params: map[string]any{
		"filePatterns": []any{"**/*.java"}, "tokens": []any{"x"},
	}}))

	err := f.Lint(domain.Check{Type: "TOKEN_SEARCH", Params: map[string]any{"filePatterns": []any{"**/*.java"}}})
	assert.EqualError(t, err, "'tokens' is required")

	err = f.Lint(domain.Check{Type: "CONDITIONAL_CHECK", Params: map[string]any{
		"preconditions": []any{map[string]any{"type": "FILE_EXISTS", "params": map[string]any{"filePatterns": []any{"pom.xml"}}}},
		"onSuccess":     []any{map[string]any{"type": "XML_GENERIC", "description": "flows"}},
	}})
	assert.EqualError(t, err, "nested flows: 'filePatterns' is required")

	err = f.Lint(domain.Check{Type: "CONDITIONAL_CHECK", Params: map[string]any{
		"preconditions": []any{map[string]any{"type": "MYSTERY"}},
	}})
	assert.ErrorIs(t, err, domain.ErrUnknownCheckType)
}
