package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raks/aegis/internal/domain/resolve"
)

func TestTrail_Deduplicates(t *testing.T) {
	var tr resolve.Trail
	tr.Add("a → 1", "a → 1", "b → 2")
	tr.Record("x", "x")
	tr.Record("x", "y")

	var other resolve.Trail
	other.Add("b → 2", "c → 3")
	tr.Merge(other)

	assert.Equal(t, []string{"a → 1", "b → 2", "x → y", "c → 3"}, tr.Entries())
}

func TestTrail_Relevant(t *testing.T) {
	var tr resolve.Trail
	tr.Add("${a} → secret (p)", "${b} → plain (p)")
	assert.Equal(t, []string{"${a} → secret (p)"}, tr.Relevant([]string{"secret"}).Entries())
	assert.Nil(t, tr.Relevant(nil).Entries())
}
