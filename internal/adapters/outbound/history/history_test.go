package history_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raks/aegis/internal/adapters/outbound/history"
	"github.com/raks/aegis/internal/domain"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New("")

	entry := domain.RunEntry{
		ID:         "run-1",
		Timestamp:  time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		CommitHash: "abc1234",
		Passed:     7,
		Failed:     2,
		FailedIDs:  []string{"RULE-003", "RULE-009"},
	}

	err := h.Save(dir, entry)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, domain.DefaultReportDir, "history", "runs.json"))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Passed)
	assert.Equal(t, "abc1234", entries[0].CommitHash)
	assert.Equal(t, []string{"RULE-003", "RULE-009"}, entries[0].FailedIDs)
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New("reports")

	require.NoError(t, h.Save(dir, domain.RunEntry{ID: "t1", Passed: 1}))
	require.NoError(t, h.Save(dir, domain.RunEntry{ID: "t2", Passed: 2}))
	require.NoError(t, h.Save(dir, domain.RunEntry{ID: "t3", Passed: 3}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "t1", entries[0].ID)
	assert.Equal(t, "t3", entries[2].ID)
	assert.DirExists(t, filepath.Join(dir, "reports", "history"))
}

func TestHistory_KeepsLastEntries(t *testing.T) {
	dir := t.TempDir()
	h := history.New("")

	for i := 0; i < history.MaxEntries+5; i++ {
		require.NoError(t, h.Save(dir, domain.RunEntry{ID: fmt.Sprintf("run-%d", i)}))
	}

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, history.MaxEntries)
	assert.Equal(t, "run-5", entries[0].ID)
	assert.Equal(t, fmt.Sprintf("run-%d", history.MaxEntries+4), entries[len(entries)-1].ID)
}

func TestHistory_LoadEmpty(t *testing.T) {
	entries, err := history.New("").Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, domain.DefaultReportDir, "history", "runs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	require.NoError(t, os.WriteFile(fp, []byte("{not json"), 0644))

	_, err := history.New("").Load(dir)
	assert.Error(t, err)
}
