package history

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/raks/aegis/internal/domain"
)

// MaxEntries is the number of runs kept per project.
const MaxEntries = 100

// FileHistory implements domain.RunHistory using JSON file storage under
// <project>/<report dir>/history/runs.json.
type FileHistory struct {
	reportDir string
}

// New stores history under reportDir, or the default report directory when empty.
func New(reportDir string) *FileHistory {
	if reportDir == "" {
		reportDir = domain.DefaultReportDir
	}
	return &FileHistory{reportDir: reportDir}
}

func (h *FileHistory) path(projectPath string) string {
	return filepath.Join(projectPath, h.reportDir, "history", "runs.json")
}

func (h *FileHistory) Save(projectPath string, entry domain.RunEntry) error {
	entries, err := h.Load(projectPath)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}

	fp := h.path(projectPath)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(fp, data, 0644)
}

func (h *FileHistory) Load(projectPath string) ([]domain.RunEntry, error) {
	data, err := os.ReadFile(h.path(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.RunEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
