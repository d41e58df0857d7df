package application

import (
	"fmt"

	"github.com/raks/aegis/internal/domain"
)

// HistoryService records validation runs and reads them back.
type HistoryService struct {
	store domain.RunHistory
}

func NewHistoryService(store domain.RunHistory) *HistoryService {
	return &HistoryService{store: store}
}

// Record appends a summary of report to the project's history.
func (s *HistoryService) Record(report *domain.ValidationReport) (domain.RunEntry, error) {
	entry := RunEntryFor(report)
	if err := s.store.Save(report.ProjectPath, entry); err != nil {
		return domain.RunEntry{}, fmt.Errorf("saving history: %w", err)
	}
	return entry, nil
}

// List returns the recorded runs of projectPath, oldest first.
func (s *HistoryService) List(projectPath string) ([]domain.RunEntry, error) {
	entries, err := s.store.Load(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return entries, nil
}

// RunEntryFor summarizes a report as a history entry.
func RunEntryFor(report *domain.ValidationReport) domain.RunEntry {
	entry := domain.RunEntry{
		ID:         report.RunID,
		Timestamp:  report.Timestamp,
		CommitHash: report.CommitHash,
		Passed:     report.Summary.Passed,
		Failed:     report.Summary.Failed,
		Skipped:    report.Summary.Skipped,
	}
	for _, rr := range report.Failed {
		entry.FailedIDs = append(entry.FailedIDs, rr.ID)
	}
	return entry
}
