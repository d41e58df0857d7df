package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/raks/aegis/internal/domain"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	info      = lipgloss.Color("#8B949E") // soft blue-gray
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	severityColors = map[string]lipgloss.Color{
		domain.SeverityCritical: danger,
		domain.SeverityHigh:     lipgloss.Color("#FB923C"), // orange
		domain.SeverityMedium:   warning,
		domain.SeverityLow:      info,
		domain.SeverityInfo:     dim,
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	passTagStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	failTagStyle  = lipgloss.NewStyle().Foreground(danger).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderValidationReport formats a report for the terminal. Failed rules come
// first with every check message; passed rules list only their checks unless
// verbose is set.
func RenderValidationReport(report *domain.ValidationReport, verbose bool) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("aegis")
	subtitle := dimStyle.Render(report.ProjectName)
	s := report.Summary
	verdict := passTagStyle.Render(report.Label(domain.LabelPass))
	if report.HasFailures() {
		verdict = failTagStyle.Render(report.Label(domain.LabelFail))
	}
	counts := fmt.Sprintf("%d/%d rules passed", s.Passed, s.Passed+s.Failed)
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + verdict + "  " + counts))
	b.WriteString("\n\n")

	meta := []string{report.ProjectPath}
	if report.LinkedRoot != "" {
		meta = append(meta, "linked: "+report.LinkedRoot)
	}
	if len(report.ProjectTypes) > 0 {
		meta = append(meta, "types: "+strings.Join(report.ProjectTypes, ", "))
	}
	if report.CommitHash != "" {
		meta = append(meta, "commit: "+shortHash(report.CommitHash))
	}
	b.WriteString("  " + dimStyle.Render(strings.Join(meta, "  ·  ")) + "\n\n")

	// ── Rules ──
	for _, rr := range report.Failed {
		renderRule(&b, report, rr, true)
	}
	for _, rr := range report.Passed {
		renderRule(&b, report, rr, verbose)
	}

	renderNames(&b, "Skipped", report.Skipped)
	renderNames(&b, "Not applicable", report.NotApplicable)

	// ── Footer ──
	b.WriteString("\n  " + separatorLine + "\n\n")
	fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
		passStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
		failStyle.Render(fmt.Sprintf("%d failed", s.Failed)),
		skipStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)),
		skipStyle.Render(fmt.Sprintf("%d n/a", s.NotApplicable)),
	)
	return b.String()
}

func renderRule(b *strings.Builder, report *domain.ValidationReport, rr domain.RuleResult, detailed bool) {
	tag := passTagStyle.Render(report.Label(domain.LabelPass))
	if !rr.Passed {
		tag = failTagStyle.Render(report.Label(domain.LabelFail))
	}
	sev := lipgloss.NewStyle().Foreground(severityColor(rr.Severity)).Render(padRight(rr.Severity, 8))
	fmt.Fprintf(b, "  %s %s %s  %s\n", tag, sev, titleStyle.Render(rr.ID), rr.Name)

	for _, c := range rr.Checks {
		icon := passStyle.Render("●")
		if !c.Passed {
			icon = failStyle.Render("●")
		}
		label := c.Description
		if label == "" {
			label = "check"
		}
		fmt.Fprintf(b, "      %s %s\n", icon, label)
		if !detailed {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
			fmt.Fprintf(b, "          %s\n", dimStyle.Render(line))
		}
	}
	if !rr.Passed && rr.DocLink != "" {
		fmt.Fprintf(b, "      %s\n", warnStyle.Render("see "+rr.DocLink))
	}
	b.WriteString("\n")
}

func renderNames(b *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s %s\n", titleStyle.Render(title), dimStyle.Render(fmt.Sprintf("(%d)", len(names))))
	for _, n := range names {
		fmt.Fprintf(b, "    %s %s\n", skipStyle.Render("○"), skipStyle.Render(n))
	}
	b.WriteString("\n")
}

func severityColor(severity string) lipgloss.Color {
	if c, ok := severityColors[strings.ToUpper(severity)]; ok {
		return c
	}
	return fg
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No validation history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Validation History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := shortHash(e.CommitHash)
		if hash == "" {
			hash = "·······"
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(e.Timestamp.Format("2006-01-02 15:04")),
			faintStyle.Render(hash),
			passStyle.Render(fmt.Sprintf("%d passed", e.Passed)),
			failStyle.Render(fmt.Sprintf("%d failed", e.Failed)),
		)

		if i > 0 {
			diff := e.Failed - entries[i-1].Failed
			if diff > 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↑%d", diff))
			} else if diff < 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↓%d", -diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
