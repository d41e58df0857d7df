package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/raks/aegis/internal/domain"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle          = lipgloss.NewStyle().Foreground(dim).Italic(true)
)

// RenderRuleList renders the rules of a rule file with their check types.
func RenderRuleList(rules []domain.Rule) string {
	var b strings.Builder

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n\n",
		sectionHeaderStyle.Render("Rules"),
		dimStyle.Render(fmt.Sprintf("(%d)", len(rules))),
	)

	for _, r := range rules {
		icon := passStyle.Render("●")
		if !r.IsEnabled() {
			icon = skipStyle.Render("○")
		}
		sev := lipgloss.NewStyle().Foreground(severityColor(r.EffectiveSeverity())).Render(padRight(r.EffectiveSeverity(), 8))
		fmt.Fprintf(&b, "    %s %s %s  %s\n", icon, sev, titleStyle.Render(r.ID), r.Name)

		types := make([]string, 0, len(r.Checks))
		for _, c := range r.Checks {
			types = append(types, c.Type)
		}
		line := strings.Join(types, ", ")
		if len(r.AppliesTo) > 0 {
			line += "  applies to " + strings.Join(r.AppliesTo, ", ")
		}
		fmt.Fprintf(&b, "               %s\n", faintStyle.Render(line))
	}
	return b.String()
}

// RenderCheckTypes lists registered kinds and the legacy names mapped onto each.
func RenderCheckTypes(kinds []string, aliases map[string]string) string {
	byKind := make(map[string][]string)
	for alias, kind := range aliases {
		byKind[kind] = append(byKind[kind], alias)
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n\n",
		sectionHeaderStyle.Render("Check types"),
		dimStyle.Render(fmt.Sprintf("(%d)", len(kinds))),
	)
	for _, k := range kinds {
		fmt.Fprintf(&b, "    %s %s\n", passStyle.Render("●"), titleStyle.Render(k))
		names := byKind[k]
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "        %s\n", faintStyle.Render(n))
		}
	}
	b.WriteString("\n  " + hintStyle.Render("Class-style names such as TokenSearchCheck are accepted too.") + "\n")
	return b.String()
}
