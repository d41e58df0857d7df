package eval

import "strings"

// Evidence is the material a message template can reference.
type Evidence struct {
	Details       string
	Failures      string
	CheckedFiles  string
	FoundItems    string
	MatchingFiles string
	Resolutions   []string
}

var templateTokens = []string{
	"{DEFAULT_MESSAGE}", "{CORE_DETAILS}", "{FAILURES}", "{CHECKED_FILES}",
	"{SCANNED_FILES}", "{FOUND_ITEMS}", "{MATCHING_FILES}", "{PROPERTY_RESOLVED}",
}

// UsesTokens reports whether template references any evidence token.
func UsesTokens(template string) bool {
	for _, t := range templateTokens {
		if strings.Contains(template, t) {
			return true
		}
	}
	return false
}

// FormatMessage renders template against ev. An empty template renders the
// details alone. A template without any token gets the full evidence block
// appended so custom wording never hides what was checked.
func FormatMessage(template string, ev Evidence) string {
	if template == "" {
		template = "{DEFAULT_MESSAGE}"
	}
	details := ev.Details
	if details == "" {
		details = ev.Failures
	}
	cf, fi, mf := orNA(ev.CheckedFiles), orNA(ev.FoundItems), orNA(ev.MatchingFiles)
	pr := "Properties Resolved: N/A"
	if len(ev.Resolutions) > 0 {
		pr = "Properties Resolved:\n" + strings.Join(ev.Resolutions, "\n")
	}

	out := strings.NewReplacer(
		"{CORE_DETAILS}", details,
		"{DEFAULT_MESSAGE}", details,
		"{FAILURES}", ev.Failures,
		"{CHECKED_FILES}", cf,
		"{SCANNED_FILES}", cf,
		"{FOUND_ITEMS}", fi,
		"{MATCHING_FILES}", mf,
		"{PROPERTY_RESOLVED}", pr,
	).Replace(template)

	if !UsesTokens(template) {
		var b strings.Builder
		b.WriteString(out)
		b.WriteString("\nFiles Checked: " + cf)
		b.WriteString("\nItems Found: " + fi)
		b.WriteString("\nItems Matched: " + mf)
		b.WriteString("\nDetails: " + details)
		b.WriteString("\n" + pr)
		out = b.String()
	}
	return out
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
