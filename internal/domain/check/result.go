package check

import (
	"fmt"
	"strings"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
	"github.com/raks/aegis/internal/domain/resolve"
)

const skippedMessage = "Rule skipped: Pre-conditions not met."

// tally accumulates per-file verdicts and evidence for one check execution.
type tally struct {
	sep string

	total    int
	passed   int
	checked  []string
	matching []string
	failures []string
	found    orderedSet
	matched  domain.PathSet
	trail    resolve.Trail
}

func newTally() *tally { return &tally{sep: ", ", matched: domain.NewPathSet()} }

func (t *tally) inspect(f domain.FileRef) {
	t.total++
	t.checked = append(t.checked, f.Label())
}

// pass records f as passing. Passing files that produced a positive match
// also join the matched set.
func (t *tally) pass(f domain.FileRef, matched bool) {
	t.passed++
	t.matching = append(t.matching, f.Label())
	if matched {
		t.matched.Add(f.Path)
	}
}

func (t *tally) fail(f domain.FileRef, reasons ...string) {
	t.failures = append(t.failures, fmt.Sprintf("%s [%s]", f.Label(), strings.Join(reasons, ", ")))
}

func (t *tally) verdict(c Common) bool {
	return eval.EvaluateMatchMode(c.MatchMode, t.total, t.passed, c.MatchCount)
}

func (t *tally) bulletFailures() string {
	if len(t.failures) == 0 {
		return "No files matched"
	}
	return strings.Join(t.failures, "\n• ")
}

func (t *tally) evidence(details string) eval.Evidence {
	var failures string
	if len(t.failures) > 0 {
		failures = "• " + strings.Join(t.failures, "\n• ")
	}
	return eval.Evidence{
		Details:       details,
		Failures:      failures,
		CheckedFiles:  strings.Join(t.checked, t.sep),
		FoundItems:    strings.Join(t.found.items, t.sep),
		MatchingFiles: strings.Join(t.matching, t.sep),
		Resolutions:   t.trail.Entries(),
	}
}

// finish renders the result. Failures use the check's message parameter or
// the rule's errorMessage as template; passes use the rule's successMessage.
func (t *tally) finish(chk domain.Check, custom string, passed bool, details string) domain.CheckResult {
	ev := t.evidence(details)
	return domain.CheckResult{
		RuleID:              chk.RuleID,
		Description:         chk.Description,
		Passed:              passed,
		Message:             eval.FormatMessage(template(chk, custom, passed), ev),
		CheckedFiles:        ev.CheckedFiles,
		FoundItems:          ev.FoundItems,
		MatchingFiles:       ev.MatchingFiles,
		PropertyResolutions: ev.Resolutions,
		MatchedPaths:        t.matched,
	}
}

func template(chk domain.Check, custom string, passed bool) string {
	if passed {
		if chk.Rule != nil {
			return chk.Rule.SuccessMessage
		}
		return ""
	}
	if custom != "" {
		return custom
	}
	if chk.Rule != nil {
		return chk.Rule.ErrorMessage
	}
	return ""
}

// plain builds an untemplated result.
func plain(chk domain.Check, passed bool, message string) domain.CheckResult {
	return domain.CheckResult{
		RuleID:       chk.RuleID,
		Description:  chk.Description,
		Passed:       passed,
		Message:      message,
		MatchedPaths: domain.NewPathSet(),
	}
}

func skipped(chk domain.Check) domain.CheckResult { return plain(chk, true, skippedMessage) }

// ConfigFailure renders err as a failed result.
func ConfigFailure(chk domain.Check, err error) domain.CheckResult {
	return plain(chk, false, "Configuration error: "+err.Error())
}

// orderedSet keeps first-seen order.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(items ...string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, it := range items {
		if it == "" || s.seen[it] {
			continue
		}
		s.seen[it] = true
		s.items = append(s.items, it)
	}
}

// resolveInto resolves raw under c's resolution settings and records the
// trail on t.
func resolveInto(env *Env, c Common, def bool, raw string, t *tally) []string {
	res := env.ResolveAll(raw, c.resolveOr(def), c.IncludeLinkedConfig)
	t.trail.Merge(res.Trail)
	if len(res.Values) == 0 {
		return []string{raw}
	}
	return res.Values
}
