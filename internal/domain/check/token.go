package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

const (
	modeRequired  = "REQUIRED"
	modeForbidden = "FORBIDDEN"

	logicAND = "AND"
	logicOR  = "OR"
)

type tokenConfig struct {
	Common         `mapstructure:",squash"`
	Tokens         []string `mapstructure:"tokens"`
	Mode           string   `mapstructure:"mode"`
	Logic          string   `mapstructure:"logic"`
	IsRegex        bool     `mapstructure:"isRegex"`
	CaseSensitive  bool     `mapstructure:"caseSensitive"`
	WholeWord      bool     `mapstructure:"wholeWord"`
	WholeFile      bool     `mapstructure:"wholeFile"`
	IgnoreComments bool     `mapstructure:"ignoreComments"`
}

// tokenSearch looks for literal or regex tokens in file content, per line
// or across the whole file.
type tokenSearch struct {
	cfg tokenConfig
}

func newTokenSearch(params map[string]any) (Strategy, error) {
	cfg := tokenConfig{CaseSensitive: true}
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	cfg.Mode = upper(cfg.Mode, modeForbidden)
	def := logicAND
	if cfg.Mode == modeForbidden {
		def = logicOR
	}
	cfg.Logic = upper(cfg.Logic, def)
	if strings.EqualFold(cfg.MatchMode, "REGEX") {
		cfg.IsRegex = true
	}
	return &tokenSearch{cfg: cfg}, nil
}

func (s *tokenSearch) Validate() error {
	if len(s.cfg.FilePatterns) == 0 {
		return domain.MissingParam("filePatterns")
	}
	if len(s.cfg.Tokens) == 0 {
		return domain.MissingParam("tokens")
	}
	_, err := s.matchers()
	return err
}

// matchers compiles one pattern per token when regex or whole-word matching is on.
func (s *tokenSearch) matchers() ([]*regexp.Regexp, error) {
	if !s.cfg.IsRegex && !s.cfg.WholeWord {
		return nil, nil
	}
	out := make([]*regexp.Regexp, len(s.cfg.Tokens))
	for i, tok := range s.cfg.Tokens {
		expr := tok
		if !s.cfg.IsRegex {
			expr = `\b` + regexp.QuoteMeta(tok) + `\b`
		}
		if !s.cfg.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &domain.ConfigError{Key: "tokens", Reason: fmt.Sprintf("contains invalid pattern %q: %v", tok, err)}
		}
		out[i] = re
	}
	return out, nil
}

func (s *tokenSearch) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}
	patterns, _ := s.matchers()

	t := newTally()
	for _, f := range env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig) {
		t.inspect(f)
		hits, err := s.search(env, f, patterns, t)
		if err != nil {
			t.fail(f, "Read Error: "+err.Error())
			continue
		}
		if reason := s.judge(hits); reason != "" {
			t.fail(f, reason)
			continue
		}
		t.pass(f, hits.count() > 0)
	}

	if t.verdict(s.cfg.Common) {
		return t.finish(chk, s.cfg.Message, true,
			fmt.Sprintf("Passed %s check in %d/%d files", s.cfg.Mode, t.passed, t.total))
	}
	return t.finish(chk, s.cfg.Message, false,
		fmt.Sprintf("Validation failed for %s. (Passed: %d/%d)\n• %s", s.cfg.Mode, t.passed, t.total, t.bulletFailures()))
}

// fileHits records which configured tokens occurred in one file.
type fileHits struct {
	tokens  []bool
	matches orderedSet
}

func (h fileHits) count() int {
	n := 0
	for _, hit := range h.tokens {
		if hit {
			n++
		}
	}
	return n
}

func (s *tokenSearch) search(env *Env, f domain.FileRef, patterns []*regexp.Regexp, t *tally) (fileHits, error) {
	hits := fileHits{tokens: make([]bool, len(s.cfg.Tokens))}
	content, err := env.ReadFile(f, s.cfg.IgnoreComments)
	if err != nil {
		return hits, err
	}

	units := []string{content}
	if !s.cfg.WholeFile {
		units = strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	}
	resolveOn := s.cfg.resolveOr(true)
	for _, unit := range units {
		res := env.ResolveAll(unit, resolveOn, s.cfg.IncludeLinkedConfig)
		matched := false
		for _, candidate := range res.Values {
			if s.match(candidate, patterns, &hits) {
				matched = true
			}
		}
		if matched {
			t.trail.Merge(res.Trail)
		}
	}
	t.found.add(hits.matches.items...)
	return hits, nil
}

func (s *tokenSearch) match(content string, patterns []*regexp.Regexp, hits *fileHits) bool {
	matched := false
	fold := !s.cfg.CaseSensitive && patterns == nil
	if fold {
		content = strings.ToLower(content)
	}
	for i, tok := range s.cfg.Tokens {
		if patterns != nil {
			for _, m := range patterns[i].FindAllString(content, -1) {
				hits.tokens[i] = true
				hits.matches.add(m)
				matched = true
			}
			continue
		}
		needle := tok
		if fold {
			needle = strings.ToLower(tok)
		}
		if strings.Contains(content, needle) {
			hits.tokens[i] = true
			hits.matches.add(tok)
			matched = true
		}
	}
	return matched
}

// judge returns the failure reason for a file, or "" when it passes.
func (s *tokenSearch) judge(h fileHits) string {
	n := h.count()
	switch {
	case s.cfg.Mode == modeRequired && s.cfg.Logic == logicOR:
		if n == 0 {
			return "Missing any of: " + bracketList(s.cfg.Tokens)
		}
	case s.cfg.Mode == modeRequired:
		if n < len(s.cfg.Tokens) {
			var missing []string
			for i, tok := range s.cfg.Tokens {
				if !h.tokens[i] {
					missing = append(missing, tok)
				}
			}
			return "Missing: " + bracketList(missing)
		}
	case s.cfg.Logic == logicAND:
		if n == len(s.cfg.Tokens) {
			return "Found all forbidden tokens"
		}
	default:
		if n > 0 {
			return "Found forbidden: " + bracketList(h.matches.items)
		}
	}
	return ""
}
