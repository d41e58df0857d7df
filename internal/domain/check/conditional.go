package check

import (
	"fmt"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

const (
	msgPreconditionsNotMet = "⊘ Skipped: Preconditions not met for this project."
	msgNoOnSuccess         = "Conditions met, but no 'onSuccess' checks defined."
)

type conditionalConfig struct {
	Preconditions []domain.Check `mapstructure:"preconditions"`
	OnSuccess     []domain.Check `mapstructure:"onSuccess"`
	Logic         string         `mapstructure:"logic"`
	NarrowScope   bool           `mapstructure:"narrowScope"`
	Message       string         `mapstructure:"message"`
}

// conditional runs its onSuccess checks only when its preconditions hold.
// Files matched by passing preconditions narrow the scope of the onSuccess stage.
type conditional struct {
	cfg conditionalConfig
}

func newConditional(params map[string]any) (Strategy, error) {
	cfg := conditionalConfig{NarrowScope: true}
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	cfg.Logic = upper(cfg.Logic, logicAND)
	return &conditional{cfg: cfg}, nil
}

func (s *conditional) Validate() error {
	if len(s.cfg.Preconditions) == 0 {
		return domain.MissingParam("preconditions")
	}
	return nil
}

func (s *conditional) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}

	met, scope := s.preconditions(env, chk)
	if !met {
		return plain(chk, true, msgPreconditionsNotMet)
	}
	if len(s.cfg.OnSuccess) == 0 {
		return plain(chk, true, msgNoOnSuccess)
	}

	nestedEnv := env
	if s.cfg.NarrowScope && scope.Len() > 0 {
		nestedEnv = env.WithAllowList(scope)
	}

	t := newTally()
	var checked, matching orderedSet
	lines := make([]string, 0, len(s.cfg.OnSuccess))
	passed := true
	for _, nested := range s.cfg.OnSuccess {
		res := s.run(nestedEnv, chk, nested)
		lines = append(lines, fmt.Sprintf("- %s: %s", nested.Label(), res.Message))
		checked.add(splitEvidence(res.CheckedFiles)...)
		t.found.add(splitEvidence(res.FoundItems)...)
		matching.add(splitEvidence(res.MatchingFiles)...)
		t.trail.Add(res.PropertyResolutions...)
		t.matched.Union(res.MatchedPaths)
		if !res.Passed {
			passed = false
		}
	}
	t.checked = checked.items
	t.matching = matching.items

	details := "Conditions met. Executing nested checks:\n" + strings.Join(lines, "\n")
	return t.finish(chk, s.cfg.Message, passed, details)
}

// preconditions evaluates the precondition stage and returns the union of
// files matched by the passing preconditions.
func (s *conditional) preconditions(env *Env, chk domain.Check) (bool, domain.PathSet) {
	scope := domain.NewPathSet()
	if s.cfg.Logic == logicOR {
		for _, pre := range s.cfg.Preconditions {
			if res := s.run(env, chk, pre); res.Passed {
				scope.Union(res.MatchedPaths)
				return true, scope
			}
		}
		return false, scope
	}
	for _, pre := range s.cfg.Preconditions {
		res := s.run(env, chk, pre)
		if !res.Passed {
			return false, scope
		}
		scope.Union(res.MatchedPaths)
	}
	return true, scope
}

// run executes a nested check under the parent's rule id. Nested checks
// render with default templates. Creation errors and panics become a failed result.
func (s *conditional) run(env *Env, parent, nested domain.Check) (res domain.CheckResult) {
	nested.RuleID = parent.RuleID
	nested.Rule = nil
	defer func() {
		if r := recover(); r != nil {
			res = plain(nested, false, fmt.Sprintf("Error executing nested check: %v", r))
		}
	}()

	if env.Factory == nil {
		return plain(nested, false, "Error executing nested check: no check factory configured")
	}
	strategy, err := env.Factory.Create(nested)
	if err != nil {
		return plain(nested, false, "Error executing nested check: "+err.Error())
	}
	res = strategy.Execute(env, nested)
	if res.MatchedPaths == nil {
		res.MatchedPaths = domain.NewPathSet()
	}
	return res
}

// evidenceSeparators normalizes the list separators nested results join
// their evidence with: ", " for most strategies and "; " for the POM ones.
var evidenceSeparators = strings.NewReplacer("; ", ", ")

func splitEvidence(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(evidenceSeparators.Replace(s), ", ") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
