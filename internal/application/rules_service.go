package application

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/check"
)

// LintIssue is one check that could not be built from its declaration.
type LintIssue struct {
	RuleID string `json:"rule_id"`
	Check  string `json:"check"`
	Index  int    `json:"index"`
	Error  string `json:"error"`
}

// CheckType describes one registered check kind and the legacy names mapped to it.
type CheckType struct {
	Kind    string   `json:"kind"`
	Aliases []string `json:"aliases,omitempty"`
}

// RuleService loads and inspects rule files without running them.
type RuleService struct {
	configs domain.ConfigLoader
	rules   domain.RuleLoader
	factory *check.Factory
}

func NewRuleService(configs domain.ConfigLoader, rules domain.RuleLoader) *RuleService {
	return &RuleService{configs: configs, rules: rules, factory: check.NewFactory()}
}

// Load returns the merged project config and the rule set for projectPath.
func (s *RuleService) Load(projectPath, rulesFile string) (domain.ProjectConfig, domain.RuleSet, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return domain.ProjectConfig{}, domain.RuleSet{}, fmt.Errorf("resolving project path: %w", err)
	}
	return loadRules(s.configs, s.rules, root, rulesFile)
}

// Lint builds every check of every rule through the factory and collects the failures.
func (s *RuleService) Lint(rules []domain.Rule) []LintIssue {
	issues := []LintIssue{}
	for _, rule := range rules {
		for i, chk := range rule.Checks {
			if err := s.factory.Lint(chk); err != nil {
				issues = append(issues, LintIssue{
					RuleID: rule.ID,
					Check:  chk.Type,
					Index:  i,
					Error:  err.Error(),
				})
			}
		}
	}
	return issues
}

// CheckTypes lists the registered kinds with their aliases.
func (s *RuleService) CheckTypes() []CheckType {
	byKind := make(map[check.Kind][]string)
	for alias, kind := range check.Aliases() {
		byKind[kind] = append(byKind[kind], alias)
	}
	var out []CheckType
	for _, kind := range s.factory.Kinds() {
		aliases := byKind[kind]
		sort.Strings(aliases)
		out = append(out, CheckType{Kind: string(kind), Aliases: aliases})
	}
	return out
}

// RulesPath picks the rules file: the explicit path, then rules_file from
// .aegis.yaml, then aegis-rules.yaml in the project root.
func RulesPath(root, explicit string, cfg domain.ProjectConfig) (string, error) {
	switch {
	case explicit != "":
		return filepath.Abs(explicit)
	case cfg.RulesFile != "":
		return cfg.RulesFile, nil
	default:
		return filepath.Join(root, domain.DefaultRulesFile), nil
	}
}

func loadRules(configs domain.ConfigLoader, rules domain.RuleLoader, root, rulesFile string) (domain.ProjectConfig, domain.RuleSet, error) {
	// 1. Project config
	cfg, err := configs.Load(root)
	if err != nil {
		return domain.ProjectConfig{}, domain.RuleSet{}, fmt.Errorf("loading config: %w", err)
	}

	// 2. Rules file
	path, err := RulesPath(root, rulesFile, cfg)
	if err != nil {
		return domain.ProjectConfig{}, domain.RuleSet{}, fmt.Errorf("resolving rules path: %w", err)
	}
	rs, err := rules.Load(path)
	if err != nil {
		return domain.ProjectConfig{}, domain.RuleSet{}, fmt.Errorf("loading rules: %w", err)
	}

	// 3. Rule-file config under the project config
	merged := cfg.WithRuleSet(rs)
	if err := merged.Validate(); err != nil {
		return domain.ProjectConfig{}, domain.RuleSet{}, fmt.Errorf("invalid rules config: %w", err)
	}
	return merged, rs, nil
}

// Resolve reports which registered kind a declared type name maps to.
func (s *RuleService) Resolve(typ string) (CheckType, bool) {
	kind, _ := check.Normalize(typ, nil)
	for _, ct := range s.CheckTypes() {
		if ct.Kind == string(kind) {
			return ct, true
		}
	}
	return CheckType{}, false
}
