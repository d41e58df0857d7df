package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/check"
	"github.com/raks/aegis/internal/domain/resolve"
)

// ValidationRequest is one validation run: a project, its rules and the merged configuration.
type ValidationRequest struct {
	ProjectPath string
	Rules       []domain.Rule
	Config      domain.ProjectConfig
	// LinkedRoot overrides the configured or discovered linked config project.
	LinkedRoot string
}

// ValidationDeps wires a ValidationService. Git, Linked, Recorder and
// Factory are optional; a nil Factory means the built-in check kinds.
type ValidationDeps struct {
	Scanner  domain.ProjectScanner
	Linked   domain.LinkedConfigFinder
	Backends check.Backends
	Configs  domain.ConfigLoader
	Rules    domain.RuleLoader
	Git      domain.GitInfo
	Recorder domain.ValidationRecorder
	Factory  *check.Factory
	Logger   zerolog.Logger
}

// ValidationService runs a rule set against one project and assembles the report.
type ValidationService struct {
	scanner  domain.ProjectScanner
	linked   domain.LinkedConfigFinder
	backends check.Backends
	factory  *check.Factory
	configs  domain.ConfigLoader
	rules    domain.RuleLoader
	git      domain.GitInfo
	recorder domain.ValidationRecorder
	log      zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewValidationService creates a ValidationService.
func NewValidationService(deps ValidationDeps) *ValidationService {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	factory := deps.Factory
	if factory == nil {
		factory = check.NewFactory()
	}
	return &ValidationService{
		scanner:  deps.Scanner,
		linked:   deps.Linked,
		backends: deps.Backends,
		factory:  factory,
		configs:  deps.Configs,
		rules:    deps.Rules,
		git:      deps.Git,
		recorder: recorder,
		log:      deps.Logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ValidateProject loads the project's configuration and rules and validates it.
// Empty rulesFile and linkedRoot fall back to .aegis.yaml and the defaults.
func (s *ValidationService) ValidateProject(ctx context.Context, projectPath, rulesFile, linkedRoot string) (*domain.ValidationReport, error) {
	req, err := s.Prepare(projectPath, rulesFile, linkedRoot)
	if err != nil {
		return nil, err
	}
	return s.Validate(ctx, req)
}

// Prepare builds a request from the project config and the rules file it names.
func (s *ValidationService) Prepare(projectPath, rulesFile, linkedRoot string) (ValidationRequest, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return ValidationRequest{}, fmt.Errorf("resolving project path: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return ValidationRequest{}, fmt.Errorf("%w: %s", domain.ErrProjectRootMissing, root)
	}

	cfg, rs, err := loadRules(s.configs, s.rules, root, rulesFile)
	if err != nil {
		return ValidationRequest{}, err
	}
	if linkedRoot != "" {
		if linkedRoot, err = filepath.Abs(linkedRoot); err != nil {
			return ValidationRequest{}, fmt.Errorf("resolving linked config path: %w", err)
		}
	}
	return ValidationRequest{ProjectPath: root, Rules: rs.Rules, Config: cfg, LinkedRoot: linkedRoot}, nil
}

// Validate evaluates every rule of req in order. The only error returned for
// a readable project is a cancelled context.
func (s *ValidationService) Validate(ctx context.Context, req ValidationRequest) (*domain.ValidationReport, error) {
	// 1. The project root must be a directory
	root, err := filepath.Abs(req.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectRootMissing, root)
	}
	cfg := req.Config

	report := &domain.ValidationReport{
		RunID:         s.newID(),
		ProjectPath:   root,
		ProjectName:   filepath.Base(root),
		Timestamp:     s.now().UTC(),
		Passed:        []domain.RuleResult{},
		Failed:        []domain.RuleResult{},
		Skipped:       []string{},
		NotApplicable: []string{},
		Labels:        cfg.MergedLabels(),
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Str("project", root).Int("rules", len(req.Rules)).Msg("validation started")

	// 2. Linked config root
	report.LinkedRoot = s.linkedRoot(root, req.LinkedRoot, cfg, log)

	// 3. Project types
	ignore := cfg.IgnoreRules()
	var files []string
	if res, err := s.scanner.Scan(root, ignore); err != nil {
		log.Warn().Err(err).Msg("scanning project")
	} else {
		files = res.Files
	}
	s.recorder.ObserveFilesScanned(len(files))
	report.ProjectTypes = ClassifyProjectTypes(root, files, cfg.ProjectTypes, cfg.TypeDefinitions)

	if s.git != nil {
		if hash, err := s.git.CommitHash(root); err == nil {
			report.CommitHash = hash
		} else {
			log.Debug().Err(err).Msg("no commit hash")
		}
	}

	// 4. One resolver and env for the whole run
	resolver, err := resolve.New(s.scanner, s.backends.Properties, resolve.Options{
		Patterns: cfg.PropertySyntax,
		Ignore:   ignore,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("building property resolver: %w", err)
	}
	env := check.NewEnv(root, domain.ScanConfig{Ignore: ignore, LinkedRoot: report.LinkedRoot},
		s.scanner, s.backends, resolver, s.factory, log)
	env.Environments = cfg.Environments

	// 5. Rules, in declaration order
	for _, rule := range req.Rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := rule.ID + ": " + rule.Name
		if !rule.IsEnabled() || cfg.IsRuleDisabled(rule.ID) {
			report.Skipped = append(report.Skipped, label)
			continue
		}
		if !appliesTo(rule, report.ProjectTypes) {
			report.NotApplicable = append(report.NotApplicable, label)
			continue
		}

		rr := s.evaluate(env, rule, log)
		s.recorder.ObserveRule(rr.Severity, rr.Passed)
		log.Debug().Str("rule", rule.ID).Bool("passed", rr.Passed).Msg("rule evaluated")
		if rr.Passed {
			report.Passed = append(report.Passed, rr)
		} else {
			report.Failed = append(report.Failed, rr)
		}
	}

	// 6. Summary
	report.Summary = domain.ReportSummary{
		Total:         len(req.Rules),
		Passed:        len(report.Passed),
		Failed:        len(report.Failed),
		Skipped:       len(report.Skipped),
		NotApplicable: len(report.NotApplicable),
	}
	return report, nil
}

func (s *ValidationService) linkedRoot(root, explicit string, cfg domain.ProjectConfig, log zerolog.Logger) string {
	switch {
	case explicit != "":
		return explicit
	case cfg.LinkedConfig != "":
		return cfg.LinkedConfig
	case cfg.ShouldDiscoverLinkedConfig() && s.linked != nil:
		if linked, ok := s.linked.DiscoverLinked(root); ok {
			log.Info().Str("linked", linked).Msg("discovered linked config project")
			return linked
		}
	}
	return ""
}

// appliesTo reports whether rule targets one of types. Rules without
// appliesTo target every project.
func appliesTo(rule domain.Rule, types []string) bool {
	if len(rule.AppliesTo) == 0 {
		return true
	}
	for _, want := range rule.AppliesTo {
		for _, have := range types {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

func (s *ValidationService) evaluate(env *check.Env, rule domain.Rule, log zerolog.Logger) domain.RuleResult {
	rr := domain.RuleResult{
		ID:            rule.ID,
		Name:          rule.Name,
		Severity:      rule.EffectiveSeverity(),
		Scope:         rule.EffectiveScope(),
		Passed:        true,
		Description:   rule.Description,
		UseCase:       rule.UseCase,
		Rationale:     rule.Rationale,
		DocLink:       rule.DocLink,
		ConfigSummary: configSummary(rule),
		Checks:        make([]domain.CheckResult, 0, len(rule.Checks)),
	}
	for _, chk := range rule.Checks {
		chk.RuleID = rule.ID
		chk.Rule = &rule
		res := s.execute(env, chk, log)
		if !res.Passed {
			rr.Passed = false
		}
		rr.Checks = append(rr.Checks, res)
	}
	return rr
}

// execute runs one check. Factory errors and panics become failed results.
func (s *ValidationService) execute(env *check.Env, chk domain.Check, log zerolog.Logger) (res domain.CheckResult) {
	kind, _ := check.Normalize(chk.Type, nil)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("rule", chk.RuleID).Str("check", chk.Type).Interface("panic", r).Msg("check panicked")
			res = executionError(chk, fmt.Sprint(r))
		}
		s.recorder.ObserveCheck(string(kind), res.Passed, time.Since(start))
	}()

	strategy, err := s.factory.Create(chk)
	if err != nil {
		log.Warn().Err(err).Str("rule", chk.RuleID).Str("check", chk.Type).Msg("creating check")
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			return check.ConfigFailure(chk, err)
		}
		return executionError(chk, err.Error())
	}
	return strategy.Execute(env, chk)
}

func executionError(chk domain.Check, msg string) domain.CheckResult {
	return domain.CheckResult{
		RuleID:       chk.RuleID,
		Description:  chk.Description,
		Passed:       false,
		Message:      "Execution error: " + msg,
		MatchedPaths: domain.NewPathSet(),
	}
}

type ruleSummary struct {
	ID             string         `yaml:"id"`
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description,omitempty"`
	Enabled        bool           `yaml:"enabled"`
	Severity       string         `yaml:"severity"`
	SuccessMessage string         `yaml:"successMessage,omitempty"`
	ErrorMessage   string         `yaml:"errorMessage,omitempty"`
	UseCase        string         `yaml:"useCase,omitempty"`
	Rationale      string         `yaml:"rationale,omitempty"`
	Checks         []checkSummary `yaml:"checks,omitempty"`
}

type checkSummary struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params,omitempty"`
}

// configSummary renders the rule as YAML for reports. Per-check environment
// lists are left out since they repeat the global configuration.
func configSummary(rule domain.Rule) string {
	sum := ruleSummary{
		ID:             rule.ID,
		Name:           rule.Name,
		Description:    rule.Description,
		Enabled:        rule.IsEnabled(),
		Severity:       rule.EffectiveSeverity(),
		SuccessMessage: rule.SuccessMessage,
		ErrorMessage:   rule.ErrorMessage,
		UseCase:        rule.UseCase,
		Rationale:      rule.Rationale,
	}
	for _, c := range rule.Checks {
		params := make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			if k != "environments" {
				params[k] = v
			}
		}
		sum.Checks = append(sum.Checks, checkSummary{Type: c.Type, Params: params})
	}
	out, err := yaml.Marshal(sum)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
