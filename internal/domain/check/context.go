package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

type contextConfig struct {
	NameContains    string `mapstructure:"nameContains"`
	NameNotContains string `mapstructure:"nameNotContains"`
	NameRegex       string `mapstructure:"nameRegex"`
	IgnoreCase      bool   `mapstructure:"ignoreCase"`
	Message         string `mapstructure:"message"`
}

// projectContext constrains the name of the project directory.
type projectContext struct {
	cfg contextConfig
	re  *regexp.Regexp
}

func newProjectContext(params map[string]any) (Strategy, error) {
	cfg := contextConfig{IgnoreCase: true}
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	s := &projectContext{cfg: cfg}
	if cfg.NameRegex != "" {
		re, err := regexp.Compile("^(?:" + cfg.NameRegex + ")$")
		if err != nil {
			return nil, &domain.ConfigError{Key: "nameRegex", Reason: err.Error()}
		}
		s.re = re
	}
	return s, nil
}

func (s *projectContext) Validate() error {
	if s.cfg.NameContains == "" && s.cfg.NameNotContains == "" && s.cfg.NameRegex == "" {
		return &domain.ConfigError{Reason: "at least one of 'nameContains', 'nameNotContains' or 'nameRegex' is required"}
	}
	return nil
}

func (s *projectContext) contains(name, part string) bool {
	if s.cfg.IgnoreCase {
		return strings.Contains(strings.ToLower(name), strings.ToLower(part))
	}
	return strings.Contains(name, part)
}

func (s *projectContext) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}
	name := env.ProjectName()
	t := newTally()
	t.checked = []string{name}

	var violation string
	switch {
	case s.cfg.NameContains != "" && !s.contains(name, s.cfg.NameContains):
		violation = fmt.Sprintf("does not contain '%s'", s.cfg.NameContains)
	case s.cfg.NameNotContains != "" && s.contains(name, s.cfg.NameNotContains):
		violation = fmt.Sprintf("must not contain '%s'", s.cfg.NameNotContains)
	case s.re != nil && !s.re.MatchString(name):
		violation = fmt.Sprintf("does not match regex '%s'", s.cfg.NameRegex)
	}
	if violation != "" {
		return t.finish(chk, s.cfg.Message, false, fmt.Sprintf("Project name '%s' %s", name, violation))
	}
	t.matching = []string{name}
	return t.finish(chk, s.cfg.Message, true, fmt.Sprintf("Project name '%s' satisfies context constraints", name))
}
