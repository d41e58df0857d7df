package check

import (
	"fmt"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

type fileExistsConfig struct {
	Common   `mapstructure:",squash"`
	Mode     string `mapstructure:"mode"`
	MinCount int    `mapstructure:"minCount"`
}

// fileExists asserts that files matching the patterns are present, or absent.
type fileExists struct {
	cfg fileExistsConfig
}

func newFileExists(params map[string]any) (Strategy, error) {
	cfg := fileExistsConfig{MinCount: 1}
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	cfg.Mode = upper(cfg.Mode, modeExists)
	if cfg.MinCount < 1 {
		cfg.MinCount = 1
	}
	return &fileExists{cfg: cfg}, nil
}

func (s *fileExists) Validate() error {
	if len(s.cfg.FilePatterns) == 0 {
		return domain.MissingParam("filePatterns")
	}
	return nil
}

func (s *fileExists) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}

	files := env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig)
	t := newTally()
	for _, f := range files {
		t.inspect(f)
	}
	patterns := bracketList(s.cfg.FilePatterns)

	if s.cfg.Mode == modeNotExists {
		if len(files) == 0 {
			return t.finish(chk, s.cfg.Message, true, "No files match "+patterns)
		}
		t.found.add(t.checked...)
		return t.finish(chk, s.cfg.Message, false,
			fmt.Sprintf("Found %d forbidden file(s) matching %s:\n• %s", len(files), patterns, strings.Join(t.checked, "\n• ")))
	}

	if len(files) < s.cfg.MinCount {
		return t.finish(chk, s.cfg.Message, false,
			fmt.Sprintf("Expected at least %d file(s) matching %s, found %d", s.cfg.MinCount, patterns, len(files)))
	}
	for _, f := range files {
		t.pass(f, true)
	}
	return t.finish(chk, s.cfg.Message, true, fmt.Sprintf("Found %d file(s) matching %s", len(files), patterns))
}
