package check

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

const (
	clientIDMapMode = "CLIENTIDMAP"
	secureMode      = "SECURE"

	defaultClientIDMapPrefix = "truist.authz.policy.clientIDmap"
)

var securePropertyLine = regexp.MustCompile(`^secure::.+=\^\{.+=\}$`)

type clientIDMapConfig struct {
	Common         `mapstructure:",squash"`
	FileExtensions []string `mapstructure:"fileExtensions"`
	Environments   []string `mapstructure:"environments"`
	ValidationType string   `mapstructure:"validationType"`
	// Prefix is the property key prefix of CLIENTIDMAP entries.
	Prefix string `mapstructure:"prefix"`
}

// clientIDMap validates the client ID mapping entries, or the encrypted
// secure:: entries, of environment property files.
type clientIDMap struct {
	cfg     clientIDMapConfig
	pattern *regexp.Regexp
}

func newClientIDMap(params map[string]any) (Strategy, error) {
	var cfg clientIDMapConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	cfg.ValidationType = upper(cfg.ValidationType, clientIDMapMode)
	if cfg.Prefix == "" {
		cfg.Prefix = defaultClientIDMapPrefix
	}
	s := &clientIDMap{cfg: cfg, pattern: securePropertyLine}
	if cfg.ValidationType != secureMode {
		s.pattern = regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.Prefix) +
			`\.(GET|POST|PUT|DELETE|PATCH):[^=]+=.+$`)
	}
	return s, nil
}

func (s *clientIDMap) Validate() error {
	if len(s.cfg.FileExtensions) == 0 {
		return domain.MissingParam("fileExtensions")
	}
	switch s.cfg.ValidationType {
	case clientIDMapMode, secureMode:
	default:
		return &domain.ConfigError{Key: "validationType", Reason: "must be CLIENTIDMAP or SECURE"}
	}
	return nil
}

func (s *clientIDMap) expectedPattern() string {
	if s.cfg.ValidationType == secureMode {
		return "secure::<name>=^{<encrypted-value>=}"
	}
	return s.cfg.Prefix + ".<METHOD>:/<path>=<id>:<name>;<id>:<name>;..."
}

func (s *clientIDMap) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}
	envs := env.Environments
	if len(s.cfg.Environments) > 0 {
		envs = expandEnvironments(s.cfg.Environments, env.Environments)
	}
	if len(envs) == 0 {
		return ConfigFailure(chk, domain.MissingParam("environments"))
	}

	var failures []string
	matched := false
	t := newTally()
	for _, f := range env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig) {
		if !environmentFile(f.Rel, envs, s.cfg.FileExtensions) {
			continue
		}
		t.inspect(f)
		content, err := env.ReadFile(f, false)
		if err != nil {
			failures = append(failures, fmt.Sprintf("Error reading %s: %v", f.Label(), err))
			continue
		}
		fileMatched := false
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
				continue
			}
			if !s.pattern.MatchString(line) {
				continue
			}
			fileMatched = true
			t.found.add(line)
			if s.cfg.ValidationType == clientIDMapMode && !wellFormedPairs(line) {
				failures = append(failures, fmt.Sprintf("Invalid format in %s: %s (contains double colons or invalid separators)", f.Label(), line))
			}
		}
		if fileMatched {
			matched = true
			t.pass(f, true)
		}
	}

	if !matched {
		scanned := "No matching environment files found"
		if len(t.checked) > 0 {
			scanned = "Files scanned: " + strings.Join(t.checked, ", ")
		}
		return t.finish(chk, s.cfg.Message, false, fmt.Sprintf(
			"No valid properties matching the %s pattern found in environment files.\n%s\nExpected pattern: %s\n"+
				"Check that your files contain the required properties with correct format.",
			s.cfg.ValidationType, scanned, s.expectedPattern()))
	}
	if len(failures) > 0 {
		return t.finish(chk, s.cfg.Message, false, "Validation failures:\n• "+strings.Join(failures, "\n• "))
	}
	return t.finish(chk, s.cfg.Message, true,
		"All client IDs have corresponding entries in the mapping\nFiles validated: "+strings.Join(t.checked, "; "))
}

// environmentFile reports whether rel is named <env>.<ext> for one of envs
// and exts. Extensions match with or without their leading dot.
func environmentFile(rel string, envs, exts []string) bool {
	name := filepath.Base(rel)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	envOK, extOK := false, false
	for _, e := range envs {
		if e == base {
			envOK = true
		}
	}
	for _, x := range exts {
		if strings.TrimPrefix(x, ".") == strings.TrimPrefix(ext, ".") && ext != "" {
			extOK = true
		}
	}
	return envOK && extOK
}

// wellFormedPairs reports whether every ;-separated pair after the first =
// holds exactly one colon.
func wellFormedPairs(line string) bool {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return false
	}
	for _, pair := range strings.Split(line[i+1:], ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if strings.Count(pair, ":") != 1 {
			return false
		}
	}
	return true
}
