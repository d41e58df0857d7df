package check

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

var defaultPropertyPatterns = []string{"**/*.properties"}

type propertyRule struct {
	Name               string   `mapstructure:"name"`
	Values             []string `mapstructure:"values"`
	CaseSensitiveName  *bool    `mapstructure:"caseSensitiveName"`
	CaseSensitiveValue *bool    `mapstructure:"caseSensitiveValue"`
}

type validationRule struct {
	Type     string `mapstructure:"type"`
	Property string `mapstructure:"property"`
	Pattern  string `mapstructure:"pattern"`
}

type propertyConfig struct {
	Common          `mapstructure:",squash"`
	Properties      []propertyRule    `mapstructure:"properties"`
	Property        string            `mapstructure:"property"`
	ExpectedValue   *string           `mapstructure:"expectedValue"`
	Value           *string           `mapstructure:"value"`
	Operator        string            `mapstructure:"operator"`
	ValueType       string            `mapstructure:"valueType"`
	Mode            string            `mapstructure:"mode"`
	RequiredFields  map[string]string `mapstructure:"requiredFields"`
	ValidationRules []validationRule  `mapstructure:"validationRules"`
	Environments    []string          `mapstructure:"environments"`
}

func (c propertyConfig) expected() *string {
	if c.ExpectedValue != nil {
		return c.ExpectedValue
	}
	return c.Value
}

// propertyGeneric checks keys and values of Java properties files.
type propertyGeneric struct {
	cfg propertyConfig
}

func newPropertyGeneric(params map[string]any) (Strategy, error) {
	var cfg propertyConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FilePatterns) == 0 {
		cfg.FilePatterns = defaultPropertyPatterns
	}
	cfg.Mode = upper(cfg.Mode, modeExists)
	cfg.Operator = upper(cfg.Operator, string(eval.OpMatches))
	return &propertyGeneric{cfg: cfg}, nil
}

func (s *propertyGeneric) Validate() error {
	c := s.cfg
	if len(c.Properties) == 0 && c.Property == "" && len(c.RequiredFields) == 0 && len(c.ValidationRules) == 0 {
		return domain.MissingParam("properties")
	}
	if c.Property != "" && c.Mode == modeValueMatch && c.expected() == nil {
		return domain.MissingParam("expectedValue")
	}
	for _, p := range c.Properties {
		if p.Name == "" {
			return &domain.ConfigError{Key: "properties", Reason: "entries need a name"}
		}
	}
	return nil
}

func (s *propertyGeneric) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}
	if env.Backends.Properties == nil {
		return plain(chk, false, "Execution error: no properties backend configured")
	}

	envs := expandEnvironments(s.cfg.Environments, env.Environments)
	t := newTally()
	for _, f := range env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig) {
		if !matchesEnvironment(f.Rel, envs) {
			continue
		}
		t.inspect(f)
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.fail(f, "Read Error: "+err.Error())
			continue
		}
		props, err := env.Backends.Properties.Parse(data)
		if err != nil {
			t.fail(f, "Parse Error: "+err.Error())
			continue
		}
		pf := propertyFile{s: s, env: env, t: t, props: props}
		pf.run()
		if len(pf.reasons) > 0 {
			t.fail(f, pf.reasons...)
			continue
		}
		t.pass(f, pf.positive)
	}

	if t.verdict(s.cfg.Common) {
		return t.finish(chk, s.cfg.Message, true, fmt.Sprintf("Passed property check (%d/%d files)", t.passed, t.total))
	}
	return t.finish(chk, s.cfg.Message, false,
		fmt.Sprintf("Property check failed. (Passed: %d/%d)\n• %s", t.passed, t.total, t.bulletFailures()))
}

// expandEnvironments replaces ALL with the globally configured environments.
func expandEnvironments(declared, global []string) []string {
	var out []string
	for _, e := range declared {
		if strings.EqualFold(e, "ALL") {
			out = append(out, global...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesEnvironment reports whether the file name targets one of envs:
// env.properties, name-env.properties, name_env.properties or name.env.properties.
func matchesEnvironment(rel string, envs []string) bool {
	if len(envs) == 0 {
		return true
	}
	base := strings.ToLower(filepath.Base(rel))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, e := range envs {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if stem == e || strings.HasSuffix(stem, "-"+e) || strings.HasSuffix(stem, "_"+e) || strings.HasSuffix(stem, "."+e) {
			return true
		}
	}
	return false
}

type propertyFile struct {
	s     *propertyGeneric
	env   *Env
	t     *tally
	props *domain.Properties

	reasons  []string
	positive bool
}

func (p *propertyFile) fail(format string, args ...any) {
	p.reasons = append(p.reasons, fmt.Sprintf(format, args...))
}

func (p *propertyFile) resolved(v string) []string {
	return resolveInto(p.env, p.s.cfg.Common, false, v, p.t)
}

func (p *propertyFile) run() {
	c := p.s.cfg
	for _, rule := range c.Properties {
		p.property(rule)
	}
	if c.Property != "" {
		p.single()
	}
	for _, key := range sortedKeys(c.RequiredFields) {
		p.requiredField(key, c.RequiredFields[key])
	}
	for _, rule := range c.ValidationRules {
		p.validation(rule)
	}
}

func (p *propertyFile) lookup(name string, caseSensitive bool) (string, bool) {
	if caseSensitive {
		return p.props.Get(name)
	}
	return p.props.GetFold(name)
}

// inSet reports whether any resolution of v is one of allowed.
func (p *propertyFile) inSet(v string, allowed []string, caseSensitive bool) (string, bool) {
	vals := p.resolved(v)
	for _, actual := range vals {
		for _, a := range allowed {
			if actual == a || (!caseSensitive && strings.EqualFold(actual, a)) {
				return actual, true
			}
		}
	}
	return vals[0], false
}

func (p *propertyFile) property(rule propertyRule) {
	nameCS := rule.CaseSensitiveName == nil || *rule.CaseSensitiveName
	valueCS := rule.CaseSensitiveValue == nil || *rule.CaseSensitiveValue
	v, present := p.lookup(rule.Name, nameCS)

	switch p.s.cfg.Mode {
	case modeNotExists:
		if !present {
			return
		}
		if len(rule.Values) == 0 {
			p.fail("Forbidden property present: %s", rule.Name)
			p.t.found.add(rule.Name)
			return
		}
		if actual, ok := p.inSet(v, rule.Values, valueCS); ok {
			p.fail("Forbidden value for '%s': '%s'", rule.Name, actual)
			p.t.found.add(rule.Name + "=" + actual)
		}
	case modeOptionalMatch, modeExists, modeValueMatch:
		if !present {
			if p.s.cfg.Mode != modeOptionalMatch {
				p.fail("Missing property: %s", rule.Name)
			}
			return
		}
		if len(rule.Values) == 0 {
			p.positive = true
			p.t.found.add(rule.Name + "=" + v)
			return
		}
		actual, ok := p.inSet(v, rule.Values, valueCS)
		if !ok {
			p.fail("Property '%s' has value '%s', expected one of %s", rule.Name, actual, bracketList(rule.Values))
			return
		}
		p.positive = true
		p.t.found.add(rule.Name + "=" + actual)
	}
}

func (p *propertyFile) single() {
	c := p.s.cfg
	key := c.Property
	v, present := p.props.Get(key)
	expected := c.expected()

	switch c.Mode {
	case modeNotExists:
		if present {
			p.fail("Forbidden key present: %s", key)
			p.t.found.add(key)
		}
		return
	case modeExists:
		if !present {
			p.fail("Missing key: %s", key)
			return
		}
		p.positive = true
		p.t.found.add(key + "=" + v)
		return
	}

	if !present {
		if c.Mode != modeOptionalMatch {
			p.fail("Missing key: %s", key)
		}
		return
	}
	if expected == nil {
		p.positive = true
		return
	}
	vals := p.resolved(v)
	for _, actual := range vals {
		if eval.CompareValues(&actual, expected, eval.ParseOperator(c.Operator), eval.ParseValueType(c.ValueType)) {
			p.positive = true
			p.t.found.add(key + "=" + actual)
			return
		}
	}
	p.fail("Value mismatch for %s: expected %s '%s', found '%s'", key, c.Operator, *expected, vals[0])
}

func (p *propertyFile) requiredField(key, expected string) {
	v, present := p.props.Get(key)
	if !present {
		p.fail("Missing field: %s", key)
		return
	}
	vals := p.resolved(v)
	for _, actual := range vals {
		if actual == expected {
			p.positive = true
			p.t.found.add(key + "=" + actual)
			return
		}
	}
	p.fail("Mismatch at %s: expected '%s', found '%s'", key, expected, vals[0])
}

func (p *propertyFile) validation(rule validationRule) {
	switch strings.ToUpper(rule.Type) {
	case "REQUIRED":
		if v, ok := p.props.Get(rule.Property); !ok || strings.TrimSpace(v) == "" {
			p.fail("Required property missing or empty: %s", rule.Property)
			return
		}
		p.positive = true
	case "FORMAT":
		key, expr := rule.Property, rule.Pattern
		if key == "" {
			var found bool
			key, expr, found = strings.Cut(rule.Pattern, "=")
			if !found {
				p.fail("Invalid FORMAT rule '%s': expected key=regex", rule.Pattern)
				return
			}
		}
		v, ok := p.props.Get(key)
		if !ok {
			return
		}
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			p.fail("Invalid format pattern for %s: %v", key, err)
			return
		}
		if !re.MatchString(v) {
			p.fail("Property '%s' value '%s' does not match format '%s'", key, v, expr)
			return
		}
		p.positive = true
	}
}
