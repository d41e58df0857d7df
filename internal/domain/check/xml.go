package check

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

// Presence modes shared by the XML, JSON and properties strategies.
const (
	modeExists        = "EXISTS"
	modeNotExists     = "NOT_EXISTS"
	modeOptionalMatch = "OPTIONAL_MATCH"
	modeValueMatch    = "VALUE_MATCH"
)

type elementContentPair struct {
	Element         string   `mapstructure:"element"`
	ForbiddenTokens []string `mapstructure:"forbiddenTokens"`
	RequiredTokens  []string `mapstructure:"requiredTokens"`
}

type xmlConfig struct {
	Common              `mapstructure:",squash"`
	XPath               string               `mapstructure:"xpath"`
	XPaths              []string             `mapstructure:"xpaths"`
	ValidationType      string               `mapstructure:"validationType"`
	Mode                string               `mapstructure:"mode"`
	ExpectedValue       *string              `mapstructure:"expectedValue"`
	Operator            string               `mapstructure:"operator"`
	ValueType           string               `mapstructure:"valueType"`
	ForbiddenValue      *string              `mapstructure:"forbiddenValue"`
	ForbiddenTokens     []string             `mapstructure:"forbiddenTokens"`
	RequiredFields      map[string]string    `mapstructure:"requiredFields"`
	MinVersions         map[string]string    `mapstructure:"minVersions"`
	ElementContentPairs []elementContentPair `mapstructure:"elementContentPairs"`
}

// xmlGeneric evaluates XPath expressions and element shorthands against XML files.
type xmlGeneric struct {
	cfg xmlConfig
}

func newXMLGeneric(params map[string]any) (Strategy, error) {
	var cfg xmlConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	cfg.Mode = upper(cfg.Mode, modeExists)
	cfg.Operator = upper(cfg.Operator, string(eval.OpEQ))
	return &xmlGeneric{cfg: cfg}, nil
}

func (s *xmlGeneric) Validate() error {
	c := s.cfg
	if c.ValidationType != "" {
		return &domain.ConfigError{Reason: "Unknown validationType: " + c.ValidationType}
	}
	if len(c.FilePatterns) == 0 {
		return domain.MissingParam("filePatterns")
	}
	if len(c.expressions()) == 0 && len(c.RequiredFields) == 0 && len(c.MinVersions) == 0 && len(c.ElementContentPairs) == 0 {
		return domain.MissingParam("xpath")
	}
	if len(c.expressions()) > 0 && c.Mode == modeValueMatch && c.ExpectedValue == nil {
		return domain.MissingParam("expectedValue")
	}
	return nil
}

// expressions lists xpath followed by every entry of xpaths.
func (c xmlConfig) expressions() []string {
	var out []string
	if c.XPath != "" {
		out = append(out, c.XPath)
	}
	for _, x := range c.XPaths {
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}

// elementXPath turns a bare element name into a namespace-agnostic XPath.
func elementXPath(key string) string {
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "(") {
		return key
	}
	return fmt.Sprintf("//*[local-name()='%s']", key)
}

func (s *xmlGeneric) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}

	t := newTally()
	for _, f := range env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig) {
		t.inspect(f)
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.fail(f, "Read Error: "+err.Error())
			continue
		}
		ev := xmlFile{s: s, env: env, t: t, data: data}
		if err := ev.run(); err != nil {
			t.fail(f, "Parse Error: "+err.Error())
			continue
		}
		if len(ev.reasons) > 0 {
			t.fail(f, ev.reasons...)
			continue
		}
		t.pass(f, ev.positive)
	}

	if t.verdict(s.cfg.Common) {
		return t.finish(chk, s.cfg.Message, true, fmt.Sprintf("Passed XML check (%d/%d files)", t.passed, t.total))
	}
	return t.finish(chk, s.cfg.Message, false,
		fmt.Sprintf("XML check failed. (Passed: %d/%d)\n• %s", t.passed, t.total, t.bulletFailures()))
}

// xmlFile evaluates every configured constraint against one document.
type xmlFile struct {
	s    *xmlGeneric
	env  *Env
	t    *tally
	data []byte

	reasons  []string
	positive bool
}

func (x *xmlFile) query(expr string) ([]string, error) {
	if x.env.Backends.XML == nil {
		return nil, fmt.Errorf("no XML backend configured")
	}
	return x.env.Backends.XML.Query(x.data, expr)
}

func (x *xmlFile) values(raw []string) []string {
	var out []string
	for _, v := range raw {
		out = append(out, resolveInto(x.env, x.s.cfg.Common, true, v, x.t)...)
	}
	return out
}

func (x *xmlFile) run() error {
	c := x.s.cfg
	for _, expr := range c.expressions() {
		if err := x.xpath(expr); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(c.RequiredFields) {
		if err := x.requiredField(key, c.RequiredFields[key]); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(c.MinVersions) {
		if err := x.minVersion(key, c.MinVersions[key]); err != nil {
			return err
		}
	}
	for _, pair := range c.ElementContentPairs {
		if err := x.contentPair(pair); err != nil {
			return err
		}
	}
	return nil
}

func (x *xmlFile) xpath(expr string) error {
	c := x.s.cfg
	nodes, err := x.query(expr)
	if err != nil {
		return err
	}

	if c.Mode == modeNotExists {
		if len(nodes) == 0 {
			return nil
		}
		switch {
		case c.ForbiddenValue != nil:
			for _, v := range x.values(nodes) {
				if eval.Compare(v, *c.ForbiddenValue, eval.ParseOperator(c.Operator), eval.ParseValueType(c.ValueType)) {
					x.reasons = append(x.reasons, fmt.Sprintf("Forbidden value '%s' found at %s", v, expr))
					x.t.found.add(v)
				}
			}
		case len(c.ForbiddenTokens) > 0:
			for _, v := range x.values(nodes) {
				for _, tok := range c.ForbiddenTokens {
					if strings.Contains(v, tok) {
						x.reasons = append(x.reasons, fmt.Sprintf("Forbidden token '%s' found at %s", tok, expr))
						x.t.found.add(tok)
					}
				}
			}
		default:
			x.reasons = append(x.reasons, "Found forbidden node: "+expr)
			x.t.found.add(expr)
		}
		return nil
	}

	if len(nodes) == 0 {
		if c.Mode != modeOptionalMatch {
			x.reasons = append(x.reasons, "XPath not found: "+expr)
		}
		return nil
	}
	if c.ExpectedValue == nil {
		x.positive = true
		x.t.found.add(nodes...)
		return nil
	}
	vals := x.values(nodes)
	for _, v := range vals {
		if eval.Compare(v, *c.ExpectedValue, eval.ParseOperator(c.Operator), eval.ParseValueType(c.ValueType)) {
			x.positive = true
			x.t.found.add(v)
			return nil
		}
	}
	x.reasons = append(x.reasons, fmt.Sprintf("Value mismatch at %s: expected %s '%s', found %s",
		expr, c.Operator, *c.ExpectedValue, bracketList(vals)))
	return nil
}

func (x *xmlFile) requiredField(key, expected string) error {
	nodes, err := x.query(elementXPath(key))
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		x.reasons = append(x.reasons, "Missing field: "+key)
		return nil
	}
	vals := x.values(nodes)
	for _, v := range vals {
		if v == expected {
			x.positive = true
			x.t.found.add(key + "=" + v)
			return nil
		}
	}
	x.reasons = append(x.reasons, fmt.Sprintf("Field '%s' mismatch: expected '%s', found %s", key, expected, bracketList(vals)))
	return nil
}

func (x *xmlFile) minVersion(key, floor string) error {
	nodes, err := x.query(elementXPath(key))
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		x.reasons = append(x.reasons, "Missing element: "+key)
		return nil
	}
	ok := true
	for _, v := range x.values(nodes) {
		if !eval.Compare(v, floor, eval.OpGTE, eval.TypeSemver) {
			ok = false
			x.reasons = append(x.reasons, fmt.Sprintf("Version too low at %s: found '%s', expected >= '%s'", key, v, floor))
			continue
		}
		x.t.found.add(key + "=" + v)
	}
	if ok {
		x.positive = true
	}
	return nil
}

func (x *xmlFile) contentPair(p elementContentPair) error {
	if p.Element == "" {
		return nil
	}
	nodes, err := x.query(elementXPath(p.Element))
	if err != nil {
		return err
	}
	for _, text := range nodes {
		for _, tok := range p.RequiredTokens {
			if !strings.Contains(text, tok) {
				x.reasons = append(x.reasons, fmt.Sprintf("Element '%s' missing required token '%s'", p.Element, tok))
			}
		}
		for _, tok := range p.ForbiddenTokens {
			if strings.Contains(text, tok) {
				x.reasons = append(x.reasons, fmt.Sprintf("Element '%s' contains forbidden token '%s'", p.Element, tok))
				x.t.found.add(tok)
			}
		}
	}
	if len(nodes) > 0 && len(p.RequiredTokens) > 0 {
		x.positive = true
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
