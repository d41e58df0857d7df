package check

import (
	"errors"
	"fmt"
	"os"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

var errNotObject = errors.New("document root is not an object")

type jsonConfig struct {
	Common           `mapstructure:",squash"`
	JSONPath         string            `mapstructure:"jsonPath"`
	Mode             string            `mapstructure:"mode"`
	ExpectedValue    *string           `mapstructure:"expectedValue"`
	ForbiddenValue   *string           `mapstructure:"forbiddenValue"`
	Operator         string            `mapstructure:"operator"`
	ValueType        string            `mapstructure:"valueType"`
	RequiredElements []string          `mapstructure:"requiredElements"`
	RequiredFields   map[string]string `mapstructure:"requiredFields"`
	ExactVersions    map[string]string `mapstructure:"exactVersions"`
	MinVersions      map[string]string `mapstructure:"minVersions"`
}

func (c jsonConfig) hasShorthand() bool {
	return len(c.RequiredElements) > 0 || len(c.RequiredFields) > 0 || len(c.ExactVersions) > 0 || len(c.MinVersions) > 0
}

// jsonGeneric evaluates JSONPath expressions and top-level key shorthands.
type jsonGeneric struct {
	cfg jsonConfig
}

func newJSONGeneric(params map[string]any) (Strategy, error) {
	var cfg jsonConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	cfg.Mode = upper(cfg.Mode, modeExists)
	cfg.Operator = upper(cfg.Operator, string(eval.OpEQ))
	return &jsonGeneric{cfg: cfg}, nil
}

func (s *jsonGeneric) Validate() error {
	c := s.cfg
	if len(c.FilePatterns) == 0 {
		return domain.MissingParam("filePatterns")
	}
	if c.JSONPath == "" && !c.hasShorthand() {
		return domain.MissingParam("jsonPath")
	}
	if c.JSONPath != "" && c.Mode == modeValueMatch && c.ExpectedValue == nil {
		return domain.MissingParam("expectedValue")
	}
	return nil
}

func (s *jsonGeneric) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}
	if env.Backends.JSON == nil {
		return plain(chk, false, "Execution error: no JSON backend configured")
	}

	t := newTally()
	for _, f := range env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig) {
		t.inspect(f)
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.fail(f, "Read Error: "+err.Error())
			continue
		}
		doc, err := env.Backends.JSON.Parse(data)
		if err != nil {
			t.fail(f, "Parse Error: "+err.Error())
			continue
		}
		jf := jsonFile{s: s, env: env, t: t, doc: doc}
		if err := jf.run(); err != nil {
			t.fail(f, "Error: "+err.Error())
			continue
		}
		if len(jf.reasons) > 0 {
			t.fail(f, jf.reasons...)
			continue
		}
		t.pass(f, jf.positive)
	}

	if t.verdict(s.cfg.Common) {
		return t.finish(chk, s.cfg.Message, true, fmt.Sprintf("Passed JSON check (%d/%d files)", t.passed, t.total))
	}
	return t.finish(chk, s.cfg.Message, false,
		fmt.Sprintf("JSON check failed. (Passed: %d/%d)\n• %s", t.passed, t.total, t.bulletFailures()))
}

type jsonFile struct {
	s   *jsonGeneric
	env *Env
	t   *tally
	doc any

	reasons  []string
	positive bool
}

func (j *jsonFile) fail(format string, args ...any) {
	j.reasons = append(j.reasons, fmt.Sprintf(format, args...))
}

func (j *jsonFile) compare(actual, expected string) bool {
	c := j.s.cfg
	return eval.Compare(actual, expected, eval.ParseOperator(c.Operator), eval.ParseValueType(c.ValueType))
}

func (j *jsonFile) resolved(raw []string) []string {
	var out []string
	for _, v := range raw {
		out = append(out, resolveInto(j.env, j.s.cfg.Common, true, v, j.t)...)
	}
	return out
}

func (j *jsonFile) stringify(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, j.env.Backends.JSON.Stringify(v))
	}
	return out
}

func (j *jsonFile) run() error {
	c := j.s.cfg
	if c.JSONPath != "" {
		if err := j.path(); err != nil {
			return err
		}
	}
	if !c.hasShorthand() {
		return nil
	}
	root, ok := j.doc.(map[string]any)
	if !ok {
		return errNotObject
	}

	for _, key := range c.RequiredElements {
		if _, ok := root[key]; !ok {
			j.fail("Missing required element: %s", key)
			continue
		}
		j.positive = true
	}
	for _, key := range sortedKeys(c.RequiredFields) {
		j.field(root, key, c.RequiredFields[key], "Field", j.compare)
	}
	for _, key := range sortedKeys(c.ExactVersions) {
		j.field(root, key, c.ExactVersions[key], "Version", func(a, e string) bool { return a == e })
	}
	for _, key := range sortedKeys(c.MinVersions) {
		j.field(root, key, c.MinVersions[key], "Minimum version", func(a, e string) bool {
			return eval.Compare(a, e, eval.OpGTE, eval.TypeSemver)
		})
	}
	return nil
}

func (j *jsonFile) path() error {
	c := j.s.cfg
	results, err := j.env.Backends.JSON.Query(j.doc, c.JSONPath)
	if err != nil {
		return err
	}

	if c.Mode == modeNotExists {
		if len(results) == 0 {
			return nil
		}
		if c.ForbiddenValue == nil {
			j.fail("JSONPath found: %s", c.JSONPath)
			j.t.found.add(j.stringify(results)...)
			return nil
		}
		for _, v := range j.resolved(j.stringify(results)) {
			if j.compare(v, *c.ForbiddenValue) {
				j.fail("Forbidden value '%s' found at %s", v, c.JSONPath)
				j.t.found.add(v)
			}
		}
		return nil
	}

	if len(results) == 0 {
		if c.Mode != modeOptionalMatch {
			j.fail("JSONPath not found: %s", c.JSONPath)
		}
		return nil
	}
	if c.ExpectedValue == nil {
		j.positive = true
		j.t.found.add(j.stringify(results)...)
		return nil
	}
	vals := j.resolved(j.stringify(results))
	for _, v := range vals {
		if j.compare(v, *c.ExpectedValue) {
			j.positive = true
			j.t.found.add(c.JSONPath + "=" + v)
			return nil
		}
	}
	j.fail("Value mismatch at %s: expected %s '%s', found %s", c.JSONPath, c.Operator, *c.ExpectedValue, bracketList(vals))
	return nil
}

// field checks a top-level key. A list value passes when any element does.
func (j *jsonFile) field(root map[string]any, key, expected, what string, ok func(actual, expected string) bool) {
	raw, present := root[key]
	if !present {
		j.fail("Missing required field: %s", key)
		return
	}
	items := []any{raw}
	if list, isList := raw.([]any); isList {
		items = list
	}
	var seen []string
	for _, v := range j.resolved(j.stringify(items)) {
		if ok(v, expected) {
			j.positive = true
			j.t.found.add(key + "=" + v)
			return
		}
		seen = append(seen, v)
	}
	if len(seen) == 0 {
		j.fail("%s '%s' check failed (no values found)", what, key)
		return
	}
	j.fail("%s mismatch at '%s': expected '%s', found %s", what, key, expected, bracketList(seen))
}
