package check

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

var placeholderValue = regexp.MustCompile(`^\$\{[^}]+\}$`)

type attributeSet struct {
	Element    string   `mapstructure:"element"`
	Attributes []string `mapstructure:"attributes"`
	// StrictPresence fails elements that omit a listed attribute. Defaults to true.
	StrictPresence *bool `mapstructure:"strictPresence"`
}

func (a attributeSet) strict() bool { return a.StrictPresence == nil || *a.StrictPresence }

type externalizedConfig struct {
	Common               `mapstructure:",squash"`
	ElementAttributeSets []attributeSet `mapstructure:"elementAttributeSets"`
}

// xmlExternalized asserts that selected XML attributes hold ${...}
// placeholders rather than literal values.
type xmlExternalized struct {
	cfg externalizedConfig
}

func newXMLExternalized(params map[string]any) (Strategy, error) {
	var cfg externalizedConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	return &xmlExternalized{cfg: cfg}, nil
}

func (s *xmlExternalized) Validate() error {
	if len(s.cfg.FilePatterns) == 0 {
		return domain.MissingParam("filePatterns")
	}
	if len(s.cfg.ElementAttributeSets) == 0 {
		return domain.MissingParam("elementAttributeSets")
	}
	for _, set := range s.cfg.ElementAttributeSets {
		if set.Element == "" || len(set.Attributes) == 0 {
			return &domain.ConfigError{Key: "elementAttributeSets", Reason: "entries need element and attributes"}
		}
	}
	return nil
}

func (s *xmlExternalized) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}
	if env.Backends.XML == nil {
		return ConfigFailure(chk, fmt.Errorf("no XML backend configured"))
	}

	var failures []string
	t := newTally()
	for _, f := range env.FindFiles(s.cfg.FilePatterns, s.cfg.IncludeLinkedConfig) {
		t.inspect(f)
		found, err := s.file(env.Backends.XML, f)
		if err != nil {
			failures = append(failures, fmt.Sprintf("Error parsing XML file %s: %v", f.Label(), err))
			continue
		}
		if len(found) > 0 {
			t.matched.Add(f.Path)
			failures = append(failures, found...)
			continue
		}
		t.pass(f, false)
	}

	if len(failures) == 0 {
		return t.finish(chk, s.cfg.Message, true, "All checked attributes are properly externalized.")
	}
	t.found.add(failures...)
	return t.finish(chk, s.cfg.Message, false, "Externalization failures:\n• "+strings.Join(failures, "\n• "))
}

// file returns the externalization failures of one document.
func (s *xmlExternalized) file(q domain.XMLQuerier, f domain.FileRef) ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, set := range s.cfg.ElementAttributeSets {
		el := localName(set.Element)
		for _, attr := range set.Attributes {
			if set.strict() {
				missing, err := q.Query(data, fmt.Sprintf("//*[local-name()='%s' and not(@%s)]", el, attr))
				if err != nil {
					return nil, err
				}
				for range missing {
					out = append(out, fmt.Sprintf("Element '%s' missing required attribute '%s' in file: %s", set.Element, attr, f.Label()))
				}
			}
			values, err := q.Query(data, fmt.Sprintf("//*[local-name()='%s']/@%s", el, attr))
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				if !placeholderValue.MatchString(v) {
					out = append(out, fmt.Sprintf("Attribute '%s' in element '%s' is NOT externalized (Found: '%s') in file: %s",
						attr, set.Element, v, f.Label()))
				}
			}
		}
	}
	return out, nil
}
