// Package rules loads rule files: a top-level rules list plus an optional
// config section shared by every rule in the file.
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/raks/aegis/internal/domain"
)

type document struct {
	Config map[string]any `yaml:"config"`
	Rules  []domain.Rule  `yaml:"rules"`
}

type fileConfig struct {
	Labels         map[string]string                       `mapstructure:"labels"`
	Environments   []string                                `mapstructure:"environments"`
	ProjectTypes   map[string]domain.ProjectTypeDefinition `mapstructure:"projectTypes"`
	IgnoredFiles   domain.IgnoreRules                      `mapstructure:"ignoredFiles"`
	PropertySyntax []string                                `mapstructure:"propertySyntax"`
}

// Loader implements domain.RuleLoader for YAML and JSON rule files.
type Loader struct{}

func New() *Loader { return &Loader{} }

// Load reads and parses the rule file at path.
func (l *Loader) Load(path string) (domain.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("reading rules file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes rule-file content. JSON documents parse as YAML.
func Parse(data []byte) (domain.RuleSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.RuleSet{}, fmt.Errorf("parsing rules: %w", err)
	}

	var cfg fileConfig
	if len(doc.Config) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
		})
		if err != nil {
			return domain.RuleSet{}, err
		}
		if err := dec.Decode(doc.Config); err != nil {
			return domain.RuleSet{}, fmt.Errorf("decoding config section: %w", err)
		}
	}

	if err := validate(doc.Rules); err != nil {
		return domain.RuleSet{}, err
	}
	return domain.RuleSet{
		Rules:          doc.Rules,
		Labels:         cfg.Labels,
		Environments:   cfg.Environments,
		ProjectTypes:   cfg.ProjectTypes,
		IgnoredFiles:   cfg.IgnoredFiles,
		PropertySyntax: cfg.PropertySyntax,
	}, nil
}

func validate(rules []domain.Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("rule #%d has no id", i+1)
		}
		if seen[id] {
			return fmt.Errorf("duplicate rule id %q", id)
		}
		seen[id] = true
		for j, c := range r.Checks {
			if strings.TrimSpace(c.Type) == "" {
				return fmt.Errorf("rule %s: check #%d has no type", id, j+1)
			}
		}
	}
	return nil
}
