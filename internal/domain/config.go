package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// DefaultRulesFile is looked up in the project root when no rules file is configured.
const DefaultRulesFile = "aegis-rules.yaml"

// ProjectConfig holds project-level configuration loaded from .aegis.yaml.
type ProjectConfig struct {
	RulesFile            string            `yaml:"rules_file"             json:"rules_file,omitempty"`
	LinkedConfig         string            `yaml:"linked_config"          json:"linked_config,omitempty"`
	DiscoverLinkedConfig *bool             `yaml:"discover_linked_config" json:"discover_linked_config,omitempty"`
	IgnoredFiles         IgnoreRules       `yaml:"ignored_files"          json:"ignored_files,omitempty"`
	Labels               map[string]string `yaml:"labels"                 json:"labels,omitempty"`
	ReportDir            string            `yaml:"report_dir"             json:"report_dir,omitempty"`
	PropertySyntax       []string          `yaml:"property_syntax"        json:"property_syntax,omitempty"`
	ProjectTypes         []string          `yaml:"project_types"          json:"project_types,omitempty"`
	DisabledRules        []string          `yaml:"disabled_rules"         json:"disabled_rules,omitempty"`
	Environments         []string          `yaml:"environments"           json:"environments,omitempty"`

	// TypeDefinitions come from the rules file and drive project-type detection.
	TypeDefinitions map[string]ProjectTypeDefinition `yaml:"-" json:"-"`
}

// ProjectTypeDefinition declares how a project type is detected.
type ProjectTypeDefinition struct {
	Description       string            `yaml:"description"       json:"description,omitempty"`
	DetectionCriteria DetectionCriteria `yaml:"detectionCriteria" json:"detection_criteria"`
}

// DetectionCriteria is matched against a project directory. Logic is OR unless set to AND.
type DetectionCriteria struct {
	MarkerFiles     []string `yaml:"markerFiles"     json:"marker_files,omitempty"`
	NamePattern     string   `yaml:"namePattern"     json:"name_pattern,omitempty"`
	NameContains    []string `yaml:"nameContains"    json:"name_contains,omitempty"`
	ExcludePatterns []string `yaml:"excludePatterns" json:"exclude_patterns,omitempty"`
	Logic           string   `yaml:"logic"           json:"logic,omitempty"`
}

// RuleSet is the content of a rules file.
type RuleSet struct {
	Rules          []Rule
	Labels         map[string]string
	Environments   []string
	ProjectTypes   map[string]ProjectTypeDefinition
	IgnoredFiles   IgnoreRules
	PropertySyntax []string
}

// DefaultConfig returns a zero-value config that changes nothing.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{}
}

// EffectiveReportDir returns the report directory name or the default.
func (c ProjectConfig) EffectiveReportDir() string {
	if c.ReportDir == "" {
		return DefaultReportDir
	}
	return c.ReportDir
}

// ShouldDiscoverLinkedConfig reports whether sibling config projects are looked up.
func (c ProjectConfig) ShouldDiscoverLinkedConfig() bool {
	return c.DiscoverLinkedConfig == nil || *c.DiscoverLinkedConfig
}

// IgnoreRules returns the ignore list with the report directory filled in.
func (c ProjectConfig) IgnoreRules() IgnoreRules {
	r := c.IgnoredFiles
	r.ReportDir = filepath.Base(c.EffectiveReportDir())
	return r
}

// MergedLabels overlays configured labels on the defaults.
func (c ProjectConfig) MergedLabels() map[string]string {
	labels := DefaultLabels()
	for k, v := range c.Labels {
		if v != "" {
			labels[k] = v
		}
	}
	return labels
}

// IsRuleDisabled reports whether id is listed in disabled_rules.
func (c ProjectConfig) IsRuleDisabled(id string) bool {
	for _, d := range c.DisabledRules {
		if d == id {
			return true
		}
	}
	return false
}

// WithRuleSet uses the rules file's config section as the base layer under c.
func (c ProjectConfig) WithRuleSet(rs RuleSet) ProjectConfig {
	merged := c

	labels := make(map[string]string, len(rs.Labels)+len(c.Labels))
	for k, v := range rs.Labels {
		labels[k] = v
	}
	for k, v := range c.Labels {
		labels[k] = v
	}
	if len(labels) > 0 {
		merged.Labels = labels
	}

	merged.IgnoredFiles.FileNames = appendUnique(rs.IgnoredFiles.FileNames, c.IgnoredFiles.FileNames...)
	merged.IgnoredFiles.FilePrefixes = appendUnique(rs.IgnoredFiles.FilePrefixes, c.IgnoredFiles.FilePrefixes...)

	if len(merged.PropertySyntax) == 0 {
		merged.PropertySyntax = rs.PropertySyntax
	}
	if len(merged.Environments) == 0 {
		merged.Environments = rs.Environments
	}
	if len(rs.ProjectTypes) > 0 {
		merged.TypeDefinitions = rs.ProjectTypes
	}
	return merged
}

func appendUnique(base []string, extra ...string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	var out []string
	for _, s := range append(append([]string(nil), base...), extra...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	// 1. report_dir must be a single directory name
	if c.ReportDir != "" && filepath.Base(c.ReportDir) != c.ReportDir {
		return fmt.Errorf("report_dir %q must be a directory name, not a path", c.ReportDir)
	}

	// 2. property_syntax entries must compile and capture the property key
	for _, expr := range c.PropertySyntax {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("invalid property_syntax %q: %w", expr, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("property_syntax %q must have a capture group for the key", expr)
		}
	}

	// 3. labels keys must be PASS, FAIL or WARN
	for k := range c.Labels {
		if k != LabelPass && k != LabelFail && k != LabelWarn {
			return fmt.Errorf("unknown label %q (valid: PASS, FAIL, WARN)", k)
		}
	}

	// 4. disabled_rules must not repeat
	seen := make(map[string]bool, len(c.DisabledRules))
	for _, id := range c.DisabledRules {
		if id == "" {
			return fmt.Errorf("disabled_rules contains an empty id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate rule id %q in disabled_rules", id)
		}
		seen[id] = true
	}

	return nil
}
