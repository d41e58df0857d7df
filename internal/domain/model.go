package domain

import (
	"sort"
	"strings"
	"time"
)

// Severity levels recognised in rule files. Any other string is carried through unchanged.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
	SeverityInfo     = "INFO"
)

const (
	ScopeGlobal = "GLOBAL"

	LabelPass = "PASS"
	LabelFail = "FAIL"
	LabelWarn = "WARN"
)

// SeverityRank orders severities for --fail-on thresholds. Unknown severities rank as MEDIUM.
func SeverityRank(s string) int {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 3
	}
}

// IsSeverity reports whether s names one of the recognised levels.
func IsSeverity(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Rule is a named compliance requirement made of one or more checks.
type Rule struct {
	ID             string   `yaml:"id"             json:"id"`
	Name           string   `yaml:"name"           json:"name"`
	Description    string   `yaml:"description"    json:"description,omitempty"`
	Enabled        *bool    `yaml:"enabled"        json:"enabled,omitempty"`
	Severity       string   `yaml:"severity"       json:"severity"`
	Scope          string   `yaml:"scope"          json:"scope,omitempty"`
	Checks         []Check  `yaml:"checks"         json:"checks"`
	SuccessMessage string   `yaml:"successMessage" json:"successMessage,omitempty"`
	ErrorMessage   string   `yaml:"errorMessage"   json:"errorMessage,omitempty"`
	UseCase        string   `yaml:"useCase"        json:"useCase,omitempty"`
	Rationale      string   `yaml:"rationale"      json:"rationale,omitempty"`
	DocLink        string   `yaml:"docLink"        json:"docLink,omitempty"`
	AppliesTo      []string `yaml:"appliesTo"      json:"appliesTo,omitempty"`
}

// IsEnabled reports whether the rule should be evaluated. Rules are enabled unless set otherwise.
func (r Rule) IsEnabled() bool { return r.Enabled == nil || *r.Enabled }

// EffectiveScope returns the declared scope or GLOBAL.
func (r Rule) EffectiveScope() string {
	if r.Scope == "" {
		return ScopeGlobal
	}
	return r.Scope
}

// EffectiveSeverity returns the declared severity or MEDIUM.
func (r Rule) EffectiveSeverity() string {
	if r.Severity == "" {
		return SeverityMedium
	}
	return r.Severity
}

// Check is a single typed, parameterized evaluation unit. Rule and RuleID are
// filled in by the engine before execution and are never read from rule files.
type Check struct {
	Type        string         `yaml:"type"        json:"type"        mapstructure:"type"`
	Description string         `yaml:"description" json:"description,omitempty" mapstructure:"description"`
	Params      map[string]any `yaml:"params"      json:"params,omitempty"      mapstructure:"params"`

	RuleID string `yaml:"-" json:"-" mapstructure:"-"`
	Rule   *Rule  `yaml:"-" json:"-" mapstructure:"-"`
}

// Label names the check in evidence: its description, or its type.
func (c Check) Label() string {
	if c.Description != "" {
		return c.Description
	}
	return c.Type
}

// PathSet is a set of absolute file paths.
type PathSet map[string]struct{}

// NewPathSet builds a set from paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

func (s PathSet) Add(p string) { s[p] = struct{}{} }

func (s PathSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

func (s PathSet) Len() int { return len(s) }

// Union adds every member of o to s and returns s.
func (s PathSet) Union(o PathSet) PathSet {
	for p := range o {
		s[p] = struct{}{}
	}
	return s
}

// Sorted returns the members in lexical order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CheckResult is the outcome of one check execution.
type CheckResult struct {
	RuleID              string   `json:"rule_id"`
	Description         string   `json:"description"`
	Passed              bool     `json:"passed"`
	Message             string   `json:"message"`
	CheckedFiles        string   `json:"checked_files,omitempty"`
	FoundItems          string   `json:"found_items,omitempty"`
	MatchingFiles       string   `json:"matching_files,omitempty"`
	PropertyResolutions []string `json:"property_resolutions,omitempty"`

	// MatchedPaths holds the inspected files that produced a positive match.
	MatchedPaths PathSet `json:"-"`
}

// RuleResult wraps a rule's identity and its check results.
type RuleResult struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Severity      string        `json:"severity"`
	Scope         string        `json:"scope"`
	Passed        bool          `json:"passed"`
	Description   string        `json:"description,omitempty"`
	UseCase       string        `json:"use_case,omitempty"`
	Rationale     string        `json:"rationale,omitempty"`
	DocLink       string        `json:"doc_link,omitempty"`
	ConfigSummary string        `json:"config_summary,omitempty"`
	Checks        []CheckResult `json:"checks"`
}

// ValidationReport is the result of one validation run.
type ValidationReport struct {
	RunID         string            `json:"run_id"`
	ProjectPath   string            `json:"project_path"`
	ProjectName   string            `json:"project_name"`
	LinkedRoot    string            `json:"linked_root,omitempty"`
	CommitHash    string            `json:"commit_hash,omitempty"`
	ProjectTypes  []string          `json:"project_types,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Passed        []RuleResult      `json:"passed"`
	Failed        []RuleResult      `json:"failed"`
	Skipped       []string          `json:"skipped"`
	NotApplicable []string          `json:"not_applicable"`
	Labels        map[string]string `json:"labels"`
	Summary       ReportSummary     `json:"summary"`
}

// ReportSummary holds rule counts per outcome.
type ReportSummary struct {
	Total         int `json:"total"`
	Passed        int `json:"passed"`
	Failed        int `json:"failed"`
	Skipped       int `json:"skipped"`
	NotApplicable int `json:"not_applicable"`
}

// HasFailures reports whether any rule failed.
func (r *ValidationReport) HasFailures() bool { return len(r.Failed) > 0 }

// FailuresAtOrAbove reports whether a failed rule has severity >= threshold.
func (r *ValidationReport) FailuresAtOrAbove(threshold string) bool {
	floor := SeverityRank(threshold)
	for _, rr := range r.Failed {
		if SeverityRank(rr.Severity) >= floor {
			return true
		}
	}
	return false
}

// Label returns the display label for key, falling back to the key itself.
func (r *ValidationReport) Label(key string) string {
	if v, ok := r.Labels[key]; ok && v != "" {
		return v
	}
	return key
}

// DefaultLabels returns the built-in PASS/FAIL/WARN display labels.
func DefaultLabels() map[string]string {
	return map[string]string{LabelPass: "PASS", LabelFail: "FAIL", LabelWarn: "WARN"}
}

// RunEntry is one recorded validation run.
type RunEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	CommitHash string    `json:"commit_hash,omitempty"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	FailedIDs  []string  `json:"failed_ids,omitempty"`
}
