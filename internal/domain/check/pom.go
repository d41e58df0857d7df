package check

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

const (
	pomCombined     = "COMBINED"
	pomParent       = "PARENT"
	pomProperties   = "PROPERTIES"
	pomDependencies = "DEPENDENCIES"
	pomPlugins      = "PLUGINS"
)

var defaultPOMPatterns = []string{"**/pom.xml"}

// versionBounds are SEMVER limits on a version string.
type versionBounds struct {
	MinVersion  string `mapstructure:"minVersion"`
	MaxVersion  string `mapstructure:"maxVersion"`
	GreaterThan string `mapstructure:"greaterThan"`
	LessThan    string `mapstructure:"lessThan"`
}

// violations lists every bound actual breaks, prefixed with subject.
func (b versionBounds) violations(subject, in, actual string) []string {
	var out []string
	check := func(limit string, op eval.Operator, what, sym string) {
		if limit != "" && !eval.Compare(actual, limit, op, eval.TypeSemver) {
			out = append(out, fmt.Sprintf("%s version %s in %s: expected %s '%s', got '%s'", subject, what, in, sym, limit, actual))
		}
	}
	check(b.MinVersion, eval.OpGTE, "too low", ">=")
	check(b.MaxVersion, eval.OpLTE, "too high", "<=")
	check(b.GreaterThan, eval.OpGT, "not greater", ">")
	check(b.LessThan, eval.OpLT, "not less", "<")
	return out
}

type parentRequirement struct {
	domain.Coordinates `mapstructure:",squash"`
	versionBounds      `mapstructure:",squash"`
}

type pomProperty struct {
	Name          string `mapstructure:"name"`
	ExpectedValue string `mapstructure:"expectedValue"`
	versionBounds `mapstructure:",squash"`
}

type pomRequiredConfig struct {
	Common         `mapstructure:",squash"`
	ValidationType string               `mapstructure:"validationType"`
	Parent         *parentRequirement   `mapstructure:"parent"`
	Properties     []pomProperty        `mapstructure:"properties"`
	Dependencies   []domain.Coordinates `mapstructure:"dependencies"`
	Plugins        []domain.Coordinates `mapstructure:"plugins"`
}

// selected reports whether section is evaluated under the configured validation type.
func selected(validationType, section string) bool {
	return validationType == pomCombined || validationType == section
}

// pomRequired asserts that every pom.xml declares the configured elements.
type pomRequired struct {
	cfg pomRequiredConfig
}

func newPOMRequired(params map[string]any) (Strategy, error) {
	var cfg pomRequiredConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FilePatterns) == 0 {
		cfg.FilePatterns = defaultPOMPatterns
	}
	cfg.ValidationType = upper(cfg.ValidationType, pomCombined)
	return &pomRequired{cfg: cfg}, nil
}

func (s *pomRequired) Validate() error {
	c := s.cfg
	if c.Parent == nil && len(c.Properties) == 0 && len(c.Dependencies) == 0 && len(c.Plugins) == 0 {
		return &domain.ConfigError{Reason: "at least one of 'parent', 'properties', 'dependencies' or 'plugins' is required"}
	}
	if c.Parent != nil && (c.Parent.GroupID == "" || c.Parent.ArtifactID == "") {
		return &domain.ConfigError{Key: "parent", Reason: "needs groupId and artifactId"}
	}
	return validateCoordinates(map[string][]domain.Coordinates{"dependencies": c.Dependencies, "plugins": c.Plugins})
}

func validateCoordinates(sections map[string][]domain.Coordinates) error {
	for _, key := range []string{"dependencies", "plugins", "forbiddenDependencies", "forbiddenPlugins"} {
		for _, c := range sections[key] {
			if c.GroupID == "" || c.ArtifactID == "" {
				return &domain.ConfigError{Key: key, Reason: "entries need groupId and artifactId"}
			}
		}
	}
	return nil
}

// pomScan reads every pom under env and hands each parsed model, or the
// read or parse error, to visit.
func pomScan(env *Env, c Common, visit func(f domain.FileRef, pom *domain.POM, err error)) []domain.FileRef {
	files := env.FindFiles(c.FilePatterns, c.IncludeLinkedConfig)
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err == nil && env.Backends.POM == nil {
			err = errors.New("no POM backend configured")
		}
		var pom *domain.POM
		if err == nil {
			pom, err = env.Backends.POM.Read(data)
		}
		visit(f, pom, err)
	}
	return files
}

func parseFailure(f domain.FileRef, err error) string {
	return fmt.Sprintf("Error parsing POM file %s: %v", f.Label(), err)
}

func (s *pomRequired) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}

	var failures, successes []string
	t := newTally()
	t.sep = "; "
	files := pomScan(env, s.cfg.Common, func(f domain.FileRef, pom *domain.POM, err error) {
		if err != nil {
			failures = append(failures, parseFailure(f, err))
			return
		}
		fileFailures, fileSuccesses := s.validate(f.Label(), pom)
		if len(fileFailures) == 0 && len(fileSuccesses) > 0 {
			t.matched.Add(f.Path)
		}
		failures = append(failures, fileFailures...)
		successes = append(successes, fileSuccesses...)
	})
	if len(files) == 0 {
		return plain(chk, false, "No pom.xml files found in project")
	}
	for _, f := range files {
		t.checked = append(t.checked, f.Label())
	}
	t.matching = t.checked
	fileList := strings.Join(t.checked, "; ")

	if len(failures) == 0 {
		t.found.add(successes...)
		msg := "All required POM elements found\nFiles validated: " + fileList
		if len(successes) > 0 {
			msg += "\nActual Values Found:\n• " + strings.Join(successes, "\n• ")
		}
		return t.finish(chk, s.cfg.Message, true, msg)
	}
	t.found.add(failures...)
	return t.finish(chk, s.cfg.Message, false,
		"Missing or incorrect required POM elements:\n• "+strings.Join(failures, "\n• "))
}

func (s *pomRequired) validate(in string, pom *domain.POM) (failures, successes []string) {
	c := s.cfg
	if c.Parent != nil && selected(c.ValidationType, pomParent) {
		f, ok := s.parent(in, pom)
		failures = append(failures, f...)
		successes = append(successes, ok...)
	}
	if len(c.Properties) > 0 && selected(c.ValidationType, pomProperties) {
		for _, want := range c.Properties {
			v, present := pom.Property(want.Name)
			if !present || v == "" {
				failures = append(failures, fmt.Sprintf("Property '%s' missing in %s", want.Name, in))
				continue
			}
			successes = append(successes, fmt.Sprintf("Property: %s=%s (in %s)", want.Name, v, in))
			if want.ExpectedValue != "" && want.ExpectedValue != v {
				failures = append(failures, fmt.Sprintf("Property '%s' has wrong value in %s: expected '%s', got '%s'",
					want.Name, in, want.ExpectedValue, v))
			}
			failures = append(failures, want.violations(fmt.Sprintf("Property '%s'", want.Name), in, v)...)
		}
	}
	if len(c.Dependencies) > 0 && selected(c.ValidationType, pomDependencies) {
		f, ok := requireCoordinates("Dependency", in, pom.Dependencies, c.Dependencies)
		failures = append(failures, f...)
		successes = append(successes, ok...)
	}
	if len(c.Plugins) > 0 && selected(c.ValidationType, pomPlugins) {
		f, ok := requireCoordinates("Plugin", in, pom.Plugins, c.Plugins)
		failures = append(failures, f...)
		successes = append(successes, ok...)
	}
	return failures, successes
}

func (s *pomRequired) parent(in string, pom *domain.POM) (failures, successes []string) {
	want := s.cfg.Parent
	if pom.Parent == nil {
		return []string{"Parent element missing in " + in}, nil
	}
	got := *pom.Parent
	if got.GroupID != want.GroupID || got.ArtifactID != want.ArtifactID {
		return []string{fmt.Sprintf("Parent mismatch in %s: expected %s:%s", in, want.GroupID, want.ArtifactID)}, nil
	}
	successes = append(successes, fmt.Sprintf("Parent: %s (in %s)", got, in))
	if want.Version != "" && want.Version != got.Version {
		failures = append(failures, fmt.Sprintf("Parent version mismatch in %s: expected %s, got version '%s'",
			in, want.Coordinates, got.Version))
	}
	subject := fmt.Sprintf("Parent %s:%s", want.GroupID, want.ArtifactID)
	failures = append(failures, want.violations(subject, in, got.Version)...)
	return failures, successes
}

func requireCoordinates(kind, in string, have, want []domain.Coordinates) (failures, successes []string) {
	for _, w := range want {
		found, ok := findCoordinates(have, w)
		if !ok {
			failures = append(failures, fmt.Sprintf("%s %s not found in %s", kind, w, in))
			continue
		}
		successes = append(successes, fmt.Sprintf("%s: %s (in %s)", kind, found, in))
	}
	return failures, successes
}

func findCoordinates(have []domain.Coordinates, want domain.Coordinates) (domain.Coordinates, bool) {
	for _, c := range have {
		if c.Matches(want) {
			return c, true
		}
	}
	return domain.Coordinates{}, false
}

type pomForbiddenConfig struct {
	Common                `mapstructure:",squash"`
	ValidationType        string               `mapstructure:"validationType"`
	ForbiddenProperties   []string             `mapstructure:"forbiddenProperties"`
	ForbiddenDependencies []domain.Coordinates `mapstructure:"forbiddenDependencies"`
	ForbiddenPlugins      []domain.Coordinates `mapstructure:"forbiddenPlugins"`
}

// pomForbidden asserts that no pom.xml declares the configured elements.
type pomForbidden struct {
	cfg pomForbiddenConfig
}

func newPOMForbidden(params map[string]any) (Strategy, error) {
	var cfg pomForbiddenConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FilePatterns) == 0 {
		cfg.FilePatterns = defaultPOMPatterns
	}
	cfg.ValidationType = upper(cfg.ValidationType, pomCombined)
	return &pomForbidden{cfg: cfg}, nil
}

func (s *pomForbidden) Validate() error {
	c := s.cfg
	if len(c.ForbiddenProperties) == 0 && len(c.ForbiddenDependencies) == 0 && len(c.ForbiddenPlugins) == 0 {
		return &domain.ConfigError{Reason: "at least one of 'forbiddenProperties', 'forbiddenDependencies' or 'forbiddenPlugins' is required"}
	}
	return validateCoordinates(map[string][]domain.Coordinates{
		"forbiddenDependencies": c.ForbiddenDependencies,
		"forbiddenPlugins":      c.ForbiddenPlugins,
	})
}

func (s *pomForbidden) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}

	c := s.cfg
	var failures []string
	t := newTally()
	t.sep = "; "
	files := pomScan(env, c.Common, func(f domain.FileRef, pom *domain.POM, err error) {
		if err != nil {
			failures = append(failures, parseFailure(f, err))
			return
		}
		in := f.Label()
		var found []string
		if selected(c.ValidationType, pomProperties) {
			for _, name := range c.ForbiddenProperties {
				if v, ok := pom.Property(name); ok && v != "" {
					found = append(found, fmt.Sprintf("Property '%s' (in %s)", name, in))
				}
			}
		}
		if selected(c.ValidationType, pomDependencies) {
			found = append(found, forbidCoordinates("Dependency", in, pom.Dependencies, c.ForbiddenDependencies)...)
		}
		if selected(c.ValidationType, pomPlugins) {
			found = append(found, forbidCoordinates("Plugin", in, pom.Plugins, c.ForbiddenPlugins)...)
		}
		if len(found) > 0 {
			t.matched.Add(f.Path)
		}
		failures = append(failures, found...)
	})
	if len(files) == 0 {
		return plain(chk, true, "No pom.xml files found (nothing to validate)")
	}
	for _, f := range files {
		t.checked = append(t.checked, f.Label())
	}
	fileList := strings.Join(t.checked, "; ")

	if len(failures) == 0 {
		t.matching = t.checked
		return t.finish(chk, c.Message, true, "No forbidden POM elements found\nFiles validated: "+fileList)
	}
	t.found.add(failures...)
	return t.finish(chk, c.Message, false, "Forbidden POM elements present:\n• "+strings.Join(failures, "\n• "))
}

func forbidCoordinates(kind, in string, have, forbidden []domain.Coordinates) []string {
	var out []string
	for _, w := range forbidden {
		for _, c := range have {
			if c.Matches(w) {
				out = append(out, fmt.Sprintf("%s %s (in %s)", kind, w, in))
			}
		}
	}
	return out
}
