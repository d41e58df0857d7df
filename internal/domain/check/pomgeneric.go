package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

const (
	pomDependencyExists    = "DEPENDENCY_EXISTS"
	pomDependencyNotExists = "DEPENDENCY_NOT_EXISTS"
	pomPluginExists        = "PLUGIN_EXISTS"
	pomPluginNotExists     = "PLUGIN_NOT_EXISTS"
	pomPropertyExists      = "PROPERTY_EXISTS"
	pomPropertyNotExists   = "PROPERTY_NOT_EXISTS"
	pomDependenciesRegex   = "DEPENDENCIES_REGEX"
)

type namedValue struct {
	Name  string  `mapstructure:"name"`
	Value *string `mapstructure:"value"`
}

// dependencyPattern matches dependency coordinates by regular expression.
// An empty field matches anything.
type dependencyPattern struct {
	GroupID        string `mapstructure:"groupId"`
	ArtifactID     string `mapstructure:"artifactId"`
	VersionPattern string `mapstructure:"versionPattern"`

	group, artifact, version *regexp.Regexp
}

func (p *dependencyPattern) compile() error {
	var err error
	compile := func(expr string) *regexp.Regexp {
		if expr == "" || err != nil {
			return nil
		}
		var re *regexp.Regexp
		re, err = regexp.Compile("^(?:" + expr + ")$")
		return re
	}
	p.group = compile(p.GroupID)
	p.artifact = compile(p.ArtifactID)
	p.version = compile(p.VersionPattern)
	return err
}

func (p *dependencyPattern) matches(c domain.Coordinates) bool {
	if p.group != nil && !p.group.MatchString(c.GroupID) {
		return false
	}
	if p.artifact != nil && !p.artifact.MatchString(c.ArtifactID) {
		return false
	}
	if p.version != nil && (c.Version == "" || !p.version.MatchString(c.Version)) {
		return false
	}
	return true
}

type pomGenericConfig struct {
	Common                      `mapstructure:",squash"`
	ValidationType              string               `mapstructure:"validationType"`
	Dependencies                []domain.Coordinates `mapstructure:"dependencies"`
	ForbiddenDependencies       []domain.Coordinates `mapstructure:"forbiddenDependencies"`
	RequiredDependencies        []domain.Coordinates `mapstructure:"requiredDependencies"`
	Plugins                     []string             `mapstructure:"plugins"`
	Properties                  []namedValue         `mapstructure:"properties"`
	ForbiddenDependencyPatterns []dependencyPattern  `mapstructure:"forbiddenDependencyPatterns"`
}

// dependencies returns the first non-empty of the three dependency lists.
func (c pomGenericConfig) dependencies() []domain.Coordinates {
	switch {
	case len(c.Dependencies) > 0:
		return c.Dependencies
	case len(c.ForbiddenDependencies) > 0:
		return c.ForbiddenDependencies
	default:
		return c.RequiredDependencies
	}
}

// pomGeneric runs one presence test, selected by validationType, against
// the project pom.
type pomGeneric struct {
	cfg pomGenericConfig
}

func newPOMGeneric(params map[string]any) (Strategy, error) {
	var cfg pomGenericConfig
	if err := decode(params, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FilePatterns) == 0 {
		cfg.FilePatterns = []string{"pom.xml"}
	}
	cfg.ValidationType = upper(cfg.ValidationType, "")
	for i := range cfg.ForbiddenDependencyPatterns {
		if err := cfg.ForbiddenDependencyPatterns[i].compile(); err != nil {
			return nil, &domain.ConfigError{Key: "forbiddenDependencyPatterns", Reason: "has an invalid pattern: " + err.Error(), Err: err}
		}
	}
	return &pomGeneric{cfg: cfg}, nil
}

func (s *pomGeneric) Validate() error {
	c := s.cfg
	switch c.ValidationType {
	case "":
		return domain.MissingParam("validationType")
	case pomDependencyExists, pomDependencyNotExists:
		deps := c.dependencies()
		if len(deps) == 0 {
			return &domain.ConfigError{Key: "dependencies", Reason: "(or 'forbiddenDependencies'/'requiredDependencies') is required"}
		}
		return validateCoordinates(map[string][]domain.Coordinates{"dependencies": deps})
	case pomPluginExists, pomPluginNotExists:
		if len(c.Plugins) == 0 {
			return domain.MissingParam("plugins")
		}
	case pomPropertyExists, pomPropertyNotExists:
		if len(c.Properties) == 0 {
			return domain.MissingParam("properties")
		}
	case pomDependenciesRegex:
		if len(c.ForbiddenDependencyPatterns) == 0 {
			return domain.MissingParam("forbiddenDependencyPatterns")
		}
	default:
		return &domain.ConfigError{Reason: "Unknown validationType: " + c.ValidationType}
	}
	return nil
}

// positive reports whether a passing file is a match: true for the
// presence tests, false for the absence tests whose matches are failures.
func (s *pomGeneric) positive() bool {
	switch s.cfg.ValidationType {
	case pomDependencyExists, pomPluginExists, pomPropertyExists:
		return true
	}
	return false
}

func (s *pomGeneric) Execute(env *Env, chk domain.Check) domain.CheckResult {
	if !env.ConditionMet(s.cfg.CheckCondition) {
		return skipped(chk)
	}
	if err := s.Validate(); err != nil {
		return ConfigFailure(chk, err)
	}

	var failures []string
	t := newTally()
	t.sep = "; "
	files := pomScan(env, s.cfg.Common, func(f domain.FileRef, pom *domain.POM, err error) {
		t.inspect(f)
		if err != nil {
			failures = append(failures, parseFailure(f, err))
			return
		}
		found := s.validate(f.Label(), pom)
		switch {
		case len(found) == 0:
			t.pass(f, s.positive())
		case !s.positive():
			t.matched.Add(f.Path)
		}
		failures = append(failures, found...)
	})
	if len(files) == 0 {
		return plain(chk, true, "No pom.xml found in project root")
	}

	if len(failures) > 0 {
		t.found.add(failures...)
		return t.finish(chk, s.cfg.Message, false, strings.Join(failures, "\n"))
	}
	return t.finish(chk, s.cfg.Message, true, s.passMessage()+"\nFiles validated: "+strings.Join(t.checked, "; "))
}

func (s *pomGeneric) passMessage() string {
	switch s.cfg.ValidationType {
	case pomDependencyExists:
		return "All required dependencies are present"
	case pomDependencyNotExists:
		return "No forbidden dependencies found"
	case pomPluginExists:
		return "All required plugins are present"
	case pomPluginNotExists:
		return "No forbidden plugins found"
	case pomPropertyExists:
		return "All required properties are present"
	case pomPropertyNotExists:
		return "No forbidden properties found"
	default:
		return "No forbidden dependency patterns found."
	}
}

// validate returns the failures of one parsed pom read from in.
func (s *pomGeneric) validate(in string, pom *domain.POM) []string {
	c := s.cfg
	var out []string
	switch c.ValidationType {
	case pomDependencyExists, pomDependencyNotExists:
		want := c.ValidationType == pomDependencyExists
		for _, dep := range c.dependencies() {
			_, found := findCoordinates(pom.Dependencies, dep)
			switch {
			case want && !found:
				out = append(out, fmt.Sprintf("Required dependency not found: %s (in %s)", dep, in))
			case !want && found:
				out = append(out, fmt.Sprintf("Forbidden dependency found: %s (in %s)", dep, in))
			}
		}
	case pomPluginExists, pomPluginNotExists:
		want := c.ValidationType == pomPluginExists
		for _, ref := range c.Plugins {
			parts := strings.Split(ref, ":")
			if len(parts) != 2 {
				out = append(out, fmt.Sprintf("Invalid plugin format '%s'. Expected 'groupId:artifactId'", ref))
				continue
			}
			_, found := findCoordinates(pom.Plugins, domain.Coordinates{GroupID: parts[0], ArtifactID: parts[1]})
			switch {
			case want && !found:
				out = append(out, fmt.Sprintf("Required plugin not found: %s (in %s)", ref, in))
			case !want && found:
				out = append(out, fmt.Sprintf("Forbidden plugin found: %s (in %s)", ref, in))
			}
		}
	case pomPropertyExists, pomPropertyNotExists:
		want := c.ValidationType == pomPropertyExists
		for _, prop := range c.Properties {
			if prop.Name == "" {
				out = append(out, "Invalid property configuration: 'name' is required")
				continue
			}
			actual, found := pom.Property(prop.Name)
			switch {
			case want && !found:
				out = append(out, fmt.Sprintf("Required property not found: %s (in %s)", prop.Name, in))
			case !want && found:
				out = append(out, fmt.Sprintf("Forbidden property found: %s (in %s)", prop.Name, in))
			case want && prop.Value != nil && *prop.Value != actual:
				out = append(out, fmt.Sprintf("Property '%s' has incorrect value. Expected: '%s', Found: '%s' (in %s)",
					prop.Name, *prop.Value, actual, in))
			}
		}
	case pomDependenciesRegex:
		for i := range c.ForbiddenDependencyPatterns {
			p := &c.ForbiddenDependencyPatterns[i]
			for _, dep := range pom.Dependencies {
				if p.matches(dep) {
					out = append(out, fmt.Sprintf("Forbidden dependency pattern matched: %s:%s:%s (Matched rule: G=%s, A=%s, V=%s) (in %s)",
						dep.GroupID, dep.ArtifactID, dep.Version, p.GroupID, p.ArtifactID, p.VersionPattern, in))
				}
			}
		}
	}
	return out
}
