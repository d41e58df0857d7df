package domain

import "strings"

// Coordinates identifies a Maven artifact.
type Coordinates struct {
	GroupID    string `json:"group_id"    mapstructure:"groupId"`
	ArtifactID string `json:"artifact_id" mapstructure:"artifactId"`
	Version    string `json:"version"     mapstructure:"version"`
}

// String renders g:a or g:a:v.
func (c Coordinates) String() string {
	s := c.GroupID + ":" + c.ArtifactID
	if c.Version != "" {
		s += ":" + c.Version
	}
	return s
}

// Matches reports whether c has the same group and artifact as want, and the
// same version when want declares one.
func (c Coordinates) Matches(want Coordinates) bool {
	if c.GroupID != want.GroupID || c.ArtifactID != want.ArtifactID {
		return false
	}
	return want.Version == "" || c.Version == want.Version
}

// Property is a named value in declaration order.
type Property struct {
	Name  string
	Value string
}

// POM is the subset of a Maven project model the POM checks inspect.
type POM struct {
	Parent       *Coordinates
	Properties   []Property
	Dependencies []Coordinates
	Plugins      []Coordinates
}

// Property looks up a declared property.
func (p *POM) Property(name string) (string, bool) {
	for _, prop := range p.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// Properties is a parsed properties file with key order preserved.
type Properties struct {
	keys   []string
	values map[string]string
}

// NewProperties builds Properties from ordered key/value pairs.
func NewProperties(pairs ...Property) *Properties {
	p := &Properties{values: make(map[string]string, len(pairs))}
	for _, kv := range pairs {
		p.Set(kv.Name, kv.Value)
	}
	return p
}

// Set adds or replaces a key.
func (p *Properties) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value of key.
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetFold returns the value of the first key equal to key under case folding.
func (p *Properties) GetFold(key string) (string, bool) {
	if v, ok := p.values[key]; ok {
		return v, true
	}
	for _, k := range p.keys {
		if strings.EqualFold(k, key) {
			return p.values[k], true
		}
	}
	return "", false
}

// Keys returns keys in declaration order.
func (p *Properties) Keys() []string { return append([]string(nil), p.keys...) }
