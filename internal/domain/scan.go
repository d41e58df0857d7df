package domain

import (
	"path/filepath"
	"strings"
)

// DefaultReportDir is the directory validation reports and history are written to.
// It is always excluded from scanning.
const DefaultReportDir = "Aegis-reports"

// IgnoreRules lists files excluded from discovery in addition to the fixed
// build, VCS and IDE directory denylist.
type IgnoreRules struct {
	FileNames    []string `yaml:"exact_names" json:"exact_names,omitempty" mapstructure:"exactNames"`
	FilePrefixes []string `yaml:"prefixes"    json:"prefixes,omitempty"    mapstructure:"prefixes"`
	ReportDir    string   `yaml:"-"           json:"-"                     mapstructure:"-"`
	// Dirs are forward-slash directories, relative to the root, whose files are excluded.
	Dirs []string `yaml:"-" json:"-" mapstructure:"-"`
}

// ScanConfig is the immutable file-scope configuration handed to every check.
type ScanConfig struct {
	Ignore     IgnoreRules
	LinkedRoot string
	// AllowList narrows discovery to these absolute paths when it intersects
	// the discovered set. Nil means no narrowing.
	AllowList PathSet
}

// WithAllowList returns a copy of c scoped to paths.
func (c ScanConfig) WithAllowList(paths PathSet) ScanConfig {
	c.AllowList = paths
	return c
}

// FileRef is a discovered file tagged with the root it was found under.
type FileRef struct {
	Path   string // absolute
	Root   string
	Rel    string // forward-slash, relative to Root
	Linked bool
}

// Label renders the file for evidence strings.
func (f FileRef) Label() string {
	if f.Linked {
		return "[Config] " + f.Rel
	}
	return f.Rel
}

// Ext returns the lower-case extension without the dot.
func (f FileRef) Ext() string {
	ext := filepath.Ext(f.Rel)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}
