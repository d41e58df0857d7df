package domain

import "time"

// ProjectScanner walks a root directory and lists its files.
type ProjectScanner interface {
	Scan(root string, ignore IgnoreRules) (*ScanResult, error)
}

// LinkedConfigFinder locates the sibling configuration project of a project root.
type LinkedConfigFinder interface {
	DiscoverLinked(projectRoot string) (string, bool)
}

// ScanResult holds the result of scanning a directory.
type ScanResult struct {
	RootPath string   `json:"root_path"`
	Files    []string `json:"files"` // forward-slash paths relative to RootPath, walk order
}

// XMLQuerier extracts values from XML documents.
type XMLQuerier interface {
	// Query returns the trimmed text value of every node selected by expr.
	Query(content []byte, expr string) ([]string, error)
	// ContainsNamespace reports whether the document declares or references uri.
	ContainsNamespace(content []byte, uri string) bool
}

// JSONQuerier parses JSON documents and evaluates JSONPath expressions.
type JSONQuerier interface {
	Parse(content []byte) (any, error)
	// Query returns every value expr selects; no match is an empty result.
	Query(doc any, expr string) ([]any, error)
	// Stringify renders scalars by value and objects or arrays as compact JSON.
	Stringify(v any) string
}

// PropertiesParser parses Java-properties formatted content.
type PropertiesParser interface {
	Parse(content []byte) (*Properties, error)
}

// POMReader extracts the structural parts of a Maven pom.xml.
type POMReader interface {
	Read(content []byte) (*POM, error)
}

// ConfigLoader reads the project-level configuration.
type ConfigLoader interface {
	Load(projectPath string) (ProjectConfig, error)
}

// RuleLoader reads a rules file.
type RuleLoader interface {
	Load(path string) (RuleSet, error)
}

// GitInfo provides version-control metadata for a project.
type GitInfo interface {
	CommitHash(projectPath string) (string, error)
}

// RunHistory persists validation runs for a project.
type RunHistory interface {
	Save(projectPath string, entry RunEntry) error
	Load(projectPath string) ([]RunEntry, error)
}

// ValidationRecorder observes engine outcomes.
type ValidationRecorder interface {
	ObserveCheck(checkType string, passed bool, elapsed time.Duration)
	ObserveRule(severity string, passed bool)
	ObserveFilesScanned(n int)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) ObserveCheck(string, bool, time.Duration) {}
func (NopRecorder) ObserveRule(string, bool)                 {}
func (NopRecorder) ObserveFilesScanned(int)                  {}
