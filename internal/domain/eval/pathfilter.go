// Package eval holds the evaluation primitives shared by every check: path
// filtering, glob matching, typed comparison, match-mode aggregation, comment
// stripping and message templating.
package eval

import (
	"path/filepath"
	"strings"

	"github.com/raks/aegis/internal/domain"
)

var skipDirs = map[string]bool{
	"target":       true,
	"bin":          true,
	"build":        true,
	".git":         true,
	".idea":        true,
	".vscode":      true,
	"node_modules": true,
}

// ShouldIgnore reports whether path, a file under root, is excluded from discovery.
func ShouldIgnore(root, path string, rules domain.IgnoreRules) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return ShouldIgnoreRel(filepath.ToSlash(rel), rules)
}

// ShouldIgnoreRel is ShouldIgnore for a forward-slash path already relative to the root.
func ShouldIgnoreRel(rel string, rules domain.IgnoreRules) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	if rel == "" || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	for _, dir := range rules.Dirs {
		if dir = strings.Trim(dir, "/"); dir != "" && strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}

	segments := strings.Split(rel, "/")
	for _, dir := range segments[:len(segments)-1] {
		if IsSkippedDir(dir, rules) {
			return true
		}
	}

	name := segments[len(segments)-1]
	for _, n := range rules.FileNames {
		if name == n {
			return true
		}
	}
	for _, p := range rules.FilePrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsSkippedDir reports whether a directory with this base name is never descended into.
func IsSkippedDir(name string, rules domain.IgnoreRules) bool {
	if skipDirs[name] {
		return true
	}
	report := rules.ReportDir
	if report == "" {
		report = domain.DefaultReportDir
	}
	return name == report
}
