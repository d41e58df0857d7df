package application

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

// markerDepth bounds how deep glob marker files are searched.
const markerDepth = 5

// ClassifyProjectTypes returns the declared types plus every type whose
// detection criteria match the project. files are the root-relative paths
// of a prior scan. The result is de-duplicated and sorted, declared names
// keep their spelling.
func ClassifyProjectTypes(root string, files []string, declared []string, defs map[string]domain.ProjectTypeDefinition) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		key := strings.ToUpper(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}
	for _, t := range declared {
		add(t)
	}

	name := filepath.Base(filepath.Clean(root))
	for typ, def := range defs {
		if matchesCriteria(root, name, files, def.DetectionCriteria) {
			add(typ)
		}
	}
	sort.Strings(out)
	return out
}

func matchesCriteria(root, name string, files []string, c domain.DetectionCriteria) bool {
	for _, p := range c.ExcludePatterns {
		if fullMatch(p, name) {
			return false
		}
	}

	var results []bool
	if len(c.MarkerFiles) > 0 {
		results = append(results, hasMarker(root, files, c.MarkerFiles))
	}
	if c.NamePattern != "" {
		results = append(results, fullMatch(c.NamePattern, name))
	}
	if len(c.NameContains) > 0 {
		lower := strings.ToLower(name)
		found := false
		for _, part := range c.NameContains {
			if strings.Contains(lower, strings.ToLower(part)) {
				found = true
				break
			}
		}
		results = append(results, found)
	}
	if len(results) == 0 {
		return false
	}

	and := strings.EqualFold(c.Logic, "AND")
	for _, ok := range results {
		if and && !ok {
			return false
		}
		if !and && ok {
			return true
		}
	}
	return and
}

func fullMatch(pattern, s string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	return err == nil && re.MatchString(s)
}

// hasMarker checks plain names at the root and globs against the scanned
// files up to markerDepth directories deep.
func hasMarker(root string, files, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(m, "*") {
			if _, err := os.Stat(filepath.Join(root, m)); err == nil {
				return true
			}
			continue
		}
		for _, f := range files {
			if strings.Count(f, "/") < markerDepth && eval.Matches(f, m, true) {
				return true
			}
		}
	}
	return false
}
