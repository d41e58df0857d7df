package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

// linkedSuffixes name the sibling directories that hold a project's
// externalized configuration.
var linkedSuffixes = []string{"_config", "-config", ".config"}

// FileScanner implements domain.ProjectScanner by walking the filesystem.
type FileScanner struct{}

func New() *FileScanner {
	return &FileScanner{}
}

// Scan lists every file under root that the path filter keeps. Paths are
// forward-slash and relative to root, in walk order.
func (s *FileScanner) Scan(root string, ignore domain.IgnoreRules) (*domain.ScanResult, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	result := &domain.ScanResult{
		RootPath: absPath,
	}

	err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == absPath {
				return err
			}
			// Unreadable entries below the root are skipped.
			return nil
		}

		if d.IsDir() {
			if path != absPath && eval.IsSkippedDir(d.Name(), ignore) {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(absPath, path)
		relPath = filepath.ToSlash(relPath)
		if eval.ShouldIgnoreRel(relPath, ignore) {
			return nil
		}
		result.Files = append(result.Files, relPath)
		return nil
	})

	return result, err
}

// DiscoverLinked implements domain.LinkedConfigFinder.
func (s *FileScanner) DiscoverLinked(projectRoot string) (string, bool) {
	return DiscoverLinked(projectRoot)
}

// DiscoverLinked looks for a sibling of projectRoot named <name>_config,
// <name>-config or <name>.config, ignoring case. It returns the first match.
func DiscoverLinked(projectRoot string) (string, bool) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", false
	}
	name := strings.ToLower(filepath.Base(abs))
	parent := filepath.Dir(abs)

	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", false
	}
	for _, suffix := range linkedSuffixes {
		want := name + suffix
		for _, e := range entries {
			if e.IsDir() && strings.ToLower(e.Name()) == want {
				return filepath.Join(parent, e.Name()), true
			}
		}
	}
	return "", false
}
