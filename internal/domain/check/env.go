package check

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
	"github.com/raks/aegis/internal/domain/resolve"
)

// Env is everything a strategy may consult while executing. It is shared by
// all checks of a run and never modified; narrowing the file scope returns a copy.
type Env struct {
	ProjectRoot  string
	Scan         domain.ScanConfig
	Scanner      domain.ProjectScanner
	Backends     Backends
	Resolver     *resolve.Resolver
	Factory      *Factory
	Environments []string
	Log          zerolog.Logger

	scans *scanCache
}

type scanCache struct {
	mu    sync.Mutex
	files map[string][]string
	err   map[string]error
}

// NewEnv builds an Env rooted at projectRoot.
func NewEnv(projectRoot string, scan domain.ScanConfig, scanner domain.ProjectScanner, backends Backends,
	resolver *resolve.Resolver, factory *Factory, log zerolog.Logger) *Env {
	return &Env{
		ProjectRoot: projectRoot,
		Scan:        scan,
		Scanner:     scanner,
		Backends:    backends,
		Resolver:    resolver,
		Factory:     factory,
		Log:         log,
		scans:       &scanCache{files: make(map[string][]string), err: make(map[string]error)},
	}
}

// WithAllowList returns a copy of env whose discovery is narrowed to paths.
func (e *Env) WithAllowList(paths domain.PathSet) *Env {
	cp := *e
	cp.Scan = e.Scan.WithAllowList(paths)
	return &cp
}

// ProjectName is the base name of the project root.
func (e *Env) ProjectName() string { return filepath.Base(filepath.Clean(e.ProjectRoot)) }

// HasLinkedRoot reports whether a linked config root is configured and present.
func (e *Env) HasLinkedRoot() bool {
	if e.Scan.LinkedRoot == "" {
		return false
	}
	info, err := os.Stat(e.Scan.LinkedRoot)
	return err == nil && info.IsDir()
}

// ResolutionRoots lists the property sources for placeholder resolution.
func (e *Env) ResolutionRoots(includeLinked bool) []resolve.Root {
	roots := []resolve.Root{{Path: e.ProjectRoot}}
	if includeLinked && e.HasLinkedRoot() {
		roots = append(roots, resolve.Root{Path: e.Scan.LinkedRoot, Linked: true})
	}
	return roots
}

func (e *Env) listFiles(root string) ([]string, error) {
	if e.scans == nil {
		e.scans = &scanCache{files: make(map[string][]string), err: make(map[string]error)}
	}
	e.scans.mu.Lock()
	defer e.scans.mu.Unlock()
	if files, ok := e.scans.files[root]; ok {
		return files, e.scans.err[root]
	}
	res, err := e.Scanner.Scan(root, e.Scan.Ignore)
	var files []string
	if res != nil {
		files = res.Files
	}
	e.scans.files[root] = files
	e.scans.err[root] = err
	return files, err
}

// FindFiles returns the files under the project root, and the linked root
// when includeLinked is set, whose relative path matches one of patterns.
// The allow-list narrows the result only when it intersects it.
func (e *Env) FindFiles(patterns []string, includeLinked bool) []domain.FileRef {
	type searchRoot struct {
		path   string
		linked bool
	}
	roots := []searchRoot{{path: e.ProjectRoot}}
	if includeLinked && e.HasLinkedRoot() && filepath.Clean(e.Scan.LinkedRoot) != filepath.Clean(e.ProjectRoot) {
		roots = append(roots, searchRoot{path: e.Scan.LinkedRoot, linked: true})
	}

	var found []domain.FileRef
	for _, root := range roots {
		files, err := e.listFiles(root.path)
		if err != nil {
			e.Log.Warn().Err(err).Str("root", root.path).Msg("scanning root")
		}
		for _, rel := range files {
			if !eval.MatchesAny(rel, patterns, true) || eval.ShouldIgnoreRel(rel, e.Scan.Ignore) {
				continue
			}
			found = append(found, domain.FileRef{
				Path:   filepath.Join(root.path, filepath.FromSlash(rel)),
				Root:   root.path,
				Rel:    rel,
				Linked: root.linked,
			})
		}
	}

	if e.Scan.AllowList.Len() == 0 {
		return found
	}
	var narrowed []domain.FileRef
	for _, f := range found {
		if e.Scan.AllowList.Has(f.Path) {
			narrowed = append(narrowed, f)
		}
	}
	if len(narrowed) == 0 {
		return found
	}
	return narrowed
}

// ReadFile returns the content of f, optionally with comments removed.
func (e *Env) ReadFile(f domain.FileRef, stripComments bool) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	content := string(data)
	if stripComments {
		content = eval.StripComments(content, f.Ext())
	}
	return content, nil
}

// ResolveAll resolves placeholders in value when enabled, otherwise returns value as-is.
func (e *Env) ResolveAll(value string, enabled, includeLinked bool) resolve.Resolution {
	if !enabled || e.Resolver == nil {
		return resolve.Resolution{Values: []string{value}}
	}
	return e.Resolver.ResolveAll(value, e.ResolutionRoots(includeLinked))
}

// Resolve returns the first resolution of value.
func (e *Env) Resolve(value string, enabled, includeLinked bool) (string, resolve.Trail) {
	res := e.ResolveAll(value, enabled, includeLinked)
	if len(res.Values) == 0 {
		return value, res.Trail
	}
	return res.Values[0], res.Trail
}

// Condition gates a check on a project-wide fact.
type Condition struct {
	Type         string   `mapstructure:"type"`
	Namespace    string   `mapstructure:"namespace"`
	FilePatterns []string `mapstructure:"filePatterns"`
}

// ConditionMet evaluates c. A nil or typeless condition is always met, as is
// any condition type this engine does not know.
func (e *Env) ConditionMet(c *Condition) bool {
	if c == nil || c.Type == "" {
		return true
	}
	switch strings.ToUpper(c.Type) {
	case "NAMESPACE_EXISTS":
		if c.Namespace == "" {
			return true
		}
		for _, f := range e.FindFiles([]string{"**/*.xml"}, false) {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				continue
			}
			if e.Backends.XML != nil && e.Backends.XML.ContainsNamespace(data, c.Namespace) {
				return true
			}
			if strings.Contains(string(data), c.Namespace) {
				return true
			}
		}
		return false
	case "FILE_EXISTS":
		return len(e.FindFiles(c.FilePatterns, false)) > 0
	default:
		e.Log.Debug().Str("type", c.Type).Msg("unknown checkCondition type treated as met")
		return true
	}
}

func bracketList(items []string) string {
	return fmt.Sprintf("[%s]", strings.Join(items, ", "))
}
