// Package resolve substitutes property placeholders such as ${db.host} with
// values found in the project's .properties files and records every
// substitution for audit.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/eval"
)

const (
	maxRounds    = 10
	linkedPrefix = "CONFIG - "
	notResolved  = "NOT RESOLVED"
)

// DefaultPatterns are the placeholder syntaxes recognised when none are configured.
var DefaultPatterns = []string{`\$\{([^}]+)}`, `p\(['"]([^'"]+)['"]\)`}

// Root is a directory whose .properties files supply values.
type Root struct {
	Path   string
	Linked bool
}

// Resolution is the outcome of resolving one value.
type Resolution struct {
	// Values holds every distinct substitution result, in discovery order.
	Values []string
	Trail  Trail
}

// First returns the first resolved value.
func (r Resolution) First() string {
	if len(r.Values) == 0 {
		return ""
	}
	return r.Values[0]
}

// Options configures a Resolver.
type Options struct {
	Patterns []string
	Ignore   domain.IgnoreRules
	Logger   zerolog.Logger
}

type source struct {
	label string
	value string
}

type index map[string][]source

// Resolver looks placeholders up in property files. Property files are read
// once per root for the lifetime of the Resolver.
type Resolver struct {
	scanner  domain.ProjectScanner
	parser   domain.PropertiesParser
	patterns []*regexp.Regexp
	ignore   domain.IgnoreRules
	log      zerolog.Logger

	mu      sync.Mutex
	indexes map[string]index
}

// New creates a Resolver. Invalid patterns are reported as an error.
func New(scanner domain.ProjectScanner, parser domain.PropertiesParser, opts Options) (*Resolver, error) {
	exprs := opts.Patterns
	if len(exprs) == 0 {
		exprs = DefaultPatterns
	}
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling property pattern %q: %w", expr, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("property pattern %q has no capture group", expr)
		}
		patterns = append(patterns, re)
	}
	return &Resolver{
		scanner:  scanner,
		parser:   parser,
		patterns: patterns,
		ignore:   opts.Ignore,
		log:      opts.Logger,
		indexes:  make(map[string]index),
	}, nil
}

// HasPlaceholder reports whether value contains any recognised placeholder.
func (r *Resolver) HasPlaceholder(value string) bool {
	for _, re := range r.patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// Resolve returns the first resolution of value.
func (r *Resolver) Resolve(value string, roots []Root) (string, Trail) {
	res := r.ResolveAll(value, roots)
	if len(res.Values) == 0 {
		return value, res.Trail
	}
	return res.Values[0], res.Trail
}

// ResolveAll substitutes placeholders one at a time, branching when sources
// disagree, for at most ten rounds. Placeholders no source defines are left in
// place and recorded as NOT RESOLVED. Linked roots are searched before others.
func (r *Resolver) ResolveAll(value string, roots []Root) Resolution {
	if !r.HasPlaceholder(value) {
		return Resolution{Values: []string{value}}
	}
	indexes := r.load(orderRoots(roots))

	var trail Trail
	unresolved := make(map[string]bool)
	current := []string{value}

	for round := 0; round < maxRounds; round++ {
		changed := false
		var next []string
		seen := make(map[string]bool)
		keep := func(v string) {
			if !seen[v] {
				seen[v] = true
				next = append(next, v)
			}
		}

		for _, v := range current {
			placeholder, key, ok := r.nextPlaceholder(v, unresolved)
			if !ok {
				keep(v)
				continue
			}
			changed = true

			var found []source
			for _, idx := range indexes {
				found = append(found, idx[key]...)
			}
			if len(found) == 0 {
				unresolved[placeholder] = true
				trail.Add(placeholder + " → " + notResolved)
				keep(v)
				continue
			}
			for _, s := range found {
				trail.Add(fmt.Sprintf("%s → %s (%s)", placeholder, s.value, s.label))
				keep(strings.ReplaceAll(v, placeholder, s.value))
			}
		}

		current = next
		if !changed {
			break
		}
	}
	return Resolution{Values: current, Trail: trail}
}

func (r *Resolver) nextPlaceholder(v string, unresolved map[string]bool) (placeholder, key string, ok bool) {
	for _, re := range r.patterns {
		for _, m := range re.FindAllStringSubmatch(v, -1) {
			if !unresolved[m[0]] {
				return m[0], strings.TrimSpace(m[1]), true
			}
		}
	}
	return "", "", false
}

func orderRoots(roots []Root) []Root {
	var linked, plain []Root
	for _, rt := range roots {
		if rt.Path == "" {
			continue
		}
		if rt.Linked {
			linked = append(linked, rt)
		} else {
			plain = append(plain, rt)
		}
	}
	out := append(linked, plain...)
	seen := make(map[string]bool, len(out))
	dedup := out[:0]
	for _, rt := range out {
		if !seen[rt.Path] {
			seen[rt.Path] = true
			dedup = append(dedup, rt)
		}
	}
	return dedup
}

func (r *Resolver) load(roots []Root) []index {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]index, 0, len(roots))
	for _, rt := range roots {
		cacheKey := rt.Path
		if rt.Linked {
			cacheKey = linkedPrefix + rt.Path
		}
		idx, ok := r.indexes[cacheKey]
		if !ok {
			idx = r.buildIndex(rt)
			r.indexes[cacheKey] = idx
		}
		out = append(out, idx)
	}
	return out
}

func (r *Resolver) buildIndex(rt Root) index {
	idx := make(index)
	scan, err := r.scanner.Scan(rt.Path, r.ignore)
	if err != nil {
		r.log.Warn().Err(err).Str("root", rt.Path).Msg("scanning for property files")
		return idx
	}
	parent := filepath.Dir(rt.Path)
	for _, rel := range scan.Files {
		if !strings.HasSuffix(rel, ".properties") || eval.ShouldIgnoreRel(rel, r.ignore) {
			continue
		}
		abs := filepath.Join(rt.Path, filepath.FromSlash(rel))
		data, err := os.ReadFile(abs)
		if err != nil {
			r.log.Debug().Err(err).Str("file", abs).Msg("reading property file")
			continue
		}
		props, err := r.parser.Parse(data)
		if err != nil {
			r.log.Debug().Err(err).Str("file", abs).Msg("parsing property file")
			continue
		}
		display, err := filepath.Rel(parent, abs)
		if err != nil {
			display = rel
		}
		label := filepath.ToSlash(display)
		if rt.Linked {
			label = linkedPrefix + label
		}
		for _, k := range props.Keys() {
			v, _ := props.Get(k)
			idx[k] = append(idx[k], source{label: label, value: v})
		}
	}
	return idx
}
