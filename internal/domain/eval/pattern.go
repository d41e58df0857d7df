package eval

import (
	"regexp"
	"strings"
	"sync"
)

type globKey struct {
	pattern       string
	caseSensitive bool
}

var globCache sync.Map // globKey -> *regexp.Regexp

// GlobToRegexp translates a glob into an anchored regular expression.
// `**/` matches any run of leading directories (including none), `**` any
// run of characters, `*` any run within one segment and `?` one character.
func GlobToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 3
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i += 2
		case pattern[i] == '*':
			b.WriteString("[^/]*")
			i++
		case pattern[i] == '?':
			b.WriteString("[^/]")
			i++
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}
	b.WriteString("$")
	return b.String()
}

// CompileGlob returns the cached compiled form of pattern.
func CompileGlob(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	key := globKey{pattern, caseSensitive}
	if re, ok := globCache.Load(key); ok {
		return re.(*regexp.Regexp), nil
	}
	expr := GlobToRegexp(pattern)
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	globCache.Store(key, re)
	return re, nil
}

// Matches reports whether the forward-slash path fully matches pattern.
func Matches(path, pattern string, caseSensitive bool) bool {
	re, err := CompileGlob(pattern, caseSensitive)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// MatchesAny reports whether path matches at least one pattern. An empty list never matches.
func MatchesAny(path string, patterns []string, caseSensitive bool) bool {
	for _, p := range patterns {
		if Matches(path, p, caseSensitive) {
			return true
		}
	}
	return false
}
