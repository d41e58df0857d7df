package eval

import "regexp"

var (
	markupComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	// A `//` preceded by `:` is a URL scheme separator, not a comment.
	lineComment = regexp.MustCompile(`(?m)(^|[^:])//.*$`)
	hashComment = regexp.MustCompile(`(?m)^[ \t]*#.*$`)
)

var commentStyles = map[string]string{
	"xml": "markup", "html": "markup", "xhtml": "markup", "mule": "markup",
	"java": "c", "js": "c", "ts": "c", "c": "c", "cpp": "c", "cs": "c", "go": "c", "json": "c", "dwl": "c",
	"properties": "hash", "yaml": "hash", "yml": "hash", "sh": "hash", "policy": "hash",
	"conf": "hash", "toml": "hash", "py": "hash",
}

// StripComments removes comments from content using the comment syntax of a
// file with extension ext (lower case, no dot). Unknown extensions are returned unchanged.
func StripComments(content, ext string) string {
	switch commentStyles[ext] {
	case "markup":
		return markupComment.ReplaceAllString(content, "")
	case "c":
		content = blockComment.ReplaceAllString(content, "")
		return lineComment.ReplaceAllString(content, "$1")
	case "hash":
		return hashComment.ReplaceAllString(content, "")
	default:
		return content
	}
}
