package eval

import "strings"

// Match modes aggregate per-file verdicts into one check verdict.
const (
	ModeAllFiles    = "ALL_FILES"
	ModeAnyFile     = "ANY_FILE"
	ModeNoneOfFiles = "NONE_OF_FILES"
	ModeExactlyOne  = "EXACTLY_ONE"
	ModeAtLeastN    = "AT_LEAST_N"
	ModeAtMostN     = "AT_MOST_N"
)

// EvaluateMatchMode decides the overall verdict from the number of files
// inspected and the number that matched. Empty or unknown modes mean ALL_FILES.
func EvaluateMatchMode(mode string, total, matching, n int) bool {
	switch strings.ToUpper(strings.TrimSpace(mode)) {
	case ModeAnyFile:
		return matching > 0
	case ModeNoneOfFiles:
		return matching == 0
	case ModeExactlyOne:
		return matching == 1
	case ModeAtLeastN:
		return matching >= n
	case ModeAtMostN:
		return matching <= n
	default:
		return matching == total
	}
}
