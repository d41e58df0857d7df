package eval

import (
	"strconv"
	"strings"
)

// CompareSemver compares two version strings component-wise after dropping
// every character that is not a digit or a dot. Missing trailing components
// count as zero. It returns -1, 0 or 1.
func CompareSemver(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if c := compareComponent(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func versionParts(v string) []string {
	clean := strings.Map(func(r rune) rune {
		if r == '.' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, v)
	if clean == "" {
		return nil
	}
	return strings.Split(clean, ".")
}

func compareComponent(x, y string) int {
	nx, errX := strconv.ParseUint(orZero(x), 10, 64)
	ny, errY := strconv.ParseUint(orZero(y), 10, 64)
	if errX != nil || errY != nil {
		// Components too large for uint64 compare by length, then lexically.
		x, y = strings.TrimLeft(x, "0"), strings.TrimLeft(y, "0")
		if len(x) != len(y) {
			if len(x) < len(y) {
				return -1
			}
			return 1
		}
		return strings.Compare(x, y)
	}
	switch {
	case nx < ny:
		return -1
	case nx > ny:
		return 1
	default:
		return 0
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
