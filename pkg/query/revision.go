package query

import (
	"slices"
	"strings"
)

// CompareRevisions compares two revision strings, treating runs of digits as
// numbers. It returns -1, 0 or 1.
//
//	CompareRevisions("10", "9") == 1
//	CompareRevisions("2022-01-01", "2020-02-20") == 1
func CompareRevisions(a, b string) int {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			var ra, rb string
			ra, a = splitRun(a, true)
			rb, b = splitRun(b, true)
			if c := compareNumeric(ra, rb); c != 0 {
				return c
			}
			continue
		}
		if isDigit(ca) != isDigit(cb) {
			// digits sort before other characters
			if isDigit(ca) {
				return -1
			}
			return 1
		}
		var ra, rb string
		ra, a = splitRun(a, false)
		rb, b = splitRun(b, false)
		if c := strings.Compare(ra, rb); c != 0 {
			return c
		}
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// SortByRevision stable-sorts items newest revision first.
func SortByRevision[T any](items []T, revision func(T) string) {
	slices.SortStableFunc(items, func(x, y T) int {
		return CompareRevisions(revision(y), revision(x))
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitRun(s string, digits bool) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
