// Package textutil provides small text helpers for rendering notification
// content in terminal tables and push message bodies.
package textutil

import (
	"strings"
	"unicode"
)

// Truncate shortens s to at most max runes, replacing the tail with an
// ellipsis when it does not fit. A max below the ellipsis width returns the
// bare cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// CollapseSpace trims s and folds internal whitespace runs, including
// newlines, into single spaces. Descriptions arrive from arbitrary
// producers and may embed multi-line text that would break table rows.
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte(' ')
			inSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
