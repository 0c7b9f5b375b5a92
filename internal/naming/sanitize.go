// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package naming turns free-text document and job names into filesystem-safe
// folder and file names, and resolves collisions between them.
package naming

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxNameLength is the longest sanitized name, in user-perceived characters.
	MaxNameLength = 200

	// Fallback replaces names that sanitize to nothing.
	Fallback = "Untitled"

	replacement = '_'
)

// illegal holds the characters rejected by at least one common filesystem.
const illegal = `/\:*?"<>|`

// Sanitize returns name in a form safe to use as a single path element on
// Windows, macOS and Linux. The result is NFC-normalized, never empty, at most
// MaxNameLength grapheme clusters long, and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	s := norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case strings.ContainsRune(illegal, r):
			b.WriteRune(replacement)
		case isBreakOrControl(r):
		default:
			b.WriteRune(r)
		}
	}

	// Dropping a control character can bring a combining mark next to its
	// base, so normalize once more.
	s = trim(norm.NFC.String(b.String()))
	s = truncate(s, MaxNameLength)
	s = trim(s)
	if s == "" {
		return Fallback
	}
	return s
}

// isBreakOrControl matches C0/C1 controls plus the Unicode line and paragraph
// separators.
func isBreakOrControl(r rune) bool {
	return unicode.IsControl(r) || unicode.In(r, unicode.Zl, unicode.Zp)
}

func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}

// truncate keeps the first max grapheme clusters of s so that multi-rune
// glyphs (combining marks, emoji sequences) are never split.
func truncate(s string, max int) string {
	if uniseg.GraphemeClusterCount(s) <= max {
		return s
	}
	g := uniseg.NewGraphemes(s)
	end := 0
	for n := 0; n < max && g.Next(); n++ {
		_, end = g.Positions()
	}
	return s[:end]
}
