// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package naming

import (
	"fmt"
	"os"
)

// NameSet is a set of names already taken in one directory.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s NameSet) Add(name string) { s[name] = struct{}{} }

func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// ReadDirNames returns the names of all entries in dir. A missing directory
// yields an empty set.
func ReadDirNames(dir string) (NameSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NameSet{}, nil
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	s := make(NameSet, len(entries))
	for _, e := range entries {
		s.Add(e.Name())
	}
	return s, nil
}

// Resolve returns base if it is not in existing, otherwise the first of
// "base (2)", "base (3)", ... that is free. It does not modify existing; the
// caller adds the returned name before resolving the next one.
func Resolve(base string, existing NameSet) string {
	if !existing.Has(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !existing.Has(candidate) {
			return candidate
		}
	}
}

// PageFilename names the JPG for a 1-based page: the page number zero-padded
// to three digits (four when the document has 1000 pages or more), a dash, and
// the document name.
func PageFilename(page, pageCount int, docName string) string {
	width := 3
	if pageCount >= 1000 {
		width = 4
	}
	return fmt.Sprintf("%0*d - %s.jpg", width, page, docName)
}
