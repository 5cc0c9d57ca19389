// Package allowlist holds the fixed set of files the execute and
// list_allowed_files tools are permitted to touch. Membership is decided by
// exact canonical-path match only — no prefix, glob, or substring match —
// so a model can never walk outside the files the CLI operator explicitly
// exposed for the session.
package allowlist

import (
	"path/filepath"
	"sort"
	"strings"
)

// File describes one allowlisted file available to the execute and
// list_allowed_files tools.
type File struct {
	CanonicalPath string // absolute, symlink-resolved path used as the lookup key
	DisplayName   string // name surfaced to the model (usually the basename or operator-chosen alias)
	SizeBytes     int64
}

// List is an immutable, pre-computed set of File entries. The CLI builds
// this once at startup (cmd/aicli) from operator-supplied paths; nothing in
// the tool loop ever adds to it at runtime.
type List struct {
	byPath map[string]File
	order  []string // CanonicalPath, insertion order, for stable listing
}

// New builds a List from files. A later entry with a duplicate
// CanonicalPath replaces an earlier one.
func New(files []File) *List {
	l := &List{byPath: make(map[string]File, len(files))}
	for _, f := range files {
		if _, exists := l.byPath[f.CanonicalPath]; !exists {
			l.order = append(l.order, f.CanonicalPath)
		}
		l.byPath[f.CanonicalPath] = f
	}
	return l
}

// Canonicalize resolves path the same way every allowlist entry must have
// been resolved when the list was built, so a lookup key always matches
// apples to apples: absolute, cleaned, with any symlink resolved.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Fall back to the cleaned absolute path so a not-yet-created file
		// (or one on a filesystem that doesn't support the lookup) can still
		// be matched by exact-path comparison rather than failing closed.
		return filepath.Clean(abs), nil
	}
	return resolved, nil
}

// Lookup returns the File registered under the exact canonical path, with
// no prefix or substring fallback.
func (l *List) Lookup(canonicalPath string) (File, bool) {
	f, ok := l.byPath[canonicalPath]
	return f, ok
}

// FilterByDisplayNameSubstring returns every entry whose DisplayName
// contains substr, case-insensitively, capped at limit entries (0 means no
// cap), sorted by DisplayName for a stable result across calls.
func (l *List) FilterByDisplayNameSubstring(substr string, limit int) []File {
	needle := strings.ToLower(substr)
	matches := make([]File, 0, len(l.order))
	for _, path := range l.order {
		f := l.byPath[path]
		if needle == "" || strings.Contains(strings.ToLower(f.DisplayName), needle) {
			matches = append(matches, f)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].DisplayName < matches[j].DisplayName })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// FilterByPathSubstring returns every entry whose CanonicalPath contains
// substr, case-insensitively, in insertion order. The match is against the
// full canonical path, not the display name; callers apply their own
// start/size pagination over the result.
func (l *List) FilterByPathSubstring(substr string) []File {
	needle := strings.ToLower(substr)
	matches := make([]File, 0, len(l.order))
	for _, path := range l.order {
		f := l.byPath[path]
		if needle == "" || strings.Contains(strings.ToLower(f.CanonicalPath), needle) {
			matches = append(matches, f)
		}
	}
	return matches
}

// Len reports the number of distinct allowlisted files.
func (l *List) Len() int {
	return len(l.order)
}
