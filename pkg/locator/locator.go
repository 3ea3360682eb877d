// Package locator resolves logical template names to concrete files inside a
// template filesystem, honouring root priority, engine extension order, and
// the exact-match-over-subdirectory contract.
package locator

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Match is a successful resolution: the file path inside the filesystem plus
// the engine extension that matched.
type Match struct {
	Path string
	Ext  string
}

// MissingTemplateError reports that no candidate file resolved for a logical
// name and format. The message names the attempted logical path and format so
// partial failures identify themselves, not their parent.
type MissingTemplateError struct {
	Logical string
	Format  string
	Roots   []string
}

func (e *MissingTemplateError) Error() string {
	if len(e.Roots) == 0 {
		return fmt.Sprintf("locator: missing template %q for format %q", e.Logical, e.Format)
	}
	return fmt.Sprintf("locator: missing template %q for format %q (searched: %s)",
		e.Logical, e.Format, strings.Join(e.Roots, ", "))
}

// Locator searches ordered root directories for files named
// <logical>.<format>.<ext>, trying every registered engine extension per
// root. Resolutions are cached per (owner, format, logical); concurrent first
// resolutions of the same key are last-writer-wins, which is safe because
// resolution is deterministic over an immutable filesystem.
type Locator struct {
	fsys  fs.FS
	exts  []string
	cache sync.Map // string -> Match
}

// New builds a locator over fsys using the given extension priority, normally
// Registry.Extensions().
func New(fsys fs.FS, extensions []string) *Locator {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return &Locator{fsys: fsys, exts: exts}
}

// Resolve finds the most specific template for logical+format under roots,
// ordered most specific first. Owner keys the cache; pass the view name.
//
// Two passes: exact candidates <root>/<logical>.<format>.<ext> across every
// root first, then subdirectory candidates <root>/<logical>/<base>.<format>.<ext>.
// A subdirectory sharing the logical name never shadows an exact match, even
// one in a lower-priority root.
func (l *Locator) Resolve(owner string, roots []string, logical, format string) (Match, error) {
	key := owner + "\x00" + format + "\x00" + logical + "\x00" + strings.Join(roots, "\x1f")
	if cached, ok := l.cache.Load(key); ok {
		return cached.(Match), nil
	}

	for _, root := range roots {
		for _, ext := range l.exts {
			candidate := path.Join(root, logical) + "." + format + "." + ext
			if l.exists(candidate) {
				m := Match{Path: candidate, Ext: ext}
				l.cache.Store(key, m)
				return m, nil
			}
		}
	}

	base := path.Base(logical)
	for _, root := range roots {
		for _, ext := range l.exts {
			candidate := path.Join(root, logical, base) + "." + format + "." + ext
			if l.exists(candidate) {
				m := Match{Path: candidate, Ext: ext}
				l.cache.Store(key, m)
				return m, nil
			}
		}
	}

	searched := make([]string, len(roots))
	copy(searched, roots)
	return Match{}, &MissingTemplateError{Logical: logical, Format: format, Roots: searched}
}

// Read returns the raw bytes of a previously resolved match.
func (l *Locator) Read(m Match) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, m.Path)
	if err != nil {
		return nil, fmt.Errorf("locator: read template %q: %w", m.Path, err)
	}
	return data, nil
}

func (l *Locator) exists(name string) bool {
	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
