// Package view models view definitions: named rendering units that declare
// which templates serve which formats, which roots to search, which layout
// wraps them, and which locals they expect. Definitions are built once at
// configuration time and immutable afterwards, so concurrent renders can
// share them freely.
package view

import (
	"context"
	"sort"

	"github.com/goliatone/go-views/pkg/locals"
)

// DefaultTemplate is the conventional logical name used when a definition
// declares no template for a format and no explicit template path.
const DefaultTemplate = "show"

// RenderFunc is custom render logic that bypasses template lookup entirely.
// Layout composition still applies to its output.
type RenderFunc func(ctx context.Context, l *locals.Locals) (string, error)

// Definition is a named rendering unit. Zero or more templates, one per
// supported format; an optional explicit template path; optional custom
// render logic; an optional parent whose declarations act as fallbacks.
type Definition struct {
	name         string
	templates    map[string]string
	templatePath string
	roots        []string
	layout       string
	layoutSet    bool
	params       locals.Params
	renderFn     RenderFunc
	parent       *Definition
}

// Option customises a definition at construction time.
type Option func(*Definition)

// WithTemplate maps a format to a logical template path.
func WithTemplate(format, logical string) Option {
	return func(d *Definition) {
		if format == "" || logical == "" {
			return
		}
		d.templates[format] = logical
	}
}

// WithTemplates maps several formats at once.
func WithTemplates(templates map[string]string) Option {
	return func(d *Definition) {
		for format, logical := range templates {
			if format == "" || logical == "" {
				continue
			}
			d.templates[format] = logical
		}
	}
}

// WithTemplatePath sets the explicit fallback logical path used when no
// format mapping matches.
func WithTemplatePath(logical string) Option {
	return func(d *Definition) {
		d.templatePath = logical
	}
}

// WithRoots overrides the directories searched for this definition's
// templates, most specific first. Default is the definition name.
func WithRoots(roots ...string) Option {
	return func(d *Definition) {
		d.roots = append([]string(nil), roots...)
	}
}

// WithLayout names the layout wrapping this definition's output. An empty
// name declares "no layout", overriding any ancestor declaration.
func WithLayout(name string) Option {
	return func(d *Definition) {
		d.layout = name
		d.layoutSet = true
	}
}

// WithParams declares the locals this definition expects.
func WithParams(params ...locals.Param) Option {
	return func(d *Definition) {
		d.params = append(d.params, params...)
	}
}

// WithRenderFunc installs custom render logic bypassing template lookup.
func WithRenderFunc(fn RenderFunc) Option {
	return func(d *Definition) {
		d.renderFn = fn
	}
}

// Extend declares parent as the fallback for templates, roots, layout, and
// params. Child declarations win; child roots are searched before parent
// roots.
func Extend(parent *Definition) Option {
	return func(d *Definition) {
		d.parent = parent
	}
}

// New constructs an immutable definition.
func New(name string, options ...Option) *Definition {
	d := &Definition{
		name:      name,
		templates: make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.name }

// Parent returns the extended definition, or nil.
func (d *Definition) Parent() *Definition { return d.parent }

// TemplateFor walks the chain, most specific first, for a format mapping.
func (d *Definition) TemplateFor(format string) (string, bool) {
	for cur := d; cur != nil; cur = cur.parent {
		if logical, ok := cur.templates[format]; ok {
			return logical, true
		}
	}
	return "", false
}

// TemplatePath returns the nearest explicit fallback logical path, or
// DefaultTemplate when the chain declares none.
func (d *Definition) TemplatePath() string {
	for cur := d; cur != nil; cur = cur.parent {
		if cur.templatePath != "" {
			return cur.templatePath
		}
	}
	return DefaultTemplate
}

// Roots returns the search roots for the whole chain: this definition's
// roots, then each ancestor's, duplicates removed. A definition without
// explicit roots contributes its own name.
func (d *Definition) Roots() []string {
	var out []string
	seen := make(map[string]struct{})
	for cur := d; cur != nil; cur = cur.parent {
		roots := cur.roots
		if len(roots) == 0 {
			roots = []string{cur.name}
		}
		for _, root := range roots {
			if _, dup := seen[root]; dup {
				continue
			}
			seen[root] = struct{}{}
			out = append(out, root)
		}
	}
	return out
}

// Layout returns the nearest declared layout name in the chain. The boolean
// reports whether any level declared one at all; a declared empty name means
// "render bare".
func (d *Definition) Layout() (string, bool) {
	for cur := d; cur != nil; cur = cur.parent {
		if cur.layoutSet {
			return cur.layout, true
		}
	}
	return "", false
}

// Params collapses the chain's declared locals, ancestors first so child
// declarations override same-named ones.
func (d *Definition) Params() locals.Params {
	var chain []*Definition
	for cur := d; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	var merged locals.Params
	for i := len(chain) - 1; i >= 0; i-- {
		merged = merged.Merge(chain[i].params)
	}
	return merged
}

// RenderFunc returns the nearest custom render logic in the chain, or nil.
func (d *Definition) RenderFunc() RenderFunc {
	for cur := d; cur != nil; cur = cur.parent {
		if cur.renderFn != nil {
			return cur.renderFn
		}
	}
	return nil
}

// Formats returns the sorted set of formats declared anywhere in the chain.
func (d *Definition) Formats() []string {
	seen := make(map[string]struct{})
	for cur := d; cur != nil; cur = cur.parent {
		for format := range cur.templates {
			seen[format] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for format := range seen {
		out = append(out, format)
	}
	sort.Strings(out)
	return out
}
