// Package gotpl implements the host-language template engine on top of
// text/template. Templates receive the merged locals as dot, plus helpers:
//
//	{{.title}}               value of a local (empty when absent)
//	{{if has "subtitle"}}    presence query, never fails on absent names
//	{{local "subtitle"}}     explicit lookup returning nil when absent
//	{{partial "header"}}     render a nested template, optionally with
//	{{partial "row" "n" 1}}  extra key/value locals layered on top
//
// text/template is used rather than html/template so non-HTML formats (json,
// text) pass through without contextual escaping; escaping policy belongs to
// the locals layer (locals.Safe / SafeHTML decorator).
package gotpl

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/goliatone/go-views/pkg/engine"
	"github.com/goliatone/go-views/pkg/locals"
)

const engineName = "gotpl"

// Helper names must exist at parse time. Parsing binds placeholders; each
// render clones the parsed tree and swaps in closures over that call's
// context.
var placeholderFuncs = template.FuncMap{
	"partial": func(string, ...any) string { return "" },
	"has":     func(string) bool { return false },
	"local":   func(string) any { return nil },
}

// Option configures the engine before construction.
type Option func(*Engine)

// WithExtensions overrides the extensions the engine registers under.
// Default: tmpl.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		if len(exts) > 0 {
			e.exts = append([]string(nil), exts...)
		}
	}
}

// WithFuncs merges additional template functions available to every
// template. Per-render helpers (partial, has, local) cannot be replaced.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// Engine renders text/template sources. Parsed templates are cached by path;
// the template filesystem is immutable once rendering begins, so the cache
// never invalidates.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*template.Template
	exts  []string
	funcs template.FuncMap
}

var _ engine.Engine = (*Engine)(nil)

// New constructs the engine applying any provided options.
func New(options ...Option) *Engine {
	e := &Engine{
		cache: make(map[string]*template.Template),
		exts:  []string{"tmpl"},
		funcs: template.FuncMap{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return engineName }

func (e *Engine) Extensions() []string {
	out := make([]string, len(e.exts))
	copy(out, e.exts)
	return out
}

// Render executes the template against the render context. Helper errors
// (missing partials and the like) surface with their own type instead of
// being folded into the engine's exec error.
func (e *Engine) Render(ctx context.Context, tpl engine.Template, rc engine.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !utf8.Valid(tpl.Source) {
		return "", &engine.EncodingError{Encoding: "utf-8", Template: tpl.Path}
	}

	parsed, err := e.parsed(tpl)
	if err != nil {
		return "", err
	}

	bound, err := parsed.Clone()
	if err != nil {
		return "", &engine.ExecError{Engine: engineName, Template: tpl.Path, Err: err}
	}

	var helperErr error
	bound.Funcs(template.FuncMap{
		"partial": func(name string, pairs ...any) string {
			if helperErr != nil {
				return ""
			}
			if rc.Partial == nil {
				helperErr = fmt.Errorf("gotpl: partials are not available in this context")
				return ""
			}
			extra, err := pairsToMap(pairs)
			if err != nil {
				helperErr = err
				return ""
			}
			out, err := rc.Partial(name, extra)
			if err != nil {
				helperErr = err
				return ""
			}
			return out
		},
		"has": func(name string) bool {
			return rc.Locals.Has(name)
		},
		"local": func(name string) any {
			return unwrapSafe(rc.Locals.Get(name))
		},
	})

	var buf bytes.Buffer
	execErr := bound.Execute(&buf, data(rc.Locals))
	if helperErr != nil {
		return "", helperErr
	}
	if execErr != nil {
		return "", &engine.ExecError{Engine: engineName, Template: tpl.Path, Err: execErr}
	}
	return buf.String(), nil
}

func (e *Engine) parsed(tpl engine.Template) (*template.Template, error) {
	e.mu.RLock()
	if cached, ok := e.cache[tpl.Path]; ok {
		e.mu.RUnlock()
		return cached, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, ok := e.cache[tpl.Path]; ok {
		return cached, nil
	}

	parsed, err := template.New(tpl.Path).Funcs(placeholderFuncs).Funcs(e.funcs).Parse(string(tpl.Source))
	if err != nil {
		return nil, &engine.ExecError{Engine: engineName, Template: tpl.Path, Err: err}
	}

	e.cache[tpl.Path] = parsed
	return parsed, nil
}

// data flattens locals into the template dot, unwrapping Safe strings since
// text/template does no escaping of its own.
func data(l *locals.Locals) map[string]any {
	out := l.Map()
	for name, value := range out {
		out[name] = unwrapSafe(value)
	}
	return out
}

func unwrapSafe(value any) any {
	if safe, ok := value.(locals.Safe); ok {
		return string(safe)
	}
	return value
}

func pairsToMap(pairs []any) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("gotpl: partial expects key/value pairs, got %d trailing argument(s)", len(pairs)%2)
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("gotpl: partial local name must be a string, got %T", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}
