// Package pongo implements the Django-style alternate engine on top of
// flosch/pongo2. Locals appear as top-level context variables; helpers mirror
// the gotpl engine:
//
//	{{ title }}                     value of a local
//	{% if has("subtitle") %}        presence query
//	{{ partial("header") }}         nested template, already marked safe
//
// pongo2 autoescapes interpolations, so locals.Safe values and partial output
// are wrapped as safe values before execution.
package pongo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-views/pkg/engine"
	"github.com/goliatone/go-views/pkg/locals"
)

const engineName = "pongo"

// Option configures the engine before construction.
type Option func(*Engine)

// WithExtensions overrides the extensions the engine registers under.
// Default: tpl.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		if len(exts) > 0 {
			e.exts = append([]string(nil), exts...)
		}
	}
}

// WithFS serves set-level lookups, such as the include and extends tags,
// from fsys. Without it the set falls back to a cwd-relative file loader.
func WithFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.fsys = fsys
	}
}

// WithGlobals seeds context values available to every template.
func WithGlobals(data map[string]any) Option {
	return func(e *Engine) {
		for key, value := range data {
			e.globals[key] = value
		}
	}
}

// Engine renders pongo2 sources. Compiled templates are cached by path under
// a double-checked RWMutex; the template filesystem is immutable once
// rendering begins.
type Engine struct {
	mu          sync.RWMutex
	templateSet *pongo2.TemplateSet
	cache       map[string]*pongo2.Template
	exts        []string
	globals     pongo2.Context
	fsys        fs.FS
}

var _ engine.Engine = (*Engine)(nil)

// New constructs the engine applying any provided options.
func New(options ...Option) *Engine {
	e := &Engine{
		cache:   make(map[string]*pongo2.Template),
		exts:    []string{"tpl"},
		globals: pongo2.Context{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	// pongo2 requires a loader even though compilation goes through
	// FromBytes; serve it from the template filesystem when we have one.
	var loader pongo2.TemplateLoader = pongo2.MustNewLocalFileSystemLoader("")
	if e.fsys != nil {
		loader = pongo2.NewFSLoader(e.fsys)
	}
	e.templateSet = pongo2.NewSet("go-views", loader)
	return e
}

func (e *Engine) Name() string { return engineName }

func (e *Engine) Extensions() []string {
	out := make([]string, len(e.exts))
	copy(out, e.exts)
	return out
}

// RegisterFilter registers a pongo2 filter usable from any template rendered
// by this process. Duplicate names return an error.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if name == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
	return pongo2.RegisterFilter(name, filter)
}

// Render executes the template against the render context.
func (e *Engine) Render(ctx context.Context, tpl engine.Template, rc engine.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	compiled, err := e.compiled(tpl)
	if err != nil {
		return "", err
	}

	var helperErr error
	viewContext := pongo2.Context{}
	for key, value := range e.globals {
		viewContext[key] = value
	}
	for name, value := range rc.Locals.Map() {
		viewContext[name] = convertValue(value)
	}
	viewContext["has"] = func(name *pongo2.Value) *pongo2.Value {
		return pongo2.AsValue(rc.Locals.Has(name.String()))
	}
	viewContext["partial"] = func(name *pongo2.Value, pairs ...*pongo2.Value) *pongo2.Value {
		if helperErr != nil {
			return pongo2.AsSafeValue("")
		}
		if rc.Partial == nil {
			helperErr = errors.New("pongo: partials are not available in this context")
			return pongo2.AsSafeValue("")
		}
		extra, err := pairsToMap(pairs)
		if err != nil {
			helperErr = err
			return pongo2.AsSafeValue("")
		}
		out, err := rc.Partial(name.String(), extra)
		if err != nil {
			helperErr = err
			return pongo2.AsSafeValue("")
		}
		return pongo2.AsSafeValue(out)
	}

	out, execErr := compiled.Execute(viewContext)
	if helperErr != nil {
		return "", helperErr
	}
	if execErr != nil {
		return "", &engine.ExecError{Engine: engineName, Template: tpl.Path, Err: execErr}
	}
	return out, nil
}

func (e *Engine) compiled(tpl engine.Template) (*pongo2.Template, error) {
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

	compiled, err := e.templateSet.FromBytes(tpl.Source)
	if err != nil {
		return nil, &engine.ExecError{Engine: engineName, Template: tpl.Path, Err: err}
	}

	e.cache[tpl.Path] = compiled
	return compiled, nil
}

// convertValue marks pre-rendered markup safe so autoescaping leaves it
// alone.
func convertValue(value any) any {
	if safe, ok := value.(locals.Safe); ok {
		return pongo2.AsSafeValue(string(safe))
	}
	return value
}

func pairsToMap(pairs []*pongo2.Value) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("pongo: partial expects key/value pairs, got %d trailing argument(s)", len(pairs)%2)
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out[pairs[i].String()] = pairs[i+1].Interface()
	}
	return out, nil
}
