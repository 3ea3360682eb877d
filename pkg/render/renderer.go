// Package render wires format negotiation, template location, engine
// dispatch, locals binding, and layout composition into a single pipeline:
//
//	format validated → template located → engine dispatched → locals bound
//	→ body produced → layout composed (optional) → final string
//
// Any stage failing short-circuits with a typed error; no partial output is
// returned. Rendering is stateless per call: a Renderer is safe for
// concurrent use once constructed.
package render

import (
	"context"
	"errors"
	"fmt"
	"path"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/goliatone/go-views/pkg/config"
	"github.com/goliatone/go-views/pkg/engine"
	"github.com/goliatone/go-views/pkg/engine/gotpl"
	"github.com/goliatone/go-views/pkg/engine/pongo"
	"github.com/goliatone/go-views/pkg/locals"
	"github.com/goliatone/go-views/pkg/locator"
	"github.com/goliatone/go-views/pkg/view"
)

// ContentLocal is the reserved insertion-point name a layout receives the
// rendered body under.
const ContentLocal = "content"

// Option customises the renderer configuration.
type Option func(*Renderer)

// WithRegistry injects an engine registry. Without one, the renderer
// registers the bundled gotpl and pongo engines.
func WithRegistry(registry *engine.Registry) Option {
	return func(r *Renderer) {
		r.registry = registry
	}
}

// WithEngines builds a registry from the given engines, in priority order.
func WithEngines(engines ...engine.Engine) Option {
	return func(r *Renderer) {
		registry := engine.NewRegistry()
		for _, e := range engines {
			registry.MustRegister(e)
		}
		r.registry = registry
	}
}

// WithLogger injects a logger for debug tracing of resolution and dispatch.
// Default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer executes render requests against view definitions, sharing the
// process-wide configuration, engine registry, and resolution cache.
type Renderer struct {
	cfg      *config.Config
	registry *engine.Registry
	loc      *locator.Locator
	logger   *zap.Logger
}

// New constructs a Renderer. Missing collaborators are initialised with the
// built-in implementations so callers can start with a single constructor
// call.
func New(cfg *config.Config, options ...Option) (*Renderer, error) {
	if cfg == nil {
		return nil, errors.New("render: config is required")
	}

	r := &Renderer{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.registry == nil {
		registry := engine.NewRegistry()
		registry.MustRegister(gotpl.New())
		registry.MustRegister(pongo.New(pongo.WithFS(cfg.FS())))
		r.registry = registry
	}

	r.loc = locator.New(cfg.FS(), r.registry.Extensions())
	return r, nil
}

// Registry exposes the engine registry, mainly so callers can register
// filters or inspect extensions.
func (r *Renderer) Registry() *engine.Registry { return r.registry }

// Render runs the full pipeline for one request and returns the final
// string. Identical inputs produce byte-identical output.
func (r *Renderer) Render(ctx context.Context, def *view.Definition, req Request) (string, error) {
	if ctx == nil {
		return "", errors.New("render: context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if def == nil {
		return "", errors.New("render: view definition is required")
	}

	if req.Format == "" {
		return "", &MissingFormatError{View: def.Name()}
	}

	l, err := locals.Build(def.Params(), req.Locals)
	if err != nil {
		var missing *locals.MissingLocalError
		if errors.As(err, &missing) {
			missing.View = def.Name()
		}
		return "", err
	}

	var body string
	if fn := def.RenderFunc(); fn != nil {
		r.logger.Debug("render custom func", zap.String("view", def.Name()), zap.String("format", req.Format))
		body, err = fn(ctx, l)
		if err != nil {
			return "", fmt.Errorf("render: view %q custom render: %w", def.Name(), err)
		}
	} else {
		body, err = r.renderTemplate(ctx, def, logicalFor(def, req.Format), req.Format, def.Roots(), l, 0)
		if err != nil {
			return "", err
		}
	}

	return r.composeLayout(ctx, def, req, l, body)
}

// logicalFor asks the definition chain for a format mapping before falling
// back to the declared default template path.
func logicalFor(def *view.Definition, format string) string {
	if logical, ok := def.TemplateFor(format); ok {
		return logical
	}
	return def.TemplatePath()
}

func (r *Renderer) renderTemplate(ctx context.Context, def *view.Definition, logical, format string, roots []string, l *locals.Locals, depth int) (string, error) {
	match, err := r.loc.Resolve(def.Name(), roots, logical, format)
	if err != nil {
		var missing *locator.MissingTemplateError
		if errors.As(err, &missing) {
			return "", missingTemplate(missing)
		}
		return "", err
	}

	raw, err := r.loc.Read(match)
	if err != nil {
		return "", err
	}
	source, err := r.decode(raw, match.Path)
	if err != nil {
		return "", err
	}

	eng, err := r.registry.Get(match.Ext)
	if err != nil {
		return "", err
	}

	r.logger.Debug("render dispatch",
		zap.String("view", def.Name()),
		zap.String("logical", logical),
		zap.String("format", format),
		zap.String("path", match.Path),
		zap.String("engine", eng.Name()),
	)

	rc := engine.Context{
		Locals:  l,
		Partial: r.partialFunc(ctx, def, format, l, depth),
	}
	return eng.Render(ctx, engine.Template{
		Logical: logical,
		Format:  format,
		Path:    match.Path,
		Source:  source,
	}, rc)
}

// partialFunc builds the callback engines expose as the partial helper.
// Resolution roots the lookup at the referencing view's own directories,
// then the configured shared ones. Failures name the partial's logical path,
// not the parent template's.
func (r *Renderer) partialFunc(ctx context.Context, def *view.Definition, format string, l *locals.Locals, depth int) engine.PartialFunc {
	return func(name string, extra map[string]any) (string, error) {
		if depth+1 > r.cfg.MaxPartialDepth() {
			return "", &PartialDepthError{Logical: name, Depth: r.cfg.MaxPartialDepth()}
		}
		roots := append(def.Roots(), r.cfg.SharedRoots()...)
		child := l
		if len(extra) > 0 {
			child = l.With(extra)
		}
		return r.renderTemplate(ctx, def, name, format, roots, child, depth+1)
	}
}

// composeLayout wraps the body in the selected layout: per-request override,
// else the nearest declaration in the view chain, else the config default,
// else bare. The layout sees the body's locals plus the body itself bound to
// ContentLocal, pre-marked safe.
func (r *Renderer) composeLayout(ctx context.Context, def *view.Definition, req Request, l *locals.Locals, body string) (string, error) {
	if req.DisableLayout {
		return body, nil
	}

	name := req.Layout
	if name == "" {
		if declared, ok := def.Layout(); ok {
			name = declared
		} else {
			name = r.cfg.DefaultLayout()
		}
	}
	if name == "" {
		return body, nil
	}

	logical := path.Join(r.cfg.LayoutDir(), name)
	roots := append(def.Roots(), r.cfg.SharedRoots()...)
	roots = append(roots, "")

	layoutLocals := l.With(map[string]any{ContentLocal: locals.Safe(body)})
	return r.renderTemplate(ctx, def, logical, req.Format, roots, layoutLocals, 0)
}

// decode converts template bytes from the configured encoding to UTF-8.
func (r *Renderer) decode(raw []byte, path string) ([]byte, error) {
	if r.cfg.IsUTF8() {
		if !utf8.Valid(raw) {
			return nil, &engine.EncodingError{Encoding: r.cfg.EncodingName(), Template: path}
		}
		return raw, nil
	}

	decoded, err := r.cfg.Encoding().NewDecoder().Bytes(raw)
	if err != nil {
		return nil, &engine.EncodingError{Encoding: r.cfg.EncodingName(), Template: path, Err: err}
	}
	return decoded, nil
}
