// Package views is a server-side view-rendering core: template lookup across
// prioritised roots, format negotiation, layout composition, partial
// rendering, and pluggable templating engines. This root package re-exports
// the common entry points; the pkg tree holds the implementation.
package views

import (
	"github.com/goliatone/go-views/pkg/config"
	"github.com/goliatone/go-views/pkg/engine"
	"github.com/goliatone/go-views/pkg/engine/gotpl"
	"github.com/goliatone/go-views/pkg/engine/pongo"
	"github.com/goliatone/go-views/pkg/render"
	"github.com/goliatone/go-views/pkg/view"
)

// Request aliases the render request type.
type Request = render.Request

// Definition aliases the view definition type.
type Definition = view.Definition

// Renderer aliases the renderer type.
type Renderer = render.Renderer

// New constructs a renderer over a validated configuration, registering the
// bundled engines unless the options say otherwise.
func New(cfg *config.Config, options ...render.Option) (*render.Renderer, error) {
	return render.New(cfg, options...)
}

// DefaultRegistry builds a registry holding the bundled gotpl and pongo
// engines, gotpl extensions taking lookup priority.
func DefaultRegistry() *engine.Registry {
	registry := engine.NewRegistry()
	registry.MustRegister(gotpl.New())
	registry.MustRegister(pongo.New())
	return registry
}
