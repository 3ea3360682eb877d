package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps template file extensions to engines, providing discovery and
// duplication safeguards. Extension order follows registration order, which
// the locator uses as lookup priority.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]Engine
	ordered []string
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]Engine),
	}
}

// Register adds an engine under each of its extensions. Duplicate extensions
// return an error.
func (r *Registry) Register(e Engine) error {
	if e == nil {
		return fmt.Errorf("engine: engine is required")
	}
	exts := e.Extensions()
	if len(exts) == 0 {
		return fmt.Errorf("engine: engine %q declares no extensions", e.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range exts {
		ext = normalizeExt(ext)
		if ext == "" {
			return fmt.Errorf("engine: engine %q declares an empty extension", e.Name())
		}
		if _, exists := r.byExt[ext]; exists {
			return fmt.Errorf("engine: extension %q already registered", ext)
		}
	}
	for _, ext := range exts {
		ext = normalizeExt(ext)
		r.byExt[ext] = e
		r.ordered = append(r.ordered, ext)
	}
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(e Engine) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Get retrieves the engine registered for an extension.
func (r *Registry) Get(ext string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byExt[normalizeExt(ext)]
	if !ok {
		return nil, fmt.Errorf("engine: no engine registered for extension %q", ext)
	}
	return e, nil
}

// Has reports whether an extension is registered.
func (r *Registry) Has(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byExt[normalizeExt(ext)]
	return ok
}

// Extensions returns the registered extensions in registration order. The
// locator tries them in this order when resolving templates.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// List returns a sorted list of registered engine names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.byExt))
	names := make([]string, 0, len(r.byExt))
	for _, e := range r.byExt {
		name := e.Name()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.TrimSpace(ext), ".")
}
