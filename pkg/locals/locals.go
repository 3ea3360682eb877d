package locals

import (
	"fmt"
	"sort"
)

// Safe marks a string as pre-rendered markup that engines must emit without
// escaping. The renderer binds composed bodies (the layout insertion point)
// as Safe.
type Safe string

// Param declares a single named local a view expects. Required params must be
// supplied by the caller before any template executes; optional params may be
// omitted, in which case Default (possibly nil) is bound instead.
type Param struct {
	Name      string
	Required  bool
	Default   any
	Decorator Decorator
}

// Params is an ordered set of declared locals.
type Params []Param

// Required builds a required param declaration.
func Required(name string) Param {
	return Param{Name: name, Required: true}
}

// Optional builds an optional param declaration.
func Optional(name string) Param {
	return Param{Name: name}
}

// OptionalDefault builds an optional param with a fallback value.
func OptionalDefault(name string, value any) Param {
	return Param{Name: name, Default: value}
}

// Decorated attaches a decorator to a param declaration.
func (p Param) Decorated(d Decorator) Param {
	p.Decorator = d
	return p
}

// Merge overlays other on top of p: declarations in other replace same-named
// declarations in p, new names are appended. Used to collapse an inheritance
// chain into a single declaration set.
func (p Params) Merge(other Params) Params {
	if len(other) == 0 {
		return p
	}
	out := make(Params, 0, len(p)+len(other))
	index := make(map[string]int, len(p))
	for _, param := range p {
		index[param.Name] = len(out)
		out = append(out, param)
	}
	for _, param := range other {
		if i, ok := index[param.Name]; ok {
			out[i] = param
			continue
		}
		index[param.Name] = len(out)
		out = append(out, param)
	}
	return out
}

// MissingLocalError reports a required local absent from a render request.
type MissingLocalError struct {
	Name string
	View string
}

func (e *MissingLocalError) Error() string {
	if e.View != "" {
		return fmt.Sprintf("locals: view %q: missing required local %q", e.View, e.Name)
	}
	return fmt.Sprintf("locals: missing required local %q", e.Name)
}

// Locals is the merged name→value mapping visible inside a template. It is
// built once per render call and not mutated afterwards; templates query
// presence through Has instead of triggering an error on absent names.
type Locals struct {
	values map[string]any
}

// Build merges declared params with caller-supplied values. Required params
// missing from supplied fail fast with *MissingLocalError so no engine runs
// against an incomplete context. Supplied names with no declaration pass
// through untouched. Decorators wrap matched values before binding.
func Build(declared Params, supplied map[string]any) (*Locals, error) {
	values := make(map[string]any, len(declared)+len(supplied))

	for name, value := range supplied {
		values[name] = value
	}

	for _, param := range declared {
		value, present := values[param.Name]
		if !present {
			if param.Required {
				return nil, &MissingLocalError{Name: param.Name}
			}
			if param.Default == nil {
				continue
			}
			value = param.Default
		}
		if param.Decorator != nil {
			decorated, err := param.Decorator.Decorate(value)
			if err != nil {
				return nil, fmt.Errorf("locals: decorate %q: %w", param.Name, err)
			}
			value = decorated
		}
		values[param.Name] = value
	}

	return &Locals{values: values}, nil
}

// FromMap wraps an already-merged mapping without declaration checks. Partial
// renders use this to layer extra locals on top of the parent context.
func FromMap(values map[string]any) *Locals {
	copied := make(map[string]any, len(values))
	for name, value := range values {
		copied[name] = value
	}
	return &Locals{values: copied}
}

// Has reports whether name is bound. Absent names are queryable without
// failing the render.
func (l *Locals) Has(name string) bool {
	if l == nil {
		return false
	}
	_, ok := l.values[name]
	return ok
}

// Get returns the bound value, or nil when absent.
func (l *Locals) Get(name string) any {
	if l == nil {
		return nil
	}
	return l.values[name]
}

// Len returns the number of bound locals.
func (l *Locals) Len() int {
	if l == nil {
		return 0
	}
	return len(l.values)
}

// Names returns the bound names in sorted order.
func (l *Locals) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.values))
	for name := range l.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a fresh copy of the bindings for handing to a template engine.
func (l *Locals) Map() map[string]any {
	if l == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(l.values))
	for name, value := range l.values {
		out[name] = value
	}
	return out
}

// With returns a new Locals layering extra bindings on top of l. Extra wins
// on name collisions; l is left untouched.
func (l *Locals) With(extra map[string]any) *Locals {
	merged := l.Map()
	for name, value := range extra {
		merged[name] = value
	}
	return &Locals{values: merged}
}
