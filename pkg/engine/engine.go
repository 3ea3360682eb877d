package engine

import (
	"context"
	"fmt"

	"github.com/goliatone/go-views/pkg/locals"
)

// Template is a resolved template handed to an engine: logical identity plus
// the decoded (UTF-8) source bytes.
type Template struct {
	// Logical is the format-independent name the template was looked up by.
	Logical string
	// Format is the negotiated output format (html, json, ...).
	Format string
	// Path is the resolved location inside the template filesystem. Engines
	// may key compile caches on it; the filesystem is immutable once
	// rendering begins.
	Path string
	// Source holds the template body, already decoded to UTF-8.
	Source []byte
}

// PartialFunc renders a nested template by logical name, layering extra
// locals on top of the caller's context. Engines expose it inside templates
// as the partial helper.
type PartialFunc func(name string, extra map[string]any) (string, error)

// Context carries the per-render state an engine needs: the merged locals and
// the partial callback wired back into the renderer.
type Context struct {
	Locals  *locals.Locals
	Partial PartialFunc
}

// Engine turns a template plus a render context into a string. Engines are
// registered by file extension; adding a template language is a registry
// entry, nothing else changes.
type Engine interface {
	Name() string
	Extensions() []string
	Render(ctx context.Context, tpl Template, rc Context) (string, error)
}

// ExecError reports a failure inside an engine while executing a template.
// Distinct from EncodingError so callers can tell a broken template from a
// mis-encoded one.
type ExecError struct {
	Engine   string
	Template string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("engine: %s: execute template %q: %v", e.Engine, e.Template, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// EncodingError reports template bytes that could not be decoded with the
// configured encoding, or an engine receiving non-UTF-8 source.
type EncodingError struct {
	Encoding string
	Template string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine: decode template %q as %s: %v", e.Template, e.Encoding, e.Err)
	}
	return fmt.Sprintf("engine: template %q is not valid %s", e.Template, e.Encoding)
}

func (e *EncodingError) Unwrap() error { return e.Err }
