// Package config holds the process-wide rendering configuration: template
// filesystem, search roots, layout selection, default encoding. A Config is
// built once, validated eagerly, and read-only afterwards; every render call
// receives it by reference, so the single-writer-then-many-readers discipline
// holds without locking.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	defaultLayoutDir    = "layouts"
	defaultFormat       = "html"
	defaultEncoding     = "utf-8"
	defaultPartialDepth = 32
)

// UnknownEncodingError reports an encoding name the platform does not know.
// The message carries the name verbatim.
type UnknownEncodingError struct {
	Name string
}

func (e *UnknownEncodingError) Error() string {
	return fmt.Sprintf("config: unknown encoding %q", e.Name)
}

// Config is the immutable process-wide rendering configuration.
type Config struct {
	fsys          fs.FS
	sharedRoots   []string
	layoutDir     string
	defaultLayout string
	defaultFormat string
	encodingName  string
	enc           encoding.Encoding
	partialDepth  int
}

// Option customises a Config before validation.
type Option func(*Config)

// WithFS supplies the template filesystem.
func WithFS(fsys fs.FS) Option {
	return func(c *Config) {
		c.fsys = fsys
	}
}

// WithDir loads templates from a directory on disk.
func WithDir(path string) Option {
	return func(c *Config) {
		if path == "" {
			return
		}
		c.fsys = os.DirFS(path)
	}
}

// WithSharedRoots declares common directories searched after a view's own
// roots, for partials and layouts shared across views.
func WithSharedRoots(roots ...string) Option {
	return func(c *Config) {
		c.sharedRoots = append([]string(nil), roots...)
	}
}

// WithLayoutDir overrides the directory layouts resolve under. Default
// "layouts".
func WithLayoutDir(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.layoutDir = dir
		}
	}
}

// WithDefaultLayout names the layout applied when a view declares none.
func WithDefaultLayout(name string) Option {
	return func(c *Config) {
		c.defaultLayout = name
	}
}

// WithDefaultFormat sets the format callers fall back to when a request does
// not pin one. Default "html".
func WithDefaultFormat(format string) Option {
	return func(c *Config) {
		if format != "" {
			c.defaultFormat = format
		}
	}
}

// WithDefaultEncoding names the text encoding template files are stored in.
// Validated at construction; invalid names fail with *UnknownEncodingError.
func WithDefaultEncoding(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.encodingName = name
		}
	}
}

// WithMaxPartialDepth caps partial recursion. Default 32.
func WithMaxPartialDepth(depth int) Option {
	return func(c *Config) {
		if depth > 0 {
			c.partialDepth = depth
		}
	}
}

// New builds and validates a Config. A template filesystem is required.
func New(options ...Option) (*Config, error) {
	c := &Config{
		layoutDir:     defaultLayoutDir,
		defaultFormat: defaultFormat,
		encodingName:  defaultEncoding,
		partialDepth:  defaultPartialDepth,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if c.fsys == nil {
		return nil, errors.New("config: need to provide either a template dir or fs.FS")
	}

	enc, err := htmlindex.Get(c.encodingName)
	if err != nil {
		return nil, &UnknownEncodingError{Name: c.encodingName}
	}
	c.enc = enc

	return c, nil
}

// FS returns the template filesystem.
func (c *Config) FS() fs.FS { return c.fsys }

// SharedRoots returns the common search directories.
func (c *Config) SharedRoots() []string {
	out := make([]string, len(c.sharedRoots))
	copy(out, c.sharedRoots)
	return out
}

// LayoutDir returns the directory layouts resolve under.
func (c *Config) LayoutDir() string { return c.layoutDir }

// DefaultLayout returns the fallback layout name; empty means bare render.
func (c *Config) DefaultLayout() string { return c.defaultLayout }

// DefaultFormat returns the fallback format for callers that negotiate one.
func (c *Config) DefaultFormat() string { return c.defaultFormat }

// EncodingName returns the configured encoding name.
func (c *Config) EncodingName() string { return c.encodingName }

// Encoding returns the resolved text encoding.
func (c *Config) Encoding() encoding.Encoding { return c.enc }

// IsUTF8 reports whether the configured encoding is UTF-8, in which case
// template bytes pass through without transformation.
func (c *Config) IsUTF8() bool {
	name := strings.ToLower(strings.TrimSpace(c.encodingName))
	return name == "utf-8" || name == "utf8"
}

// MaxPartialDepth returns the partial recursion cap.
func (c *Config) MaxPartialDepth() int { return c.partialDepth }
