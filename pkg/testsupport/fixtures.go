// Package testsupport provides shared template-tree fixtures for package
// tests. Trees are fstest.MapFS values, so tests exercise the real io/fs
// resolution path without touching disk.
package testsupport

import (
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-views/pkg/config"
)

// SongTree builds the canonical fixture: a "song" view with html and json
// templates, a "hit" view extending it, a shared partials directory, and
// layouts in both engines' syntaxes.
func SongTree() fstest.MapFS {
	return fstest.MapFS{
		"song/show.html.tmpl": File(`<h1>{{.title}}</h1>{{if has "subtitle"}}<h2>{{.subtitle}}</h2>{{end}}`),
		"song/show.json.tmpl": File(`{"title":{{printf "%q" .title}}}`),
		"song/details.html.tmpl": File(`<p>{{.title}} details</p>`),
		"hit/show.html.tmpl": File(`<h1>HIT: {{.title}}</h1>`),
		"song/header.html.tmpl": File(`<header>{{.title}}</header>`),
		"shared/footer.html.tmpl": File(`<footer>fin</footer>`),
		"layouts/application.html.tmpl": File(`<body>{{.content}}</body>`),
		"layouts/plain.html.tmpl": File(`[{{.content}}]`),
	}
}

// Config wraps a tree in a validated configuration with the shared root
// registered. Fails the test on configuration errors.
func Config(t *testing.T, fsys fstest.MapFS, extra ...config.Option) *config.Config {
	t.Helper()

	options := append([]config.Option{
		config.WithFS(fsys),
		config.WithSharedRoots("shared"),
	}, extra...)

	cfg, err := config.New(options...)
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	return cfg
}

// File wraps a template body as a MapFile entry.
func File(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}
