package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-views/pkg/config"
	"github.com/goliatone/go-views/pkg/testsupport"
	"github.com/goliatone/go-views/pkg/view"
)

func TestPartial_ResolvesInViewDirectory(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/with_header.html.tmpl"] = testsupport.File(`{{partial "header"}}<p>body</p>`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "with_header"))
	out, err := r.Render(context.Background(), def, Request{
		Format: "html",
		Locals: map[string]any{"title": "Grown Ups"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<header>Grown Ups</header><p>body</p>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPartial_ResolvesInSharedDirectory(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/with_footer.html.tmpl"] = testsupport.File(`body {{partial "footer"}}`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "with_footer"))
	out, err := r.Render(context.Background(), def, Request{Format: "html"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "body <footer>fin</footer>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPartial_ViewDirectoryBeatsShared(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/footer.html.tmpl"] = testsupport.File(`<footer>song-local</footer>`)
	tree["song/with_footer.html.tmpl"] = testsupport.File(`{{partial "footer"}}`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "with_footer"))
	out, err := r.Render(context.Background(), def, Request{Format: "html"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<footer>song-local</footer>" {
		t.Fatalf("expected view-local partial to win, got %q", out)
	}
}

func TestPartial_MissingNamesThePartialNotTheParent(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/with_missing.html.tmpl"] = testsupport.File(`{{partial "sidebar"}}`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "with_missing"))
	_, err = r.Render(context.Background(), def, Request{Format: "html"})
	if err == nil {
		t.Fatalf("expected missing partial error")
	}

	var missing *MissingTemplateError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingTemplateError, got %T", err)
	}
	if missing.Logical != "sidebar" || missing.Format != "html" {
		t.Fatalf("expected partial identity, got %+v", missing)
	}
	if strings.Contains(err.Error(), "with_missing") {
		t.Fatalf("message should name the partial, not the parent: %q", err.Error())
	}
}

func TestPartial_ExtraLocalsLayerOverParent(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/row.html.tmpl"] = testsupport.File(`{{.title}}#{{.n}};`)
	tree["song/list.html.tmpl"] = testsupport.File(`{{partial "row" "n" "1"}}{{partial "row" "n" "2"}}`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "list"))
	out, err := r.Render(context.Background(), def, Request{
		Format: "html",
		Locals: map[string]any{"title": "x"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "x#1;x#2;" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPartial_NestedPartials(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/outer.html.tmpl"] = testsupport.File(`o({{partial "inner"}})`)
	tree["song/inner.html.tmpl"] = testsupport.File(`i({{partial "footer"}})`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "outer"))
	out, err := r.Render(context.Background(), def, Request{Format: "html"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "o(i(<footer>fin</footer>))" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPartial_SelfReferenceHitsDepthGuard(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/loop.html.tmpl"] = testsupport.File(`{{partial "loop"}}`)

	cfg := testsupport.Config(t, tree, config.WithMaxPartialDepth(3))
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "loop"))
	_, err = r.Render(context.Background(), def, Request{Format: "html"})
	if err == nil {
		t.Fatalf("expected depth guard error")
	}

	var depth *PartialDepthError
	if !errors.As(err, &depth) {
		t.Fatalf("expected *PartialDepthError, got %T", err)
	}
	if depth.Logical != "loop" || depth.Depth != 3 {
		t.Fatalf("unexpected depth error %+v", depth)
	}
}

func TestPartial_CrossEngine(t *testing.T) {
	tree := testsupport.SongTree()
	tree["song/mixed.html.tpl"] = testsupport.File(`{{ partial("header") }}`)

	r, err := New(testsupport.Config(t, tree))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	def := view.New("song", view.WithTemplate("html", "mixed"))
	out, err := r.Render(context.Background(), def, Request{
		Format: "html",
		Locals: map[string]any{"title": "x"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<header>x</header>" {
		t.Fatalf("expected gotpl partial inside pongo template, got %q", out)
	}
}
