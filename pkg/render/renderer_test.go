package render

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-views/pkg/locals"
	"github.com/goliatone/go-views/pkg/testsupport"
	"github.com/goliatone/go-views/pkg/view"
)

func songDefinition() *view.Definition {
	return view.New("song",
		view.WithParams(
			locals.Required("title"),
			locals.Optional("subtitle"),
		),
	)
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(testsupport.Config(t, testsupport.SongTree()))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestRender_FormatSpecificTemplates(t *testing.T) {
	r := newRenderer(t)
	def := songDefinition()
	ctx := context.Background()

	html, err := r.Render(ctx, def, Request{Format: "html", Locals: map[string]any{"title": "Grown Ups"}})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if html != "<h1>Grown Ups</h1>" {
		t.Fatalf("unexpected html output %q", html)
	}

	jsonOut, err := r.Render(ctx, def, Request{Format: "json", Locals: map[string]any{"title": "Grown Ups"}})
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if jsonOut != `{"title":"Grown Ups"}` {
		t.Fatalf("unexpected json output %q", jsonOut)
	}

	// no cross-contamination between formats
	if strings.Contains(html, `"title"`) {
		t.Fatalf("html output carries json markers: %q", html)
	}
	if strings.Contains(jsonOut, "<h1>") {
		t.Fatalf("json output carries html markers: %q", jsonOut)
	}
}

func TestRender_SubclassTemplateWins(t *testing.T) {
	r := newRenderer(t)
	hit := view.New("hit",
		view.Extend(songDefinition()),
	)
	ctx := context.Background()

	html, err := r.Render(ctx, hit, Request{Format: "html", Locals: map[string]any{"title": "Grown Ups"}})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if html != "<h1>HIT: Grown Ups</h1>" {
		t.Fatalf("expected subclass template to win, got %q", html)
	}

	// json only exists at the ancestor level
	jsonOut, err := r.Render(ctx, hit, Request{Format: "json", Locals: map[string]any{"title": "Grown Ups"}})
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if jsonOut != `{"title":"Grown Ups"}` {
		t.Fatalf("expected ancestor fallback, got %q", jsonOut)
	}
}

func TestRender_MissingFormat(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Render(context.Background(), songDefinition(), Request{Locals: map[string]any{"title": "x"}})
	if err == nil {
		t.Fatalf("expected missing format error")
	}
	var missing *MissingFormatError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingFormatError, got %T", err)
	}
	if missing.View != "song" {
		t.Fatalf("expected view name carried, got %q", missing.View)
	}
}

func TestRender_UnconfiguredFormatIsMissingTemplate(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Render(context.Background(), songDefinition(), Request{
		Format: "xml",
		Locals: map[string]any{"title": "x"},
	})
	if err == nil {
		t.Fatalf("expected missing template error")
	}
	var missing *MissingTemplateError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingTemplateError, got %T", err)
	}
	if missing.Format != "xml" {
		t.Fatalf("expected format carried, got %q", missing.Format)
	}
	if !strings.Contains(err.Error(), `"xml"`) {
		t.Fatalf("expected message to name the format, got %q", err.Error())
	}
}

func TestRender_RequiredLocalFailsBeforeTemplateRuns(t *testing.T) {
	r := newRenderer(t)

	// The declared format does not even have a template; the local check must
	// fire first.
	def := view.New("ghost", view.WithParams(locals.Required("title")))
	_, err := r.Render(context.Background(), def, Request{Format: "html"})
	if err == nil {
		t.Fatalf("expected missing local error")
	}
	var missing *MissingLocalError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingLocalError, got %T", err)
	}
	if missing.Name != "title" || missing.View != "ghost" {
		t.Fatalf("expected name and view carried, got %+v", missing)
	}
}

func TestRender_OptionalLocalOmitted(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), songDefinition(), Request{
		Format: "html",
		Locals: map[string]any{"title": "Grown Ups"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<h2>") {
		t.Fatalf("expected subtitle block skipped, got %q", out)
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := newRenderer(t)
	def := songDefinition()
	req := Request{Format: "html", Locals: map[string]any{"title": "Grown Ups", "subtitle": "b-side"}}
	ctx := context.Background()

	first, err := r.Render(ctx, def, req)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := r.Render(ctx, def, req)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first != second {
		t.Fatalf("expected byte-identical output:\n%q\n%q", first, second)
	}
}

func TestRender_ConcurrentCallsShareCaches(t *testing.T) {
	r := newRenderer(t)
	def := songDefinition()
	ctx := context.Background()

	var wg sync.WaitGroup
	outputs := make([]string, 8)
	errs := make([]error, 8)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outputs[i], errs[i] = r.Render(ctx, def, Request{
				Format: "html",
				Locals: map[string]any{"title": "Grown Ups"},
			})
		}(i)
	}
	wg.Wait()

	for i := range outputs {
		if errs[i] != nil {
			t.Fatalf("render %d: %v", i, errs[i])
		}
		if outputs[i] != outputs[0] {
			t.Fatalf("render %d diverged: %q vs %q", i, outputs[i], outputs[0])
		}
	}
}

func TestRender_CustomRenderFuncBypassesLookup(t *testing.T) {
	r := newRenderer(t)
	def := view.New("custom",
		view.WithParams(locals.Required("title")),
		view.WithRenderFunc(func(_ context.Context, l *locals.Locals) (string, error) {
			return "custom: " + l.Get("title").(string), nil
		}),
	)

	out, err := r.Render(context.Background(), def, Request{
		Format: "html",
		Locals: map[string]any{"title": "x"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "custom: x" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRender_ExplicitTemplatePath(t *testing.T) {
	r := newRenderer(t)
	def := view.New("song", view.WithTemplatePath("details"))

	out, err := r.Render(context.Background(), def, Request{
		Format: "html",
		Locals: map[string]any{"title": "Grown Ups"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<p>Grown Ups details</p>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRender_ContextRequired(t *testing.T) {
	r := newRenderer(t)

	//nolint:staticcheck // exercising the nil-context guard on purpose
	if _, err := r.Render(nil, songDefinition(), Request{Format: "html"}); err == nil {
		t.Fatalf("expected error for nil context")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, songDefinition(), Request{Format: "html"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error without config")
	}
}
