package view

import (
	"strings"
	"testing"
	"testing/fstest"
)

const declarations = `
views:
  - name: song
    templates:
      html: show
      json: show
    layout: application
    locals:
      required: [title]
      optional: [subtitle]
  - name: hit
    extends: song
    templates:
      html: featured
`

func TestParse_Declarations(t *testing.T) {
	defs, err := Parse([]byte(declarations))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}

	song, hit := defs[0], defs[1]
	if song.Name() != "song" || hit.Name() != "hit" {
		t.Fatalf("unexpected names %q, %q", song.Name(), hit.Name())
	}
	if hit.Parent() != song {
		t.Fatalf("expected hit to extend song")
	}
	if logical, ok := hit.TemplateFor("html"); !ok || logical != "featured" {
		t.Fatalf("expected child html mapping, got %q ok=%v", logical, ok)
	}
	if logical, ok := hit.TemplateFor("json"); !ok || logical != "show" {
		t.Fatalf("expected inherited json mapping, got %q ok=%v", logical, ok)
	}
	if name, ok := hit.Layout(); !ok || name != "application" {
		t.Fatalf("expected inherited layout, got %q ok=%v", name, ok)
	}

	params := song.Params()
	if len(params) != 2 || !params[0].Required || params[1].Required {
		t.Fatalf("unexpected params %+v", params)
	}
}

func TestParse_UnknownExtends(t *testing.T) {
	_, err := Parse([]byte("views:\n  - name: hit\n    extends: nope\n"))
	if err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Fatalf("expected unknown extends error, got %v", err)
	}
}

func TestParse_DuplicateName(t *testing.T) {
	_, err := Parse([]byte("views:\n  - name: song\n  - name: song\n"))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"views.yaml": &fstest.MapFile{Data: []byte(declarations)},
	}

	defs, err := LoadFS(fsys, "views.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
}
