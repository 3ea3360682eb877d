package view

import (
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-views/pkg/locals"
)

type fileDoc struct {
	Views []viewSpec `yaml:"views"`
}

type viewSpec struct {
	Name      string            `yaml:"name"`
	Extends   string            `yaml:"extends"`
	Templates map[string]string `yaml:"templates"`
	Template  string            `yaml:"template"`
	Roots     []string          `yaml:"roots"`
	Layout    *string           `yaml:"layout"`
	Locals    localsSpec        `yaml:"locals"`
}

type localsSpec struct {
	Required []string `yaml:"required"`
	Optional []string `yaml:"optional"`
}

// LoadFS parses a YAML view declaration file and returns the definitions in
// declaration order. Extends references resolve within the same file and must
// point at an earlier declaration.
func LoadFS(fsys fs.FS, name string) ([]*Definition, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("view: read %s: %w", name, err)
	}
	return Parse(data)
}

// Parse parses YAML view declarations from raw bytes.
func Parse(data []byte) ([]*Definition, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("view: parse declarations: %w", err)
	}

	byName := make(map[string]*Definition, len(doc.Views))
	out := make([]*Definition, 0, len(doc.Views))

	for _, spec := range doc.Views {
		if spec.Name == "" {
			return nil, fmt.Errorf("view: declaration without a name")
		}
		if _, dup := byName[spec.Name]; dup {
			return nil, fmt.Errorf("view: duplicate declaration %q", spec.Name)
		}

		options := []Option{WithTemplates(spec.Templates)}
		if spec.Template != "" {
			options = append(options, WithTemplatePath(spec.Template))
		}
		if len(spec.Roots) > 0 {
			options = append(options, WithRoots(spec.Roots...))
		}
		if spec.Layout != nil {
			options = append(options, WithLayout(*spec.Layout))
		}
		for _, name := range spec.Locals.Required {
			options = append(options, WithParams(locals.Required(name)))
		}
		for _, name := range spec.Locals.Optional {
			options = append(options, WithParams(locals.Optional(name)))
		}
		if spec.Extends != "" {
			parent, ok := byName[spec.Extends]
			if !ok {
				return nil, fmt.Errorf("view: %q extends unknown view %q", spec.Name, spec.Extends)
			}
			options = append(options, Extend(parent))
		}

		def := New(spec.Name, options...)
		byName[spec.Name] = def
		out = append(out, def)
	}

	return out, nil
}
