package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type fileDoc struct {
	Templates struct {
		Dir string `yaml:"dir"`
	} `yaml:"templates"`
	Shared  []string `yaml:"shared"`
	Layouts struct {
		Dir     string `yaml:"dir"`
		Default string `yaml:"default"`
	} `yaml:"layouts"`
	Format       string `yaml:"format"`
	Encoding     string `yaml:"encoding"`
	PartialDepth int    `yaml:"partial_depth"`
}

// LoadFile reads a YAML configuration file from disk. The template dir in the
// file resolves relative to the file's own directory.
func LoadFile(path string, extra ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	doc, options, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if doc.Templates.Dir != "" {
		dir := doc.Templates.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		options = append(options, WithDir(dir))
	}

	options = append(options, extra...)
	return New(options...)
}

// LoadFS reads a YAML configuration file from fsys and serves templates from
// the same filesystem, honouring an optional templates dir as a sub-tree.
func LoadFS(fsys fs.FS, name string, extra ...Option) (*Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", name, err)
	}
	doc, options, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", name, err)
	}

	templateFS := fsys
	if doc.Templates.Dir != "" {
		sub, err := fs.Sub(fsys, doc.Templates.Dir)
		if err != nil {
			return nil, fmt.Errorf("config: template dir %q: %w", doc.Templates.Dir, err)
		}
		templateFS = sub
	}
	options = append(options, WithFS(templateFS))

	options = append(options, extra...)
	return New(options...)
}

func parse(data []byte) (fileDoc, []Option, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fileDoc{}, nil, err
	}

	var options []Option
	if len(doc.Shared) > 0 {
		options = append(options, WithSharedRoots(doc.Shared...))
	}
	if doc.Layouts.Dir != "" {
		options = append(options, WithLayoutDir(doc.Layouts.Dir))
	}
	if doc.Layouts.Default != "" {
		options = append(options, WithDefaultLayout(doc.Layouts.Default))
	}
	if doc.Format != "" {
		options = append(options, WithDefaultFormat(doc.Format))
	}
	if doc.Encoding != "" {
		options = append(options, WithDefaultEncoding(doc.Encoding))
	}
	if doc.PartialDepth > 0 {
		options = append(options, WithMaxPartialDepth(doc.PartialDepth))
	}
	return doc, options, nil
}
