package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/goliatone/go-views/pkg/config"
	"github.com/goliatone/go-views/pkg/locals"
	"github.com/goliatone/go-views/pkg/render"
	"github.com/goliatone/go-views/pkg/view"
)

type localFlags map[string]string

func (l localFlags) String() string { return "" }

func (l localFlags) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", raw)
	}
	l[key] = value
	return nil
}

func main() {
	viewName := flag.String("view", "", "view to render (required)")
	format := flag.String("format", "", "output format (defaults to the configured format)")
	templates := flag.String("templates", "views", "template directory")
	configFile := flag.String("config", "", "YAML configuration file")
	viewsFile := flag.String("views", "", "YAML view declarations file")
	layout := flag.String("layout", "", "layout override")
	noLayout := flag.Bool("no-layout", false, "render the bare body")
	output := flag.String("output", "", "output file (stdout if empty)")
	prompt := flag.Bool("prompt", true, "prompt for missing required locals")
	supplied := localFlags{}
	flag.Var(supplied, "local", "local as key=value (repeatable)")
	flag.Parse()

	if *viewName == "" {
		log.Fatalf("-view is required")
	}

	ctx := context.Background()

	cfg, err := loadConfig(*configFile, *templates)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	def, err := resolveDefinition(*viewsFile, *viewName)
	if err != nil {
		log.Fatalf("Failed to resolve view: %v", err)
	}

	renderer, err := render.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build renderer: %v", err)
	}

	req := render.Request{
		Format:        *format,
		Locals:        map[string]any{},
		Layout:        *layout,
		DisableLayout: *noLayout,
	}
	if req.Format == "" {
		req.Format = cfg.DefaultFormat()
	}
	for key, value := range supplied {
		req.Locals[key] = value
	}

	out, err := renderWithPrompts(ctx, renderer, def, req, *prompt)
	if err != nil {
		log.Fatalf("Failed to render view: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(out), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Rendered view written to %s\n", *output)
	} else {
		fmt.Println(out)
	}
}

// renderWithPrompts retries renders that fail on a missing required local,
// asking for the value interactively until the render succeeds or prompting
// is disabled.
func renderWithPrompts(ctx context.Context, renderer *render.Renderer, def *view.Definition, req render.Request, prompt bool) (string, error) {
	for {
		out, err := renderer.Render(ctx, def, req)
		if err == nil {
			return out, nil
		}

		var missing *locals.MissingLocalError
		if !prompt || !errors.As(err, &missing) {
			return "", err
		}

		var value string
		question := &survey.Input{
			Message: fmt.Sprintf("Value for required local %q:", missing.Name),
		}
		if err := survey.AskOne(question, &value); err != nil {
			return "", fmt.Errorf("prompt for %q: %w", missing.Name, err)
		}
		req.Locals[missing.Name] = value
	}
}

func loadConfig(configFile, templates string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.New(config.WithDir(templates))
}

// resolveDefinition prefers a declaration from the views file; otherwise a
// conventional definition named after the view is used, searching the view's
// own directory.
func resolveDefinition(viewsFile, name string) (*view.Definition, error) {
	if viewsFile != "" {
		data, err := os.ReadFile(viewsFile)
		if err != nil {
			return nil, fmt.Errorf("read views file: %w", err)
		}
		defs, err := view.Parse(data)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			if def.Name() == name {
				return def, nil
			}
		}
		return nil, fmt.Errorf("view %q not declared in %s", name, viewsFile)
	}
	return view.New(name), nil
}
