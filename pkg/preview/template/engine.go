package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globalData map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS, typically an embed.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default .tpl extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobalData seeds context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Engine renders pongo2 templates behind the TemplateRenderer contract.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string
	globals     pongo2.Context
}

var _ TemplateRenderer = (*Engine)(nil)

// New constructs an Engine from the provided options. At least one template
// source is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("template: need either a base dir or an fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("template: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("preview", loaders...),
		templates:   make(map[string]*pongo2.Template),
		tplExt:      cfg.extension,
		globals:     pongo2.Context{},
	}
	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, err
	}
	return engine, nil
}

// Render treats name as inline content when it looks like template markup,
// otherwise resolves it as a template path.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.ContainsAny(name, "{}\n") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate resolves name against the template sources, appending the
// configured extension when missing.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("template: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, e.tplExt) {
		path += e.tplExt
	}

	tmpl, err := e.getTemplate(path)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, path, data, out...)
}

// RenderString compiles and executes inline template content.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("template: engine is nil")
	}
	tmpl, err := e.templateSet.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("template: compile inline template: %w", err)
	}
	return e.execute(tmpl, "inline", data, out...)
}

// RegisterFilter exposes a custom pongo2 filter to every template.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("template: filter name is empty")
	}
	if fn == nil {
		return fmt.Errorf("template: filter %q is nil", name)
	}
	wrapped := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		result, err := fn(in.Interface(), param.Interface())
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
	if err := pongo2.RegisterFilter(name, wrapped); err != nil {
		if replaceErr := pongo2.ReplaceFilter(name, wrapped); replaceErr != nil {
			return fmt.Errorf("template: register filter %q: %w", name, err)
		}
	}
	return nil
}

// GlobalContext merges values into the context shared by every render.
func (e *Engine) GlobalContext(data any) error {
	ctx, err := convertToContext(data)
	if err != nil {
		return fmt.Errorf("template: convert global data: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, value := range ctx {
		e.globals[key] = value
	}
	return nil
}

func (e *Engine) execute(tmpl *pongo2.Template, path string, data any, out ...io.Writer) (string, error) {
	ctx, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("template: convert data: %w", err)
	}

	e.mu.RLock()
	merged := pongo2.Context{}
	merged.Update(e.globals)
	merged.Update(ctx)
	e.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(merged, &buf); err != nil {
		return "", fmt.Errorf("template: execute %q: %w", path, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", fmt.Errorf("template: write output: %w", err)
		}
	}
	return rendered, nil
}

func (e *Engine) getTemplate(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("template: load %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

// convertToContext flattens arbitrary data into a pongo2 context. Every
// non-primitive value round-trips through JSON so templates resolve
// attributes by tag name against plain maps and slices, never Go structs.
func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		ctx := make(pongo2.Context, len(v))
		for key, value := range v {
			converted, err := convertValue(value)
			if err != nil {
				return nil, err
			}
			ctx[key] = converted
		}
		return ctx, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return pongo2.Context(out), nil
}

func convertValue(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool, int, int64, float64:
		return value, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
