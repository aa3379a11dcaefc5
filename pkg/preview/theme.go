package preview

import (
	"fmt"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// ThemeResolver holds registered theme manifests and answers theme/variant
// queries. It satisfies go-theme's selector contract so callers can swap in a
// different selector.
type ThemeResolver struct {
	mu        sync.RWMutex
	manifests map[string]*theme.Manifest
	fallback  string
}

var _ theme.ThemeSelector = (*ThemeResolver)(nil)

// NewThemeResolver returns a resolver preloaded with the built-in studio
// theme, which is also the fallback when a document names no theme.
func NewThemeResolver() *ThemeResolver {
	r := &ThemeResolver{manifests: map[string]*theme.Manifest{}, fallback: "studio"}
	if err := r.Register(studioManifest()); err != nil {
		panic(err)
	}
	return r
}

// Register adds a manifest. Re-registering a name replaces the manifest.
func (r *ThemeResolver) Register(m *theme.Manifest) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("preview: theme manifest needs a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[m.Name] = m
	return nil
}

// Select resolves a theme and variant. An empty name selects the fallback
// theme; an unknown variant degrades to the theme's base styling.
func (r *ThemeResolver) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = r.fallback
	}
	r.mu.RLock()
	manifest, ok := r.manifests[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("preview: unknown theme %q", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			variant = ""
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfig flattens a selection into the config renderers consume:
// base tokens and templates merged with the variant's overrides, CSS custom
// properties derived from tokens, and an asset URL resolver.
func RendererConfig(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	manifest := sel.Manifest

	tokens := map[string]string{}
	partials := map[string]string{}
	files := map[string]string{}
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	for key, value := range manifest.Templates {
		partials[key] = value
	}
	for key, value := range manifest.Assets.Files {
		files[key] = value
	}
	if variant, ok := manifest.Variants[sel.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		for key, value := range variant.Templates {
			partials[key] = value
		}
		for key, value := range variant.Assets.Files {
			files[key] = value
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	prefix := manifest.Assets.Prefix
	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok {
				return ""
			}
			if prefix == "" {
				return file
			}
			return prefix + "/" + file
		},
	}
}

func studioManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "studio",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-bg":     "#ffffff",
			"color-fg":     "#1f2430",
			"color-accent": "#4c6ef5",
			"color-danger": "#e03131",
			"radius":       "6px",
			"spacing":      "1rem",
			"font-family":  "system-ui, sans-serif",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color-bg": "#14161c",
					"color-fg": "#e6e8ef",
				},
			},
		},
	}
}
