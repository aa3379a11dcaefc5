// Package preview renders a form schema for inspection while it is being
// edited: an HTML rendition with live values, inline validation messages and
// conditional visibility applied, themed through go-theme.
package preview

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

// Options carries per-render state: current values keyed by field name,
// extra server-side errors, and the resolved theme configuration.
type Options struct {
	Values map[string]any
	Errors map[string][]string
	Theme  *theme.RendererConfig
}

// Renderer converts a schema document into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, doc *schema.FormSchema, options Options) ([]byte, error)
}
