// Package template defines the template-engine seam the HTML preview renders
// through, plus a pongo2-backed implementation.
package template

import "io"

// TemplateRenderer is the engine contract the preview renders against.
// Render picks between a named template and inline content, RenderTemplate
// always resolves by name, RenderString always treats its input as content.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
