package preview

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/formstudio-io/go-formstudio/pkg/fieldtypes"
	"github.com/formstudio-io/go-formstudio/pkg/preview/template"
	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

//go:embed templates
var templatesFS embed.FS

// HTML renders a schema document as a standalone HTML preview.
type HTML struct {
	engine   template.TemplateRenderer
	registry *fieldtypes.Registry
	themes   *ThemeResolver
	tplName  string
}

// HTMLOption configures the HTML renderer.
type HTMLOption func(*HTML)

// WithEngine overrides the template engine.
func WithEngine(engine template.TemplateRenderer) HTMLOption {
	return func(h *HTML) {
		if engine != nil {
			h.engine = engine
		}
	}
}

// WithRegistry overrides the field-type registry used for widget dispatch.
func WithRegistry(r *fieldtypes.Registry) HTMLOption {
	return func(h *HTML) {
		if r != nil {
			h.registry = r
		}
	}
}

// WithThemes overrides the theme resolver consulted when render options carry
// no resolved theme.
func WithThemes(themes *ThemeResolver) HTMLOption {
	return func(h *HTML) {
		if themes != nil {
			h.themes = themes
		}
	}
}

// NewHTML constructs the HTML renderer with embedded templates, the shared
// field-type registry and the built-in theme set.
func NewHTML(opts ...HTMLOption) (*HTML, error) {
	h := &HTML{
		registry: fieldtypes.Default(),
		themes:   NewThemeResolver(),
		tplName:  "templates/form",
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.engine == nil {
		engine, err := template.New(template.WithFS(templatesFS))
		if err != nil {
			return nil, fmt.Errorf("preview: build template engine: %w", err)
		}
		h.engine = engine
	}
	return h, nil
}

// Name implements Renderer.
func (h *HTML) Name() string { return "html" }

// ContentType implements Renderer.
func (h *HTML) ContentType() string { return "text/html; charset=utf-8" }

// Render builds the view model and executes the form template. Fields whose
// visibility rules evaluate false are left out of the output entirely.
func (h *HTML) Render(ctx context.Context, doc *schema.FormSchema, options Options) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("preview: nil schema")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("preview: render canceled: %w", err)
	}

	themeCfg := options.Theme
	if themeCfg == nil {
		selection, err := h.themes.Select(doc.Styling.Theme, doc.Styling.Variant)
		if err != nil {
			return nil, err
		}
		themeCfg = RendererConfig(selection)
	}
	cssVars := map[string]string{}
	if themeCfg != nil {
		for key, value := range themeCfg.CSSVars {
			cssVars[key] = value
		}
	}
	for key, value := range doc.Styling.Tokens {
		cssVars["--"+key] = value
	}

	view, err := h.buildView(doc, options, cssVars)
	if err != nil {
		return nil, err
	}

	rendered, err := h.engine.RenderTemplate(h.tplName, view)
	if err != nil {
		return nil, fmt.Errorf("preview: render form: %w", err)
	}
	return []byte(rendered), nil
}

type optionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type matrixView struct {
	Rows    []schema.FormOption `json:"rows"`
	Columns []schema.FormOption `json:"columns"`
}

type fieldView struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Label       string       `json:"label"`
	Name        string       `json:"name"`
	Required    bool         `json:"required"`
	Placeholder string       `json:"placeholder"`
	Description string       `json:"description"`
	Widget      string       `json:"widget"`
	InputMode   string       `json:"inputmode"`
	Multiple    bool         `json:"multiple"`
	Value       string       `json:"value"`
	Options     []optionView `json:"options"`
	Matrix      *matrixView  `json:"matrix"`
	MaxStars    int          `json:"maxstars"`
	Errors      []string     `json:"errors"`
}

func (h *HTML) buildView(doc *schema.FormSchema, options Options, cssVars map[string]string) (map[string]any, error) {
	fields := make([]fieldView, 0, len(doc.Fields))
	for _, field := range doc.Fields {
		visible, err := field.Visibility.Visible(options.Values)
		if err != nil {
			return nil, fmt.Errorf("preview: field %s visibility: %w", field.ID, err)
		}
		if !visible {
			continue
		}

		def := h.registry.Lookup(field.Type)
		value := options.Values[field.Name]

		msgs := schema.Check(field, value)
		msgs = append(msgs, options.Errors[field.Name]...)

		fv := fieldView{
			ID:          field.ID,
			Type:        string(field.Type),
			Label:       field.Label,
			Name:        field.Name,
			Required:    field.Required,
			Placeholder: field.Placeholder,
			Description: field.Description,
			Widget:      def.Widget,
			InputMode:   def.InputMode,
			Multiple:    field.Type.Multi(),
			Value:       displayValue(value),
			Errors:      msgs,
		}
		for _, opt := range field.Options {
			fv.Options = append(fv.Options, optionView{
				Label:    opt.Label,
				Value:    opt.Value,
				Selected: optionSelected(value, opt.Value),
			})
		}
		if field.Matrix != nil {
			fv.Matrix = &matrixView{Rows: field.Matrix.Rows, Columns: field.Matrix.Columns}
		}
		if field.Validation != nil && field.Validation.Rating != nil {
			fv.MaxStars = field.Validation.Rating.MaxStars
		}
		if fv.Widget == "rating" && fv.MaxStars == 0 {
			fv.MaxStars = 5
		}
		fields = append(fields, fv)
	}

	submitLabel := doc.Settings.SubmitLabel
	if submitLabel == "" {
		submitLabel = "Submit"
	}

	view := map[string]any{
		"title":        doc.Title,
		"description":  doc.Description,
		"submitlabel":  submitLabel,
		"stylevars":    cssVarsStyle(cssVars),
		"fields":       fields,
		"showprogress": doc.Settings.ShowProgressBar,
	}
	return view, nil
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func optionSelected(value any, optValue string) bool {
	switch v := value.(type) {
	case string:
		return v == optValue
	case []string:
		for _, item := range v {
			if item == optValue {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if fmt.Sprint(item) == optValue {
				return true
			}
		}
	}
	return false
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(vars[key])
		sb.WriteString("; ")
	}
	return strings.TrimSpace(sb.String())
}
