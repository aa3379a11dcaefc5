// Package tui fills a form schema from the terminal: one prompt per visible
// field, validation messages replayed inline, answers serialized as JSON.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/formstudio-io/go-formstudio/pkg/preview"
	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

const maxAttempts = 3

// Renderer implements preview.Renderer for terminal sessions.
type Renderer struct {
	driver PromptDriver
}

var _ preview.Renderer = (*Renderer)(nil)

// Option configures the renderer.
type Option func(*Renderer)

// WithDriver swaps the prompt driver, typically for tests.
func WithDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// New constructs a TUI renderer backed by survey prompts.
func New(options ...Option) *Renderer {
	r := &Renderer{driver: newSurveyDriver()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Name implements preview.Renderer.
func (r *Renderer) Name() string { return "tui" }

// ContentType implements preview.Renderer.
func (r *Renderer) ContentType() string { return "application/json" }

// Render walks the schema's fields in order, prompting for each one that is
// visible given the answers so far. Earlier answers can reveal or hide later
// fields because visibility re-evaluates before every prompt.
func (r *Renderer) Render(ctx context.Context, doc *schema.FormSchema, options preview.Options) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("tui: nil schema")
	}

	values := map[string]any{}
	for key, value := range options.Values {
		values[key] = value
	}

	if doc.Title != "" {
		if err := r.driver.Info(ctx, doc.Title); err != nil {
			return nil, err
		}
	}

	for _, field := range doc.Fields {
		visible, err := field.Visibility.Visible(values)
		if err != nil {
			return nil, fmt.Errorf("tui: field %s visibility: %w", field.ID, err)
		}
		if !visible {
			continue
		}

		value, err := r.ask(ctx, field, values[field.Name])
		if err != nil {
			return nil, err
		}
		values[field.Name] = value
	}

	payload, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tui: encode submission: %w", err)
	}
	return payload, nil
}

// ask prompts for a single field, retrying on validation failure up to
// maxAttempts before surfacing the messages as an error.
func (r *Renderer) ask(ctx context.Context, field schema.FormField, current any) (any, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		value, err := r.prompt(ctx, field, current)
		if err != nil {
			return nil, err
		}

		msgs := schema.Check(field, value)
		if len(msgs) == 0 {
			return value, nil
		}
		for _, msg := range msgs {
			if err := r.driver.Info(ctx, "! "+msg); err != nil {
				return nil, err
			}
		}
		current = value
	}
	return nil, fmt.Errorf("tui: field %q failed validation after %d attempts", field.Name, maxAttempts)
}

func (r *Renderer) prompt(ctx context.Context, field schema.FormField, current any) (any, error) {
	message := field.Label
	if message == "" {
		message = field.Name
	}
	if field.Required {
		message += " *"
	}

	switch field.Type {
	case schema.FieldTextarea:
		return r.driver.TextArea(ctx, TextAreaConfig{
			Message: message,
			Default: stringOr(current),
			Help:    field.Description,
		})

	case schema.FieldSelect, schema.FieldRadio:
		labels, byLabel := optionPrompt(field.Options)
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: selectedIndex(field.Options, current),
			Help:         field.Description,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(labels) {
			return nil, nil
		}
		return byLabel[labels[idx]], nil

	case schema.FieldMultiSelect, schema.FieldCheckbox:
		labels, byLabel := optionPrompt(field.Options)
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message: message,
			Options: labels,
			Help:    field.Description,
		})
		if err != nil {
			return nil, err
		}
		var picked []string
		for _, idx := range indices {
			if idx >= 0 && idx < len(labels) {
				picked = append(picked, byLabel[labels[idx]])
			}
		}
		return picked, nil

	case schema.FieldMatrix:
		return r.promptMatrix(ctx, field)

	default:
		return r.driver.Input(ctx, InputConfig{
			Message:     message,
			Default:     stringOr(current),
			Help:        field.Description,
			Placeholder: field.Placeholder,
		})
	}
}

func (r *Renderer) promptMatrix(ctx context.Context, field schema.FormField) (any, error) {
	if field.Matrix == nil {
		return nil, nil
	}
	labels := make([]string, 0, len(field.Matrix.Columns))
	byLabel := map[string]string{}
	for _, col := range field.Matrix.Columns {
		labels = append(labels, col.Label)
		byLabel[col.Label] = col.Value
	}

	answers := map[string]any{}
	for _, row := range field.Matrix.Rows {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("%s / %s", field.Label, row.Label),
			Options: labels,
		})
		if err != nil {
			return nil, err
		}
		if idx >= 0 && idx < len(labels) {
			answers[row.Value] = byLabel[labels[idx]]
		}
	}
	return answers, nil
}

func optionPrompt(options []schema.FormOption) ([]string, map[string]string) {
	labels := make([]string, 0, len(options))
	byLabel := make(map[string]string, len(options))
	for _, opt := range options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		byLabel[label] = opt.Value
	}
	return labels, byLabel
}

func selectedIndex(options []schema.FormOption, current any) int {
	want := stringOr(current)
	if want == "" {
		return -1
	}
	for i, opt := range options {
		if opt.Value == want {
			return i
		}
	}
	return -1
}

func stringOr(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
