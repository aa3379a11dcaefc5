// Package fieldtypes is the single source of truth for what each field kind
// looks like in the builder: its palette label, preview widget, default
// validation shape and whether it carries options.
package fieldtypes

import (
	"sync"

	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

// Definition describes one field kind for the palette, the builder defaults
// and the preview dispatch.
type Definition struct {
	Type         schema.FieldType
	DefaultLabel string
	// Widget names the preview template used to render the kind.
	Widget string
	// InputMode hints browser keyboards (text, numeric, decimal, email, tel, url).
	InputMode    string
	NeedsOptions bool
	// DefaultOptions seeds choice kinds so a freshly added field renders.
	DefaultOptions []schema.FormOption
	// DefaultValidation returns a fresh validation value for new fields; nil
	// means the kind starts unconstrained.
	DefaultValidation func() *schema.Validation
}

// Registry maps field kinds to definitions. The zero value is unusable; use
// NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	defs  map[schema.FieldType]Definition
	order []schema.FieldType
}

// NewRegistry returns a registry preloaded with every built-in kind.
func NewRegistry() *Registry {
	r := &Registry{defs: map[schema.FieldType]Definition{}}
	for _, def := range builtins() {
		r.Register(def)
	}
	return r
}

// Register adds or replaces a definition. First registration of a type fixes
// its palette position.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.defs[def.Type] = def
}

// Lookup resolves a field kind. Unknown kinds resolve to the text definition
// so stale documents keep rendering as plain inputs.
func (r *Registry) Lookup(t schema.FieldType) Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.defs[t]; ok {
		return def
	}
	return r.defs[schema.FieldText]
}

// Known reports whether the kind has its own definition.
func (r *Registry) Known(t schema.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[t]
	return ok
}

// Palette lists definitions in registration order, the order the builder
// palette presents them.
func (r *Registry) Palette() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t])
	}
	return out
}

var defaultRegistry = NewRegistry()

// Default returns the shared registry.
func Default() *Registry { return defaultRegistry }

// Lookup resolves against the shared registry.
func Lookup(t schema.FieldType) Definition { return defaultRegistry.Lookup(t) }

// Palette lists the shared registry's definitions in palette order.
func Palette() []Definition { return defaultRegistry.Palette() }

func choiceSeed() []schema.FormOption {
	return []schema.FormOption{
		{Label: "Option 1", Value: "option_1"},
		{Label: "Option 2", Value: "option_2"},
	}
}

func builtins() []Definition {
	return []Definition{
		{Type: schema.FieldText, DefaultLabel: "Text Input", Widget: "input", InputMode: "text"},
		{Type: schema.FieldTextarea, DefaultLabel: "Long Answer", Widget: "textarea", InputMode: "text"},
		{Type: schema.FieldEmail, DefaultLabel: "Email Address", Widget: "input", InputMode: "email",
			DefaultValidation: func() *schema.Validation {
				return &schema.Validation{Kind: schema.ValidationText, Text: &schema.TextRules{
					Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`,
				}}
			}},
		{Type: schema.FieldNumber, DefaultLabel: "Number", Widget: "input", InputMode: "numeric",
			DefaultValidation: func() *schema.Validation {
				return &schema.Validation{Kind: schema.ValidationNumber, Number: &schema.NumberRules{}}
			}},
		{Type: schema.FieldSelect, DefaultLabel: "Dropdown", Widget: "select", NeedsOptions: true, DefaultOptions: choiceSeed()},
		{Type: schema.FieldMultiSelect, DefaultLabel: "Multi Select", Widget: "select", NeedsOptions: true, DefaultOptions: choiceSeed()},
		{Type: schema.FieldRadio, DefaultLabel: "Single Choice", Widget: "choices", NeedsOptions: true, DefaultOptions: choiceSeed()},
		{Type: schema.FieldCheckbox, DefaultLabel: "Checkboxes", Widget: "choices", NeedsOptions: true, DefaultOptions: choiceSeed()},
		{Type: schema.FieldDate, DefaultLabel: "Date", Widget: "input", InputMode: "text"},
		{Type: schema.FieldDateTime, DefaultLabel: "Date & Time", Widget: "input", InputMode: "text"},
		{Type: schema.FieldFile, DefaultLabel: "File Upload", Widget: "file"},
		{Type: schema.FieldURL, DefaultLabel: "Website", Widget: "input", InputMode: "url"},
		{Type: schema.FieldPhone, DefaultLabel: "Phone Number", Widget: "input", InputMode: "tel"},
		{Type: schema.FieldCurrency, DefaultLabel: "Amount", Widget: "input", InputMode: "decimal",
			DefaultValidation: func() *schema.Validation {
				return &schema.Validation{Kind: schema.ValidationNumber, Number: &schema.NumberRules{}}
			}},
		{Type: schema.FieldRating, DefaultLabel: "Rating", Widget: "rating",
			DefaultValidation: func() *schema.Validation {
				return &schema.Validation{Kind: schema.ValidationRating, Rating: &schema.RatingRules{MaxStars: 5}}
			}},
		{Type: schema.FieldMatrix, DefaultLabel: "Matrix", Widget: "matrix"},
		{Type: schema.FieldSignature, DefaultLabel: "Signature", Widget: "signature"},
		{Type: schema.FieldLocation, DefaultLabel: "Location", Widget: "location"},
	}
}
