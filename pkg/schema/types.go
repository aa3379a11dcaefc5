// Package schema defines the form document model: the FormSchema value edited
// by the builder, rendered by the preview, and exchanged as JSON or YAML.
package schema

import (
	"time"

	"github.com/formstudio-io/go-formstudio/pkg/visibility"
)

// FieldType is the closed enum of input kinds a form may contain.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldEmail       FieldType = "email"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldDate        FieldType = "date"
	FieldDateTime    FieldType = "datetime"
	FieldFile        FieldType = "file"
	FieldURL         FieldType = "url"
	FieldPhone       FieldType = "phone"
	FieldCurrency    FieldType = "currency"
	FieldRating      FieldType = "rating"
	FieldMatrix      FieldType = "matrix"
	FieldSignature   FieldType = "signature"
	FieldLocation    FieldType = "location"
)

// FieldTypes lists every supported kind in canonical palette order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldText, FieldTextarea, FieldEmail, FieldNumber,
		FieldSelect, FieldMultiSelect, FieldRadio, FieldCheckbox,
		FieldDate, FieldDateTime, FieldFile, FieldURL, FieldPhone,
		FieldCurrency, FieldRating, FieldMatrix, FieldSignature,
		FieldLocation,
	}
}

// Valid reports whether t is one of the supported field kinds.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Choice reports whether the kind carries an options list.
func (t FieldType) Choice() bool {
	switch t {
	case FieldSelect, FieldMultiSelect, FieldRadio, FieldCheckbox:
		return true
	default:
		return false
	}
}

// Multi reports whether the kind accepts more than one selected value.
func (t FieldType) Multi() bool {
	return t == FieldMultiSelect || t == FieldCheckbox
}

// FormOption is one selectable entry for a choice field.
type FormOption struct {
	Label       string `json:"label" yaml:"label"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MatrixSpec defines the row/column grid for matrix fields.
type MatrixSpec struct {
	Rows    []FormOption `json:"rows" yaml:"rows"`
	Columns []FormOption `json:"columns" yaml:"columns"`
}

// Position records where a field sits on the builder canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// FormField is one input definition inside a schema.
type FormField struct {
	ID          string    `json:"id" yaml:"id"`
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label" yaml:"label"`
	Name        string    `json:"name" yaml:"name"`
	Required    bool      `json:"required" yaml:"required"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`

	// Order is kept consistent with slice position by the builder; ties in
	// externally produced documents are broken by array position.
	Order   int    `json:"order" yaml:"order"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Options is required by convention for choice kinds and absent for the
	// rest; Normalize drops it from non-choice fields.
	Options []FormOption `json:"options,omitempty" yaml:"options,omitempty"`
	Matrix  *MatrixSpec  `json:"matrix,omitempty" yaml:"matrix,omitempty"`

	Validation *Validation           `json:"validation,omitempty" yaml:"validation,omitempty"`
	Visibility *visibility.RuleGroup `json:"visibility,omitempty" yaml:"visibility,omitempty"`

	Styling       map[string]string `json:"styling,omitempty" yaml:"styling,omitempty"`
	Accessibility map[string]string `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
	Position      *Position         `json:"position,omitempty" yaml:"position,omitempty"`
}

// FormSection groups fields under a titled, optionally collapsible heading.
// Fields reference sections by id but may belong to none.
type FormSection struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int    `json:"order" yaml:"order"`
	Collapsible bool   `json:"collapsible,omitempty" yaml:"collapsible,omitempty"`
}

// FormSettings carries behaviour toggles for the rendered form.
type FormSettings struct {
	SubmitLabel     string `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	SuccessMessage  string `json:"successMessage,omitempty" yaml:"successMessage,omitempty"`
	AllowMultiple   bool   `json:"allowMultiple,omitempty" yaml:"allowMultiple,omitempty"`
	ShowProgressBar bool   `json:"showProgressBar,omitempty" yaml:"showProgressBar,omitempty"`
	RequireAuth     bool   `json:"requireAuth,omitempty" yaml:"requireAuth,omitempty"`
}

// FormStyling selects the theme applied when rendering the preview. Tokens
// override individual theme tokens by name.
type FormStyling struct {
	Theme   string            `json:"theme,omitempty" yaml:"theme,omitempty"`
	Variant string            `json:"variant,omitempty" yaml:"variant,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// FormLayout describes the preview grid.
type FormLayout struct {
	Columns int    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Gutter  string `json:"gutter,omitempty" yaml:"gutter,omitempty"`
}

// FormSchema is the complete document describing a form.
type FormSchema struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Version     int           `json:"version" yaml:"version"`
	Fields      []FormField   `json:"fields" yaml:"fields"`
	Sections    []FormSection `json:"sections,omitempty" yaml:"sections,omitempty"`
	Settings    FormSettings  `json:"settings" yaml:"settings"`
	Styling     FormStyling   `json:"styling" yaml:"styling"`
	Layout      *FormLayout   `json:"layout,omitempty" yaml:"layout,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Field returns the field with the given id, or nil.
func (s *FormSchema) Field(id string) *FormField {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// FieldByName returns the field with the given submission name, or nil.
func (s *FormSchema) FieldByName(name string) *FormField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// Touch bumps the document's update timestamp.
func (s *FormSchema) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Clone returns a deep copy of the field, including nested validation,
// options and visibility rules.
func (f FormField) Clone() FormField {
	out := f
	if len(f.Options) > 0 {
		out.Options = append([]FormOption(nil), f.Options...)
	}
	if f.Matrix != nil {
		matrix := MatrixSpec{
			Rows:    append([]FormOption(nil), f.Matrix.Rows...),
			Columns: append([]FormOption(nil), f.Matrix.Columns...),
		}
		out.Matrix = &matrix
	}
	if f.Validation != nil {
		cloned := f.Validation.Clone()
		out.Validation = &cloned
	}
	if f.Visibility != nil {
		group := visibility.RuleGroup{
			Combinator: f.Visibility.Combinator,
			Rules:      append([]visibility.Rule(nil), f.Visibility.Rules...),
		}
		out.Visibility = &group
	}
	out.Styling = cloneStringMap(f.Styling)
	out.Accessibility = cloneStringMap(f.Accessibility)
	if f.Position != nil {
		pos := *f.Position
		out.Position = &pos
	}
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
