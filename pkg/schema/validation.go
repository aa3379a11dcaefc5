package schema

import (
	"encoding/json"
	"fmt"
)

// ValidationKind discriminates the shape of a field's validation rules.
type ValidationKind string

const (
	ValidationText   ValidationKind = "text"
	ValidationNumber ValidationKind = "number"
	ValidationChoice ValidationKind = "choice"
	ValidationDate   ValidationKind = "date"
	ValidationFile   ValidationKind = "file"
	ValidationRating ValidationKind = "rating"
	ValidationMatrix ValidationKind = "matrix"
)

// TextRules constrain free-text input. Zero-valued bounds are absent.
type TextRules struct {
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// NumberRules constrain numeric input.
type NumberRules struct {
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step *float64 `json:"step,omitempty" yaml:"step,omitempty"`
}

// ChoiceRules constrain how many options a multi-choice field accepts.
type ChoiceRules struct {
	MinSelections *int `json:"minSelections,omitempty" yaml:"minSelections,omitempty"`
	MaxSelections *int `json:"maxSelections,omitempty" yaml:"maxSelections,omitempty"`
}

// DateRules bound date and datetime fields. Values are ISO 8601 strings so
// documents stay portable.
type DateRules struct {
	NotBefore string `json:"notBefore,omitempty" yaml:"notBefore,omitempty"`
	NotAfter  string `json:"notAfter,omitempty" yaml:"notAfter,omitempty"`
}

// FileRules constrain uploads.
type FileRules struct {
	MaxSizeBytes *int64   `json:"maxSizeBytes,omitempty" yaml:"maxSizeBytes,omitempty"`
	Extensions   []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// RatingRules bound the star scale.
type RatingRules struct {
	MaxStars int `json:"maxStars,omitempty" yaml:"maxStars,omitempty"`
}

// MatrixRules constrain grid answers.
type MatrixRules struct {
	RequireAllRows bool `json:"requireAllRows,omitempty" yaml:"requireAllRows,omitempty"`
}

// Validation is a discriminated union of per-type rule shapes. Exactly one of
// the rule pointers matching Kind is set; the wire form flattens the rules
// next to a "kind" discriminator.
type Validation struct {
	Kind   ValidationKind
	Text   *TextRules
	Number *NumberRules
	Choice *ChoiceRules
	Date   *DateRules
	File   *FileRules
	Rating *RatingRules
	Matrix *MatrixRules
}

// ValidationKindFor returns the validation shape a field kind uses.
func ValidationKindFor(t FieldType) ValidationKind {
	switch t {
	case FieldNumber, FieldCurrency:
		return ValidationNumber
	case FieldSelect, FieldMultiSelect, FieldRadio, FieldCheckbox:
		return ValidationChoice
	case FieldDate, FieldDateTime:
		return ValidationDate
	case FieldFile, FieldSignature:
		return ValidationFile
	case FieldRating:
		return ValidationRating
	case FieldMatrix:
		return ValidationMatrix
	default:
		return ValidationText
	}
}

// Clone returns a deep copy. Bound pointers get fresh storage so a cloned
// field never shares rule values with its source.
func (v Validation) Clone() Validation {
	out := Validation{Kind: v.Kind}
	if v.Text != nil {
		out.Text = &TextRules{
			MinLength: clonePtr(v.Text.MinLength),
			MaxLength: clonePtr(v.Text.MaxLength),
			Pattern:   v.Text.Pattern,
		}
	}
	if v.Number != nil {
		out.Number = &NumberRules{
			Min:  clonePtr(v.Number.Min),
			Max:  clonePtr(v.Number.Max),
			Step: clonePtr(v.Number.Step),
		}
	}
	if v.Choice != nil {
		out.Choice = &ChoiceRules{
			MinSelections: clonePtr(v.Choice.MinSelections),
			MaxSelections: clonePtr(v.Choice.MaxSelections),
		}
	}
	if v.Date != nil {
		rules := *v.Date
		out.Date = &rules
	}
	if v.File != nil {
		out.File = &FileRules{MaxSizeBytes: clonePtr(v.File.MaxSizeBytes)}
		if len(v.File.Extensions) > 0 {
			out.File.Extensions = append([]string(nil), v.File.Extensions...)
		}
	}
	if v.Rating != nil {
		rules := *v.Rating
		out.Rating = &rules
	}
	if v.Matrix != nil {
		rules := *v.Matrix
		out.Matrix = &rules
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

// validationEnvelope is the flattened wire form shared by JSON and YAML.
type validationEnvelope struct {
	Kind ValidationKind `json:"kind" yaml:"kind"`

	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step *float64 `json:"step,omitempty" yaml:"step,omitempty"`

	MinSelections *int `json:"minSelections,omitempty" yaml:"minSelections,omitempty"`
	MaxSelections *int `json:"maxSelections,omitempty" yaml:"maxSelections,omitempty"`

	NotBefore string `json:"notBefore,omitempty" yaml:"notBefore,omitempty"`
	NotAfter  string `json:"notAfter,omitempty" yaml:"notAfter,omitempty"`

	MaxSizeBytes *int64   `json:"maxSizeBytes,omitempty" yaml:"maxSizeBytes,omitempty"`
	Extensions   []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	MaxStars int `json:"maxStars,omitempty" yaml:"maxStars,omitempty"`

	RequireAllRows bool `json:"requireAllRows,omitempty" yaml:"requireAllRows,omitempty"`
}

func (v Validation) envelope() validationEnvelope {
	env := validationEnvelope{Kind: v.Kind}
	if v.Text != nil {
		env.MinLength = v.Text.MinLength
		env.MaxLength = v.Text.MaxLength
		env.Pattern = v.Text.Pattern
	}
	if v.Number != nil {
		env.Min = v.Number.Min
		env.Max = v.Number.Max
		env.Step = v.Number.Step
	}
	if v.Choice != nil {
		env.MinSelections = v.Choice.MinSelections
		env.MaxSelections = v.Choice.MaxSelections
	}
	if v.Date != nil {
		env.NotBefore = v.Date.NotBefore
		env.NotAfter = v.Date.NotAfter
	}
	if v.File != nil {
		env.MaxSizeBytes = v.File.MaxSizeBytes
		env.Extensions = v.File.Extensions
	}
	if v.Rating != nil {
		env.MaxStars = v.Rating.MaxStars
	}
	if v.Matrix != nil {
		env.RequireAllRows = v.Matrix.RequireAllRows
	}
	return env
}

func (v *Validation) fromEnvelope(env validationEnvelope) error {
	*v = Validation{Kind: env.Kind}
	switch env.Kind {
	case ValidationText, "":
		v.Kind = ValidationText
		v.Text = &TextRules{MinLength: env.MinLength, MaxLength: env.MaxLength, Pattern: env.Pattern}
	case ValidationNumber:
		v.Number = &NumberRules{Min: env.Min, Max: env.Max, Step: env.Step}
	case ValidationChoice:
		v.Choice = &ChoiceRules{MinSelections: env.MinSelections, MaxSelections: env.MaxSelections}
	case ValidationDate:
		v.Date = &DateRules{NotBefore: env.NotBefore, NotAfter: env.NotAfter}
	case ValidationFile:
		v.File = &FileRules{MaxSizeBytes: env.MaxSizeBytes, Extensions: env.Extensions}
	case ValidationRating:
		v.Rating = &RatingRules{MaxStars: env.MaxStars}
	case ValidationMatrix:
		v.Matrix = &MatrixRules{RequireAllRows: env.RequireAllRows}
	default:
		return fmt.Errorf("schema: unknown validation kind %q", env.Kind)
	}
	return nil
}

// MarshalJSON flattens the active rule shape next to the kind discriminator.
func (v Validation) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.envelope())
}

// UnmarshalJSON reads the flattened form and restores the typed shape.
func (v *Validation) UnmarshalJSON(data []byte) error {
	var env validationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	return v.fromEnvelope(env)
}

// MarshalYAML mirrors the JSON wire form.
func (v Validation) MarshalYAML() (interface{}, error) {
	return v.envelope(), nil
}

// UnmarshalYAML mirrors the JSON wire form.
func (v *Validation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var env validationEnvelope
	if err := unmarshal(&env); err != nil {
		return err
	}
	return v.fromEnvelope(env)
}
