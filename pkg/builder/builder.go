// Package builder applies editing commands to a form schema: add, update,
// duplicate, delete and reorder fields. Commands validate their input, keep
// field order consistent with slice position and bump the document's update
// timestamp; they never touch shared hidden state.
package builder

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/formstudio-io/go-formstudio/pkg/fieldtypes"
	"github.com/formstudio-io/go-formstudio/pkg/schema"
	"github.com/formstudio-io/go-formstudio/pkg/visibility"
)

var (
	// ErrFieldNotFound is returned when a command references a field id the
	// schema does not contain.
	ErrFieldNotFound = errors.New("builder: field not found")
	// ErrUnknownFieldType is returned when AddField receives a kind outside
	// the supported set.
	ErrUnknownFieldType = errors.New("builder: unknown field type")
)

// Builder edits a single schema document. It is not safe for concurrent use;
// callers serialise access the same way an editing session does.
type Builder struct {
	doc      *schema.FormSchema
	registry *fieldtypes.Registry
	now      func() time.Time
	newID    func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry overrides the field-type registry used for defaults.
func WithRegistry(r *fieldtypes.Registry) Option {
	return func(b *Builder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithClock overrides the time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator overrides field id generation. Tests pin it.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// New wraps a schema document for editing.
func New(doc *schema.FormSchema, opts ...Option) *Builder {
	b := &Builder{
		doc:      doc,
		registry: fieldtypes.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Schema returns the document under edit.
func (b *Builder) Schema() *schema.FormSchema { return b.doc }

// AddField appends a new field of the given kind with registry defaults: a
// fresh id, the kind's palette label, a generated submission name and order
// equal to the current field count.
func (b *Builder) AddField(t schema.FieldType) (*schema.FormField, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, t)
	}

	def := b.registry.Lookup(t)
	field := schema.FormField{
		ID:    b.newID(),
		Type:  t,
		Label: def.DefaultLabel,
		Name:  b.freshName(t),
		Order: len(b.doc.Fields),
	}
	if def.NeedsOptions {
		field.Options = append([]schema.FormOption(nil), def.DefaultOptions...)
	}
	if t == schema.FieldMatrix {
		field.Matrix = &schema.MatrixSpec{
			Rows:    []schema.FormOption{{Label: "Row 1", Value: "row_1"}},
			Columns: []schema.FormOption{{Label: "Column 1", Value: "column_1"}},
		}
	}
	if def.DefaultValidation != nil {
		field.Validation = def.DefaultValidation()
	}

	b.doc.Fields = append(b.doc.Fields, field)
	b.doc.Touch(b.now())
	return &b.doc.Fields[len(b.doc.Fields)-1], nil
}

// FieldPatch is a partial field update. Nil members are left untouched, so an
// update that only renames a label cannot drop nested validation, options or
// visibility rules.
type FieldPatch struct {
	Label       *string
	Name        *string
	Required    *bool
	Placeholder *string
	Description *string
	Section     *string
	Options     []schema.FormOption
	Matrix      *schema.MatrixSpec
	Validation  *schema.Validation
	Visibility  *visibility.RuleGroup
	Styling     map[string]string
	Position    *schema.Position
}

// UpdateField applies a patch to the identified field.
func (b *Builder) UpdateField(id string, patch FieldPatch) error {
	field := b.doc.Field(id)
	if field == nil {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}

	if patch.Label != nil {
		field.Label = schema.SanitizeText(*patch.Label)
	}
	if patch.Name != nil {
		field.Name = *patch.Name
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Placeholder != nil {
		field.Placeholder = schema.SanitizeText(*patch.Placeholder)
	}
	if patch.Description != nil {
		field.Description = schema.SanitizeText(*patch.Description)
	}
	if patch.Section != nil {
		field.Section = *patch.Section
	}
	if patch.Options != nil {
		field.Options = patch.Options
	}
	if patch.Matrix != nil {
		field.Matrix = patch.Matrix
	}
	if patch.Validation != nil {
		field.Validation = patch.Validation
	}
	if patch.Visibility != nil {
		field.Visibility = patch.Visibility
	}
	if patch.Styling != nil {
		field.Styling = patch.Styling
	}
	if patch.Position != nil {
		field.Position = patch.Position
	}

	b.doc.Touch(b.now())
	return nil
}

// DeleteField removes the identified field and renumbers the remaining
// fields so orders stay contiguous.
func (b *Builder) DeleteField(id string) error {
	idx := b.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}

	b.doc.Fields = append(b.doc.Fields[:idx], b.doc.Fields[idx+1:]...)
	b.renumber()
	b.doc.Touch(b.now())
	return nil
}

// DuplicateField deep-copies the identified field, gives the copy a fresh id,
// appends " (Copy)" to the label and "_copy" to the submission name, and
// places it at the end of the form.
func (b *Builder) DuplicateField(id string) (*schema.FormField, error) {
	source := b.doc.Field(id)
	if source == nil {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}

	copyField := source.Clone()
	copyField.ID = b.newID()
	copyField.Label = source.Label + " (Copy)"
	copyField.Name = source.Name + "_copy"
	copyField.Order = len(b.doc.Fields)

	b.doc.Fields = append(b.doc.Fields, copyField)
	b.doc.Touch(b.now())
	return &b.doc.Fields[len(b.doc.Fields)-1], nil
}

// ReorderFields moves the field at position from to position to, shifting the
// fields in between, then renumbers every order to its slice index.
func (b *Builder) ReorderFields(from, to int) error {
	n := len(b.doc.Fields)
	if from < 0 || from >= n {
		return fmt.Errorf("builder: reorder from %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("builder: reorder to %d out of range [0,%d)", to, n)
	}
	if from == to {
		return nil
	}

	moved := b.doc.Fields[from]
	rest := append(b.doc.Fields[:from:from], b.doc.Fields[from+1:]...)
	fields := make([]schema.FormField, 0, n)
	fields = append(fields, rest[:to]...)
	fields = append(fields, moved)
	fields = append(fields, rest[to:]...)
	b.doc.Fields = fields

	b.renumber()
	b.doc.Touch(b.now())
	return nil
}

func (b *Builder) indexOf(id string) int {
	for i := range b.doc.Fields {
		if b.doc.Fields[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Builder) renumber() {
	for i := range b.doc.Fields {
		b.doc.Fields[i].Order = i
	}
}

// freshName derives a submission name from the kind, bumping a numeric
// suffix until it is unused.
func (b *Builder) freshName(t schema.FieldType) string {
	for n := len(b.doc.Fields) + 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", t, n)
		if b.doc.FieldByName(candidate) == nil {
			return candidate
		}
	}
}
