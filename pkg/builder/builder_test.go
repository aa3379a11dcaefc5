package builder

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	seq := 0
	doc := &schema.FormSchema{ID: "frm-1", Name: "test", Title: "Test"}
	return New(doc,
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
		WithClock(func() time.Time {
			return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
}

func fieldOrders(doc *schema.FormSchema) []int {
	orders := make([]int, len(doc.Fields))
	for i, f := range doc.Fields {
		orders[i] = f.Order
	}
	return orders
}

func TestAddField_AssignsUniqueIDsAndSequentialOrders(t *testing.T) {
	b := newTestBuilder(t)

	seen := map[string]bool{}
	for i, kind := range []schema.FieldType{schema.FieldText, schema.FieldEmail, schema.FieldSelect} {
		field, err := b.AddField(kind)
		if err != nil {
			t.Fatalf("add %s: %v", kind, err)
		}
		if seen[field.ID] {
			t.Fatalf("duplicate id %q", field.ID)
		}
		seen[field.ID] = true
		if field.Order != i {
			t.Fatalf("field %d: order %d", i, field.Order)
		}
	}

	if !b.Schema().UpdatedAt.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("UpdatedAt not bumped: %v", b.Schema().UpdatedAt)
	}
}

func TestAddField_RegistryDefaults(t *testing.T) {
	b := newTestBuilder(t)

	field, err := b.AddField(schema.FieldSelect)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if field.Label != "Dropdown" {
		t.Fatalf("label %q", field.Label)
	}
	if len(field.Options) == 0 {
		t.Fatal("choice field should be seeded with options")
	}

	rating, err := b.AddField(schema.FieldRating)
	if err != nil {
		t.Fatalf("add rating: %v", err)
	}
	if rating.Validation == nil || rating.Validation.Rating == nil || rating.Validation.Rating.MaxStars != 5 {
		t.Fatalf("rating default validation missing: %+v", rating.Validation)
	}
}

func TestAddField_RejectsUnknownKind(t *testing.T) {
	b := newTestBuilder(t)
	if _, err := b.AddField(schema.FieldType("hologram")); !errors.Is(err, ErrUnknownFieldType) {
		t.Fatalf("want ErrUnknownFieldType, got %v", err)
	}
}

func TestUpdateField_PreservesUntouchedNestedState(t *testing.T) {
	b := newTestBuilder(t)

	field, err := b.AddField(schema.FieldText)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	min := 3
	if err := b.UpdateField(field.ID, FieldPatch{
		Validation: &schema.Validation{Kind: schema.ValidationText, Text: &schema.TextRules{MinLength: &min}},
	}); err != nil {
		t.Fatalf("set validation: %v", err)
	}

	label := "Company"
	if err := b.UpdateField(field.ID, FieldPatch{Label: &label}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	got := b.Schema().Field(field.ID)
	if got.Label != "Company" {
		t.Fatalf("label %q", got.Label)
	}
	if got.Validation == nil || got.Validation.Text == nil || got.Validation.Text.MinLength == nil || *got.Validation.Text.MinLength != 3 {
		t.Fatalf("label-only patch dropped validation: %+v", got.Validation)
	}
}

func TestUpdateField_SanitizesLabel(t *testing.T) {
	b := newTestBuilder(t)
	field, _ := b.AddField(schema.FieldText)

	label := `<img src=x onerror=alert(1)>Name`
	if err := b.UpdateField(field.ID, FieldPatch{Label: &label}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := b.Schema().Field(field.ID).Label; got != "Name" {
		t.Fatalf("label not sanitized: %q", got)
	}
}

func TestUpdateField_NotFound(t *testing.T) {
	b := newTestBuilder(t)
	if err := b.UpdateField("missing", FieldPatch{}); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("want ErrFieldNotFound, got %v", err)
	}
}

func TestDuplicateField_CopySuffixes(t *testing.T) {
	b := newTestBuilder(t)

	source, _ := b.AddField(schema.FieldSelect)
	label := "Plan"
	name := "plan"
	if err := b.UpdateField(source.ID, FieldPatch{Label: &label, Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	dup, err := b.DuplicateField(source.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if dup.ID == source.ID {
		t.Fatal("duplicate must get a fresh id")
	}
	if dup.Label != "Plan (Copy)" {
		t.Fatalf("label %q", dup.Label)
	}
	if dup.Name != "plan_copy" {
		t.Fatalf("name %q", dup.Name)
	}
	if dup.Order != 1 {
		t.Fatalf("duplicate order %d", dup.Order)
	}
	if diff := cmp.Diff(source.Options, dup.Options); diff != "" {
		t.Fatalf("options not copied (-want +got):\n%s", diff)
	}

	// Deep copy: editing the duplicate's options leaves the source alone.
	dup.Options[0].Label = "Changed"
	if b.Schema().Field(source.ID).Options[0].Label == "Changed" {
		t.Fatal("duplicate shares options storage with the source")
	}
}

func TestDeleteField_Renumbers(t *testing.T) {
	b := newTestBuilder(t)

	var ids []string
	for range 3 {
		field, err := b.AddField(schema.FieldText)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, field.ID)
	}

	if err := b.DeleteField(ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if diff := cmp.Diff([]int{0, 1}, fieldOrders(b.Schema())); diff != "" {
		t.Fatalf("orders after delete (-want +got):\n%s", diff)
	}
	if b.Schema().Field(ids[1]) != nil {
		t.Fatal("deleted field still present")
	}
}

func TestReorderFields(t *testing.T) {
	b := newTestBuilder(t)

	for i := range 4 {
		field, err := b.AddField(schema.FieldText)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		name := fmt.Sprintf("f%d", i)
		if err := b.UpdateField(field.ID, FieldPatch{Name: &name}); err != nil {
			t.Fatalf("rename: %v", err)
		}
	}

	if err := b.ReorderFields(3, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := make([]string, 0, 4)
	for _, f := range b.Schema().Fields {
		got = append(got, f.Name)
	}
	if diff := cmp.Diff([]string{"f3", "f0", "f1", "f2"}, got); diff != "" {
		t.Fatalf("order after move (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, fieldOrders(b.Schema())); diff != "" {
		t.Fatalf("orders not renumbered (-want +got):\n%s", diff)
	}

	if err := b.ReorderFields(0, 9); err == nil {
		t.Fatal("expected range error")
	}
}

func TestScenario_AddDuplicateDelete(t *testing.T) {
	b := newTestBuilder(t)

	first, err := b.AddField(schema.FieldText)
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	second, err := b.AddField(schema.FieldEmail)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	dup, err := b.DuplicateField(first.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.Label != "Text Input (Copy)" {
		t.Fatalf("duplicate label = %q, want %q", dup.Label, "Text Input (Copy)")
	}
	if err := b.DeleteField(second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	doc := b.Schema()
	if len(doc.Fields) != 2 {
		t.Fatalf("want 2 fields, got %d", len(doc.Fields))
	}
	if doc.Fields[0].ID != first.ID || doc.Fields[1].ID != dup.ID {
		t.Fatalf("unexpected survivors: %s, %s", doc.Fields[0].ID, doc.Fields[1].ID)
	}
	if diff := cmp.Diff([]int{0, 1}, fieldOrders(doc)); diff != "" {
		t.Fatalf("orders (-want +got):\n%s", diff)
	}
}
