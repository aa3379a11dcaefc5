package tui

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/formstudio-io/go-formstudio/pkg/preview"
	"github.com/formstudio-io/go-formstudio/pkg/schema"
	"github.com/formstudio-io/go-formstudio/pkg/visibility"
)

// stubDriver replays scripted answers instead of prompting a terminal.
type stubDriver struct {
	inputs      []string
	selects     []int
	multiPicks  [][]int
	textAreas   []string
	infoLines   []string
	inputIdx    int
	selectIdx   int
	multiIdx    int
	textAreaIdx int
}

func (d *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	out := d.inputs[d.inputIdx]
	d.inputIdx++
	return out, nil
}

func (d *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	return cfg.Default, nil
}

func (d *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	out := d.selects[d.selectIdx]
	d.selectIdx++
	return out, nil
}

func (d *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	out := d.multiPicks[d.multiIdx]
	d.multiIdx++
	return out, nil
}

func (d *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	out := d.textAreas[d.textAreaIdx]
	d.textAreaIdx++
	return out, nil
}

func (d *stubDriver) Info(_ context.Context, msg string) error {
	d.infoLines = append(d.infoLines, msg)
	return nil
}

func fillSchema() *schema.FormSchema {
	return &schema.FormSchema{
		Title: "Signup",
		Fields: []schema.FormField{
			{ID: "f1", Type: schema.FieldText, Label: "Name", Name: "name", Required: true, Order: 0},
			{
				ID: "f2", Type: schema.FieldSelect, Label: "Plan", Name: "plan", Order: 1,
				Options: []schema.FormOption{
					{Label: "Free", Value: "free"},
					{Label: "Pro", Value: "pro"},
				},
			},
			{
				ID: "f3", Type: schema.FieldTextarea, Label: "Notes", Name: "notes", Order: 2,
				Visibility: &visibility.RuleGroup{Rules: []visibility.Rule{
					{Field: "plan", Operator: visibility.OpEquals, Value: "pro"},
				}},
			},
		},
	}
}

func TestRenderer_FillProducesJSON(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada"},
		selects:   []int{1},
		textAreas: []string{"priority support please"},
	}
	r := New(WithDriver(driver))

	out, err := r.Render(context.Background(), fillSchema(), preview.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"name":  "Ada",
		"plan":  "pro",
		"notes": "priority support please",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_HiddenFieldSkipped(t *testing.T) {
	driver := &stubDriver{
		inputs:  []string{"Ada"},
		selects: []int{0}, // picks "free", so notes stays hidden
	}
	r := New(WithDriver(driver))

	out, err := r.Render(context.Background(), fillSchema(), preview.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, present := got["notes"]; present {
		t.Fatalf("hidden field should not be prompted: %v", got)
	}
	if driver.textAreaIdx != 0 {
		t.Fatal("textarea prompt should not run for hidden field")
	}
}

func TestRenderer_RetriesOnValidationFailure(t *testing.T) {
	doc := &schema.FormSchema{
		Fields: []schema.FormField{
			{ID: "f1", Type: schema.FieldText, Label: "Name", Name: "name", Required: true},
		},
	}
	driver := &stubDriver{inputs: []string{"", "Ada"}}
	r := New(WithDriver(driver))

	out, err := r.Render(context.Background(), doc, preview.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["name"] != "Ada" {
		t.Fatalf("expected retried answer, got %v", got)
	}
	if len(driver.infoLines) == 0 {
		t.Fatal("validation message should be replayed to the user")
	}
}

func TestRenderer_GivesUpAfterMaxAttempts(t *testing.T) {
	doc := &schema.FormSchema{
		Fields: []schema.FormField{
			{ID: "f1", Type: schema.FieldText, Label: "Name", Name: "name", Required: true},
		},
	}
	driver := &stubDriver{inputs: []string{"", "", ""}}
	r := New(WithDriver(driver))

	if _, err := r.Render(context.Background(), doc, preview.Options{}); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
}
