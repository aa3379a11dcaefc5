package schema

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from user-authored text.
func SanitizeText(raw string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(raw))
}

// Normalize cleans user-authored text across the document and drops metadata
// that does not apply to a field's kind. It is applied on load and before
// persisting builder output.
func Normalize(s *FormSchema) {
	s.Name = SanitizeText(s.Name)
	s.Title = SanitizeText(s.Title)
	s.Description = SanitizeText(s.Description)

	for i := range s.Fields {
		field := &s.Fields[i]
		field.Label = SanitizeText(field.Label)
		field.Placeholder = SanitizeText(field.Placeholder)
		field.Description = SanitizeText(field.Description)
		if !field.Type.Choice() {
			field.Options = nil
		}
		if field.Type != FieldMatrix {
			field.Matrix = nil
		}
		for j := range field.Options {
			field.Options[j].Label = SanitizeText(field.Options[j].Label)
			field.Options[j].Description = SanitizeText(field.Options[j].Description)
		}
	}

	for i := range s.Sections {
		s.Sections[i].Title = SanitizeText(s.Sections[i].Title)
		s.Sections[i].Description = SanitizeText(s.Sections[i].Description)
	}
}
