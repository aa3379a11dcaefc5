// Package importer turns an OpenAPI 3 operation's request body into a form
// schema: object properties become fields, enums become choice options and
// schema constraints become typed validation rules.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"

	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

var (
	// ErrOperationNotFound is returned when the document has no operation
	// with the requested id.
	ErrOperationNotFound = errors.New("importer: operation not found")
	// ErrNoRequestBody is returned when the operation declares no usable
	// request body schema.
	ErrNoRequestBody = errors.New("importer: operation has no request body schema")
)

// Importer converts OpenAPI documents. The zero value is usable.
type Importer struct {
	// ResolveReferences allows the loader to follow external $refs.
	ResolveReferences bool
	// Now stamps the created schema; defaults to time.Now.
	Now func() time.Time
	// NewID generates ids; defaults to uuid.NewString.
	NewID func() string
}

// New constructs an Importer with defaults.
func New() *Importer {
	return &Importer{}
}

// Import loads an OpenAPI document and builds a form schema from the request
// body of the operation identified by operationID. Operations without an
// operationId are addressable as "method:path" in lower case, matching how
// the parser derives fallback ids.
func (imp *Importer) Import(ctx context.Context, raw []byte, operationID string) (*schema.FormSchema, error) {
	if len(raw) == 0 {
		return nil, errors.New("importer: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: imp.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("importer: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("importer: document does not contain any paths")
	}

	operation, opID := findOperation(spec, operationID)
	if operation == nil {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestBodySchema(operation.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, opID)
	}

	now := time.Now
	if imp.Now != nil {
		now = imp.Now
	}
	newID := uuid.NewString
	if imp.NewID != nil {
		newID = imp.NewID
	}

	title := operation.Summary
	if title == "" {
		title = humanize(opID)
	}

	doc := &schema.FormSchema{
		ID:          newID(),
		Name:        opID,
		Title:       title,
		Description: operation.Description,
		Version:     1,
		CreatedAt:   now().UTC(),
		UpdatedAt:   now().UTC(),
	}

	required := map[string]bool{}
	for _, name := range body.Required {
		required[name] = true
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		prop := body.Properties[name]
		if prop == nil || prop.Value == nil {
			continue
		}
		field := fieldFor(name, prop.Value, required[name])
		field.ID = newID()
		field.Order = i
		doc.Fields = append(doc.Fields, field)
	}

	schema.Normalize(doc)
	schema.SortFields(doc)
	return doc, nil
}

func findOperation(spec *openapi3.T, operationID string) (*openapi3.Operation, string) {
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			opID := operation.OperationID
			if opID == "" {
				opID = strings.ToLower(method) + ":" + path
			}
			if opID == operationID {
				return operation, opID
			}
		}
	}
	return nil, ""
}

func requestBodySchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	content := ref.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldFor(name string, src *openapi3.Schema, required bool) schema.FormField {
	field := schema.FormField{
		Type:        kindFor(name, src),
		Label:       labelFor(name, src),
		Name:        name,
		Required:    required,
		Description: src.Description,
	}

	if field.Type.Choice() {
		field.Options = optionsFor(src)
	}

	switch field.Type {
	case schema.FieldNumber, schema.FieldCurrency, schema.FieldRating:
		field.Validation = numberValidation(src, field.Type)
	case schema.FieldMultiSelect:
		field.Validation = choiceValidation(src)
	default:
		field.Validation = textValidation(src)
	}

	return field
}

// kindFor maps an OpenAPI type/format pair onto a field kind. Heuristics on
// the property name cover formats the spec leaves unspecified (phone,
// currency, location).
func kindFor(name string, src *openapi3.Schema) schema.FieldType {
	typ := firstSchemaType(src.Type)
	lower := strings.ToLower(name)

	switch typ {
	case "boolean":
		return schema.FieldRadio
	case "integer", "number":
		if strings.Contains(lower, "price") || strings.Contains(lower, "amount") || src.Format == "currency" {
			return schema.FieldCurrency
		}
		if strings.Contains(lower, "rating") || strings.Contains(lower, "stars") {
			return schema.FieldRating
		}
		return schema.FieldNumber
	case "array":
		if src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0 {
			return schema.FieldMultiSelect
		}
		return schema.FieldMultiSelect
	}

	if len(src.Enum) > 0 {
		return schema.FieldSelect
	}

	switch src.Format {
	case "email":
		return schema.FieldEmail
	case "date":
		return schema.FieldDate
	case "date-time":
		return schema.FieldDateTime
	case "uri", "url":
		return schema.FieldURL
	case "binary", "byte":
		return schema.FieldFile
	case "phone", "tel":
		return schema.FieldPhone
	}

	switch {
	case strings.Contains(lower, "email"):
		return schema.FieldEmail
	case strings.Contains(lower, "phone"):
		return schema.FieldPhone
	case strings.Contains(lower, "url") || strings.Contains(lower, "website"):
		return schema.FieldURL
	case strings.Contains(lower, "address") || strings.Contains(lower, "location"):
		return schema.FieldLocation
	case strings.Contains(lower, "signature"):
		return schema.FieldSignature
	}

	if src.MaxLength != nil && *src.MaxLength > 255 {
		return schema.FieldTextarea
	}
	return schema.FieldText
}

func labelFor(name string, src *openapi3.Schema) string {
	if src.Title != "" {
		return src.Title
	}
	return humanize(name)
}

func optionsFor(src *openapi3.Schema) []schema.FormOption {
	enum := src.Enum
	if len(enum) == 0 && src.Items != nil && src.Items.Value != nil {
		enum = src.Items.Value.Enum
	}
	if len(enum) == 0 {
		// Boolean radios get a fixed pair.
		return []schema.FormOption{
			{Label: "Yes", Value: "true"},
			{Label: "No", Value: "false"},
		}
	}
	options := make([]schema.FormOption, 0, len(enum))
	for _, raw := range enum {
		value := fmt.Sprint(raw)
		options = append(options, schema.FormOption{Label: humanize(value), Value: value})
	}
	return options
}

func textValidation(src *openapi3.Schema) *schema.Validation {
	rules := schema.TextRules{Pattern: src.Pattern}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		rules.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		rules.MaxLength = &value
	}
	if rules.MinLength == nil && rules.MaxLength == nil && rules.Pattern == "" {
		return nil
	}
	return &schema.Validation{Kind: schema.ValidationText, Text: &rules}
}

func numberValidation(src *openapi3.Schema, kind schema.FieldType) *schema.Validation {
	if kind == schema.FieldRating {
		stars := 5
		if src.Max != nil {
			stars = int(*src.Max)
		}
		return &schema.Validation{Kind: schema.ValidationRating, Rating: &schema.RatingRules{MaxStars: stars}}
	}

	rules := schema.NumberRules{}
	if src.Min != nil {
		value := *src.Min
		rules.Min = &value
	}
	if src.Max != nil {
		value := *src.Max
		rules.Max = &value
	}
	if rules.Min == nil && rules.Max == nil {
		return nil
	}
	return &schema.Validation{Kind: schema.ValidationNumber, Number: &rules}
}

func choiceValidation(src *openapi3.Schema) *schema.Validation {
	rules := schema.ChoiceRules{}
	if src.MinItems != 0 {
		value := int(src.MinItems)
		rules.MinSelections = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		rules.MaxSelections = &value
	}
	if rules.MinSelections == nil && rules.MaxSelections == nil {
		return nil
	}
	return &schema.Validation{Kind: schema.ValidationChoice, Choice: &rules}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range *types {
		if t != "" {
			return t
		}
	}
	return ""
}

// humanize turns snake_case, kebab-case and camelCase identifiers into
// title-cased labels.
func humanize(raw string) string {
	if raw == "" {
		return raw
	}
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range raw {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == ':' || r == '/':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
