package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Check evaluates a field's declarative rules against a submitted value and
// returns human-readable messages. An empty slice means the value passes.
// Rules never panic on malformed input; unparsable values produce a message.
func Check(field FormField, value any) []string {
	var msgs []string

	empty := isEmpty(value)
	if field.Required && empty {
		msgs = append(msgs, fmt.Sprintf("%s is required", displayName(field)))
	}
	if empty {
		return dedupeMessages(msgs)
	}
	if field.Validation == nil {
		return dedupeMessages(msgs)
	}

	v := field.Validation
	switch {
	case v.Text != nil:
		msgs = append(msgs, checkText(field, *v.Text, value)...)
	case v.Number != nil:
		msgs = append(msgs, checkNumber(field, *v.Number, value)...)
	case v.Choice != nil:
		msgs = append(msgs, checkChoice(field, *v.Choice, value)...)
	case v.Date != nil:
		msgs = append(msgs, checkDate(field, *v.Date, value)...)
	case v.File != nil:
		msgs = append(msgs, checkFile(field, *v.File, value)...)
	case v.Rating != nil:
		msgs = append(msgs, checkRating(field, *v.Rating, value)...)
	case v.Matrix != nil:
		msgs = append(msgs, checkMatrix(field, *v.Matrix, value)...)
	}

	return dedupeMessages(msgs)
}

func checkText(field FormField, rules TextRules, value any) []string {
	text := stringValue(value)
	var msgs []string
	if rules.MinLength != nil && len([]rune(text)) < *rules.MinLength {
		msgs = append(msgs, fmt.Sprintf("%s must be at least %d characters", displayName(field), *rules.MinLength))
	}
	if rules.MaxLength != nil && len([]rune(text)) > *rules.MaxLength {
		msgs = append(msgs, fmt.Sprintf("%s must be at most %d characters", displayName(field), *rules.MaxLength))
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%s has an invalid pattern", displayName(field)))
		} else if !re.MatchString(text) {
			msgs = append(msgs, fmt.Sprintf("%s has an invalid format", displayName(field)))
		}
	}
	return msgs
}

func checkNumber(field FormField, rules NumberRules, value any) []string {
	n, ok := numberValue(value)
	if !ok {
		return []string{fmt.Sprintf("%s must be a number", displayName(field))}
	}
	var msgs []string
	if rules.Min != nil && n < *rules.Min {
		msgs = append(msgs, fmt.Sprintf("%s must be at least %v", displayName(field), *rules.Min))
	}
	if rules.Max != nil && n > *rules.Max {
		msgs = append(msgs, fmt.Sprintf("%s must be at most %v", displayName(field), *rules.Max))
	}
	return msgs
}

func checkChoice(field FormField, rules ChoiceRules, value any) []string {
	count := selectionCount(value)
	var msgs []string
	if rules.MinSelections != nil && count < *rules.MinSelections {
		msgs = append(msgs, fmt.Sprintf("%s requires at least %d selections", displayName(field), *rules.MinSelections))
	}
	if rules.MaxSelections != nil && count > *rules.MaxSelections {
		msgs = append(msgs, fmt.Sprintf("%s allows at most %d selections", displayName(field), *rules.MaxSelections))
	}
	return msgs
}

func checkDate(field FormField, rules DateRules, value any) []string {
	when, ok := dateValue(value)
	if !ok {
		return []string{fmt.Sprintf("%s must be a valid date", displayName(field))}
	}
	var msgs []string
	if rules.NotBefore != "" {
		if bound, ok := parseDate(rules.NotBefore); ok && when.Before(bound) {
			msgs = append(msgs, fmt.Sprintf("%s must not be before %s", displayName(field), rules.NotBefore))
		}
	}
	if rules.NotAfter != "" {
		if bound, ok := parseDate(rules.NotAfter); ok && when.After(bound) {
			msgs = append(msgs, fmt.Sprintf("%s must not be after %s", displayName(field), rules.NotAfter))
		}
	}
	return msgs
}

func checkFile(field FormField, rules FileRules, value any) []string {
	name := stringValue(value)
	var msgs []string
	if len(rules.Extensions) > 0 {
		matched := false
		for _, ext := range rules.Extensions {
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
				matched = true
				break
			}
		}
		if !matched {
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", displayName(field), strings.Join(rules.Extensions, ", ")))
		}
	}
	return msgs
}

func checkRating(field FormField, rules RatingRules, value any) []string {
	n, ok := numberValue(value)
	if !ok {
		return []string{fmt.Sprintf("%s must be a number", displayName(field))}
	}
	var msgs []string
	if n < 0 {
		msgs = append(msgs, fmt.Sprintf("%s must not be negative", displayName(field)))
	}
	if rules.MaxStars > 0 && n > float64(rules.MaxStars) {
		msgs = append(msgs, fmt.Sprintf("%s must be at most %d", displayName(field), rules.MaxStars))
	}
	return msgs
}

func checkMatrix(field FormField, rules MatrixRules, value any) []string {
	if !rules.RequireAllRows || field.Matrix == nil {
		return nil
	}
	answers, ok := value.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("%s must answer every row", displayName(field))}
	}
	for _, row := range field.Matrix.Rows {
		if isEmpty(answers[row.Value]) {
			return []string{fmt.Sprintf("%s must answer every row", displayName(field))}
		}
	}
	return nil
}

func displayName(field FormField) string {
	if field.Label != "" {
		return field.Label
	}
	if field.Name != "" {
		return field.Name
	}
	return "field"
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func selectionCount(value any) int {
	switch v := value.(type) {
	case []string:
		return len(v)
	case []any:
		return len(v)
	case nil:
		return 0
	default:
		return 1
	}
}

func dateValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		return parseDate(v)
	default:
		return time.Time{}, false
	}
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if when, err := time.Parse(layout, raw); err == nil {
			return when, true
		}
	}
	return time.Time{}, false
}

// dedupeMessages removes duplicates while preserving first-seen order.
func dedupeMessages(msgs []string) []string {
	if len(msgs) < 2 {
		return msgs
	}
	seen := make(map[string]struct{}, len(msgs))
	out := msgs[:0]
	for _, msg := range msgs {
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	return out
}
