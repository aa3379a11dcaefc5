package tui

import (
	"errors"
	"testing"
)

func TestSurveyValidatorAdaptsStringContract(t *testing.T) {
	wantErr := errors.New("too short")
	validate := surveyValidator(func(s string) error {
		if len(s) < 3 {
			return wantErr
		}
		return nil
	})

	if err := validate("hello"); err != nil {
		t.Fatalf("valid answer rejected: %v", err)
	}
	if err := validate("hi"); !errors.Is(err, wantErr) {
		t.Fatalf("invalid answer: got %v, want %v", err, wantErr)
	}
	// Non-string answers coerce to the empty string rather than panicking.
	if err := validate(42); !errors.Is(err, wantErr) {
		t.Fatalf("non-string answer: got %v, want %v", err, wantErr)
	}
}
