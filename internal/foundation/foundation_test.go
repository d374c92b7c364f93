package foundation

import (
	"testing"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func TestValidatorChain(t *testing.T) {
	type settings struct {
		Input  string
		Format string
		Delay  string
	}
	chain := NewValidatorChain(
		func(s settings) ValidationResult { return Required("input", s.Input, "input is required") },
		func(s settings) ValidationResult { return OneOf("format", "text", "json")(s.Format) },
		func(s settings) ValidationResult {
			_, r := PositiveDuration("delay", s.Delay)
			return r
		},
	)

	if result := chain.Validate(settings{Input: "book.md", Format: "text", Delay: "1s"}); !result.Valid() {
		t.Errorf("expected valid settings, got %v", result.Errors)
	}

	result := chain.Validate(settings{Input: " ", Format: "xml", Delay: "-1s"})
	if result.Valid() {
		t.Fatal("expected invalid settings")
	}
	fields := result.Fields()
	if len(fields) != 3 || fields[0] != "input" || fields[2] != "delay" {
		t.Fatalf("unexpected failing fields %v", fields)
	}

	err := result.ToError()
	if !errors.HasCategory(err, errors.CategoryValidation) {
		t.Errorf("expected validation category, got %v", err)
	}
	ce, _ := errors.AsClassified(err)
	if got := ce.Context()["fields"]; got != "input,format,delay" {
		t.Errorf("unexpected fields context %v", got)
	}
	if (ValidationResult{}).ToError() != nil {
		t.Error("valid result must not produce an error")
	}
}

func TestPositiveDuration(t *testing.T) {
	if d, r := PositiveDuration("d", "250ms"); !r.Valid() || d.Milliseconds() != 250 {
		t.Errorf("unexpected result %v %v", d, r)
	}
	if _, r := PositiveDuration("d", "soon"); r.Valid() {
		t.Error("expected failure for unparsable duration")
	}
}

func TestFieldErrorMessage(t *testing.T) {
	if got := Fail("input", "required", "input is required").Errors[0].Error(); got != "field 'input': input is required" {
		t.Errorf("unexpected message %q", got)
	}
	if got := (FieldError{Message: "bare"}).Error(); got != "bare" {
		t.Errorf("unexpected message %q", got)
	}
}
