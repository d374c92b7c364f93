// Package foundation holds small generic helpers shared by the other packages.
package foundation

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Validator checks one aspect of a value.
type Validator[T any] func(T) ValidationResult

// ValidationResult collects the failures of one or more validators. The zero
// value is a successful result.
type ValidationResult struct {
	Errors []FieldError
}

// Valid reports whether no validator failed.
func (vr ValidationResult) Valid() bool { return len(vr.Errors) == 0 }

// FieldError is a single failure, keyed by the dotted path of the setting.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Fail creates a result with a single failure.
func Fail(field, code, message string) ValidationResult {
	return ValidationResult{Errors: []FieldError{{Field: field, Code: code, Message: message}}}
}

// Combine appends the failures of other.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if other.Valid() {
		return vr
	}
	return ValidationResult{Errors: append(append([]FieldError(nil), vr.Errors...), other.Errors...)}
}

// Fields lists the failing fields in order.
func (vr ValidationResult) Fields() []string {
	out := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		out = append(out, e.Field)
	}
	return out
}

// ToError returns a validation error listing every failure, or nil.
func (vr ValidationResult) ToError() error {
	if vr.Valid() {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, err.Error())
	}
	return errors.ValidationError(strings.Join(messages, "; ")).
		WithContext("fields", strings.Join(vr.Fields(), ",")).Build()
}

// ValidatorChain runs validators in order and collects all failures.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Validate runs all validators in the chain.
func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	var result ValidationResult
	for _, validator := range vc.validators {
		result = result.Combine(validator(value))
	}
	return result
}

// Required fails when value is blank.
func Required(field, value, message string) ValidationResult {
	if strings.TrimSpace(value) == "" {
		return Fail(field, "required", message)
	}
	return ValidationResult{}
}

// PositiveDuration parses value and fails unless it is a duration above zero.
func PositiveDuration(field, value string) (time.Duration, ValidationResult) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, Fail(field, "duration", "must be a positive duration")
	}
	return d, ValidationResult{}
}

// OneOf fails when value is not among allowed.
func OneOf[T comparable](field string, allowed ...T) Validator[T] {
	return func(value T) ValidationResult {
		for _, a := range allowed {
			if a == value {
				return ValidationResult{}
			}
		}
		return Fail(field, "one_of", fmt.Sprintf("must be one of %v", allowed))
	}
}
