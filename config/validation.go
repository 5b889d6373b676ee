package config

import (
	"fmt"
)

// ValidationError is one failed configuration check.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator accumulates validation errors across chained checks.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{errors: []ValidationError{}}
}

// RequireNonEmpty checks that a string field is not empty.
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if value == "" {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "value cannot be empty",
		})
	}
	return v
}

// RequirePositive checks that an integer field is greater than 0.
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be positive, got %d", value),
		})
	}
	return v
}

// ValidateRange checks that an integer field is within [min, max].
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be between %d and %d, got %d", min, max, value),
		})
	}
	return v
}

// ValidateFloatRange checks that a float field is within [min, max].
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be between %.2f and %.2f, got %.2f", min, max, value),
		})
	}
	return v
}

// ValidateOneOf checks that a string value is one of the allowed options.
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be one of %v, got %q", allowed, value),
	})
	return v
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error combines all failures into one error, or nil if everything passed.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	msg := "configuration validation failed:\n"
	for _, e := range v.errors {
		msg += fmt.Sprintf("  - %s: %s\n", e.Field, e.Message)
	}
	return fmt.Errorf("%s", msg)
}

// Errors returns all validation errors.
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// validateSimilarityBand checks the candidate filter's band invariants:
// 0 <= low < high <= 1 and low <= target < high.
func validateSimilarityBand(v *Validator, low, high, target float64) {
	v.ValidateFloatRange("filter.similarity_low", low, 0, 1)
	v.ValidateFloatRange("filter.similarity_high", high, 0, 1)
	if low >= high {
		v.errors = append(v.errors, ValidationError{
			Field:   "filter.similarity_low",
			Message: fmt.Sprintf("must be below similarity_high, got [%.2f, %.2f)", low, high),
		})
		return
	}
	if target < low || target >= high {
		v.errors = append(v.errors, ValidationError{
			Field:   "filter.similarity_target",
			Message: fmt.Sprintf("must fall inside [%.2f, %.2f), got %.2f", low, high, target),
		})
	}
}
