package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nzoschke/cadence/internal/schedule"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by services when input is rejected. Nothing is written
// when it is returned.
type Errors struct {
	Fields []ValidationError
}

func (e *Errors) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New builds an Errors holding one field failure.
func New(field, message string) *Errors {
	return &Errors{Fields: []ValidationError{{Field: field, Message: message}}}
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Err returns nil when nothing was collected, else an *Errors.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return &Errors{Fields: c.errors}
}

func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

func ValidateOneOf(field, value string, allowed ...string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: "must be one of: " + strings.Join(allowed, ", "),
	}
}

func ValidateRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// ValidateDate accepts calendar days in YYYY-MM-DD form.
func ValidateDate(field, value string) *ValidationError {
	_, err := schedule.ParseDate(value)
	if err != nil {
		return &ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return nil
}
