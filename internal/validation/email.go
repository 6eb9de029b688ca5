package validation

import (
	"net/mail"
)

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(field, email string) *ValidationError {
	if email == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return &ValidationError{Field: field, Message: "is too long (max 254 characters)"}
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return &ValidationError{Field: field, Message: "is not a valid email address"}
	}

	return nil
}
