package utils

import (
	"strings"
)

const MaxEmailLength = 254

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// requireText fails when value is empty or only whitespace.
func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// ValidateEmail checks the address has a single @ with text on both sides.
// Emails are stored exactly as given; no case folding is applied.
func ValidateEmail(email string) error {
	if err := requireText("email", email); err != nil {
		return err
	}
	if len(email) > MaxEmailLength {
		return &ValidationError{Field: "email", Message: "Email must be at most 254 characters"}
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return &ValidationError{Field: "email", Message: "Email must not contain whitespace"}
	}
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return &ValidationError{Field: "email", Message: "Email address is invalid"}
	}
	return nil
}
