package errors

import (
	"regexp"
)

// Patterns redacted from client-facing messages
var sensitivePatterns = []*regexp.Regexp{
	// File paths (Unix and Windows)
	regexp.MustCompile(`(?i)(/home/[^\s:]+|/Users/[^\s:]+|/root/[^\s:]+|/etc/[^\s:]+|/var/[^\s:]+|/tmp/[^\s:]+)`),
	regexp.MustCompile(`(?i)([A-Z]:\\[^\s:]+)`),

	// Credentials in URLs, DSNs or query strings
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api[_-]?key|apiKey|token|bearer)[=:]["']?[^\s"'&]+`),
	regexp.MustCompile(`(?i)(postgres(ql)?|redis|tcp|ssl|mqtt)://[^\s]+`),

	// Email addresses
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),

	// Phone numbers: international with a leading +, grouped local numbers
	// such as 555-123-4567 or 98765 43210, and bare 10-digit mobiles.
	// Contact ids, dates and coordinates do not match.
	regexp.MustCompile(`\+\d[\d\s().-]{6,}\d`),
	regexp.MustCompile(`\(?\b\d{3,5}\)?[\s-]\d{3,5}(?:[\s-]\d{3,5})?\b`),
	regexp.MustCompile(`\b\d{10}\b`),
}

// SanitizeError removes personal and secret data from an error message
// for display to clients. Internal logging should use the original error.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString removes personal and secret data from a string
func SanitizeString(s string) string {
	result := s
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// SafeError wraps an error with a sanitized message for client-facing use
// while preserving the original error for internal logging
type SafeError struct {
	Original error
	Message  string
}

func (e *SafeError) Error() string {
	return e.Message
}

func (e *SafeError) Unwrap() error {
	return e.Original
}

// NewSafeError creates a client-safe error from an internal error
func NewSafeError(err error) *SafeError {
	if err == nil {
		return nil
	}
	return &SafeError{
		Original: err,
		Message:  SanitizeString(err.Error()),
	}
}

// GenericError returns a generic error message suitable for clients
// when the actual error should not be exposed
func GenericError(operation string) string {
	if operation == "" {
		return "An error occurred. Please try again."
	}
	return "An error occurred during " + operation + ". Please try again."
}
