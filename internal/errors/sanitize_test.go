package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		leaked   string
		expected string
	}{
		{
			name:   "phone number",
			input:  "sms to +91 98765 43210 failed",
			leaked: "98765",
		},
		{
			name:   "email",
			input:  "login failed for asha@example.com",
			leaked: "asha@example.com",
		},
		{
			name:   "api key in query",
			input:  "GET /v2/everything?apiKey=abc123 returned 401",
			leaked: "abc123",
		},
		{
			name:   "postgres dsn",
			input:  "dial postgres://svc:hunter2@db:5432/alerts failed",
			leaked: "hunter2",
		},
		{
			name:   "home path",
			input:  "open /home/asha/.nirbhaya/data/nirbhaya_user.json: permission denied",
			leaked: "/home/asha",
		},
		{
			name:   "grouped local number",
			input:  "call (555) 123-4567 failed",
			leaked: "123-4567",
		},
		{
			name:   "bare mobile number",
			input:  "sms to 9876543210 failed",
			leaked: "9876543210",
		},
		{
			name:     "contact id kept",
			input:    "contact 1760668800123 not found",
			expected: "contact 1760668800123 not found",
		},
		{
			name:     "date kept",
			input:    "no alerts since 2026-10-17",
			expected: "no alerts since 2026-10-17",
		},
		{
			name:     "coordinates kept",
			input:    "geocode 12.971600, 77.594600 timed out",
			expected: "geocode 12.971600, 77.594600 timed out",
		},
		{
			name:     "plain message untouched",
			input:    "sos already in progress",
			expected: "sos already in progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeString(tt.input)
			if tt.leaked != "" {
				assert.NotContains(t, got, tt.leaked)
				assert.Contains(t, got, "[REDACTED]")
			}
			if tt.expected != "" {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestSafeErrorKeepsOriginal(t *testing.T) {
	orig := fmt.Errorf("notify 555-123-4567: %w", ErrContactNotFound)
	safe := NewSafeError(orig)

	assert.NotContains(t, safe.Error(), "555-123-4567")
	assert.True(t, errors.Is(safe, ErrContactNotFound))
	assert.Nil(t, NewSafeError(nil))
	assert.Equal(t, "", SanitizeError(nil))
}

func TestGenericError(t *testing.T) {
	assert.Equal(t, "An error occurred. Please try again.", GenericError(""))
	assert.Equal(t, "An error occurred during export. Please try again.", GenericError("export"))
}
