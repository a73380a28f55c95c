package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Validator interface for request body validation
type Validator interface {
	Validate() error
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// decodeAndValidate decodes JSON body and validates it
func decodeAndValidate(r *http.Request, v Validator) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return v.Validate()
}

// decodeJSON decodes JSON body without validation
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ValidationError{Field: "body", Message: "invalid request body"}
	}
	return nil
}

// required returns an error if value is blank
func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// notBlank rejects a patch field that is present but empty
func notBlank(field string, value *string) error {
	if value != nil {
		return required(field, *value)
	}
	return nil
}

// queryInt reads a positive integer query parameter with a default
func queryInt(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ValidationError{Field: name, Message: fmt.Sprintf("%s must be a positive integer", name)}
	}
	if n > max {
		n = max
	}
	return n, nil
}
