// Package apperr defines the error kinds shared by handlers and the provider
// client. Handlers map them to status codes; provider internals never reach
// the response body, only Message(err).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrProviderUnavailable is returned when the auth/storage provider is not configured.
	ErrProviderUnavailable = errors.New("auth/storage provider not configured")
)

// ValidationError carries field-level detail for a rejected payload.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// Invalid builds a ValidationError from a validator result. Non-validator
// errors (e.g. JSON decoding) are recorded under the "body" field.
func Invalid(message string, err error) *ValidationError {
	ve := &ValidationError{Message: message, Fields: map[string]string{}}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			ve.Fields[fe.Namespace()] = fe.Tag()
		}
		return ve
	}
	if err != nil {
		ve.Fields["body"] = err.Error()
	}
	return ve
}

// ProviderError is a failed call to the auth/storage provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.Status, e.Message)
}

// BadInput reports whether the provider rejected the request itself, as
// opposed to failing for infrastructure reasons.
func (e *ProviderError) BadInput() bool {
	return e.Status >= 400 && e.Status < 500
}

// Message returns the text that may be shown to an end user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "Något gick fel. Försök igen."
}

// Status maps an error to the HTTP status used by JSON endpoints.
func Status(err error) int {
	var ve *ValidationError
	var pe *ProviderError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &pe) && pe.BadInput():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
