package resolver

import (
	"errors"
	"net/http"
)

// ErrorCategory classifies a resolution failure so the HTTP layer can
// map it to a status code without inspecting error strings.
type ErrorCategory string

const (
	CategoryInvalidInput   ErrorCategory = "invalid_input"
	CategoryUnsupportedURL ErrorCategory = "unsupported_url"
	CategoryNoBackend      ErrorCategory = "no_backend_available"
	CategoryExhausted      ErrorCategory = "resolution_exhausted"
	CategoryAccessDenied   ErrorCategory = "access_denied"
	CategoryUpstream       ErrorCategory = "upstream_error"
	CategoryInternal       ErrorCategory = "internal"
)

// CategorizedError wraps an error with its failure category. Hint
// carries remediation text for the caller; Status carries an upstream
// HTTP status to mirror. Both are optional.
type CategorizedError struct {
	Category ErrorCategory
	Err      error
	Hint     string
	Status   int
}

func (e CategorizedError) Error() string {
	return e.Err.Error()
}

func (e CategorizedError) Unwrap() error {
	return e.Err
}

// WrapCategory attaches a category to err; a nil err stays nil.
func WrapCategory(category ErrorCategory, err error) error {
	if err == nil {
		return nil
	}
	return CategorizedError{Category: category, Err: err}
}

// CategoryOf returns the category of err, or CategoryInternal when err
// carries none.
func CategoryOf(err error) ErrorCategory {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryInternal
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Hint
	}
	return ""
}

// HTTPStatus maps an error to the status code the HTTP layer should
// respond with. Upstream errors mirror the upstream status when known.
func HTTPStatus(err error) int {
	var ce CategorizedError
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError
	}
	switch ce.Category {
	case CategoryInvalidInput, CategoryUnsupportedURL, CategoryNoBackend:
		return http.StatusBadRequest
	case CategoryExhausted:
		return http.StatusNotFound
	case CategoryAccessDenied:
		return http.StatusForbidden
	case CategoryUpstream:
		if ce.Status >= 400 {
			return ce.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
