package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeCMSError   = "CMS_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeStorage    = "STORAGE_ERROR"
	CodeService    = "SERVICE_ERROR"
)

type CMSError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *CMSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CMSError) Unwrap() error {
	return e.Cause
}

func NewCMSError(message, code string, statusCode int, context map[string]any) *CMSError {
	return &CMSError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *CMSError) WithCause(cause error) *CMSError {
	e.Cause = cause
	return e
}

type APIError struct {
	*CMSError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		CMSError: &CMSError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// WithCause keeps the *APIError type so callers can chain it in a return.
func (e *APIError) WithCause(cause error) *APIError {
	e.Cause = cause
	return e
}

// AuthError is returned for any 401 response. The session has already been
// cleared by the time a caller sees it.
type AuthError struct {
	*APIError
}

func NewAuthError(message string, context map[string]any) *AuthError {
	return &AuthError{
		APIError: &APIError{
			CMSError: &CMSError{
				Message:    message,
				Code:       CodeAuth,
				StatusCode: http.StatusUnauthorized,
				Context:    context,
			},
		},
	}
}

type ValidationError struct {
	*CMSError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		CMSError: &CMSError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type StorageError struct {
	*CMSError
	Operation string
	Key       string
}

func NewStorageError(message, operation, key string, cause error) *StorageError {
	return &StorageError{
		CMSError: &CMSError{
			Message:    message,
			Code:       CodeStorage,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*CMSError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		CMSError: &CMSError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// IsAuth reports whether err carries a 401 from the API.
func IsAuth(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return stderrors.As(err, &validationErr)
}

// Base exposes the shared fields of every typed error in this package.
func (e *CMSError) Base() *CMSError {
	return e
}

type baser interface {
	Base() *CMSError
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var b baser
	if stderrors.As(err, &b) {
		return b.Base().StatusCode
	}
	return 0
}

// HumanMessage returns the text a store keeps in its error field. A server
// message anywhere in the chain wins, then the outermost typed message.
func HumanMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	first := ""
	for cur := err; cur != nil; cur = stderrors.Unwrap(cur) {
		b, ok := cur.(baser)
		if !ok {
			continue
		}
		base := b.Base()
		if msg, ok := base.Context["server_message"].(string); ok && msg != "" {
			return msg
		}
		if first == "" {
			first = base.Message
		}
	}
	if first != "" {
		return first
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
