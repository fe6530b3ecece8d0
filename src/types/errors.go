package types

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError reports missing or malformed input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid request"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, ", ")
}

type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

func NewAuthorizationError(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// ConflictError is returned when an operation would break a uniqueness or
// membership state rule.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// StatusCode maps a domain error to its HTTP status.
func StatusCode(err error) int {
	var (
		validationErr *ValidationError
		conflictErr   *ConflictError
		authErr       *AuthorizationError
		notFoundErr   *NotFoundError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &conflictErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
