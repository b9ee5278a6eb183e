// Package apperr holds the error kinds services return to the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ValidationError carries one message per rejected request field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func Field(name, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{name: msg}}
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func Forbidden(msg string) *AuthorizationError {
	return &AuthorizationError{Message: msg}
}

// PreconditionError blocks an operation because of system state
// (no active period, illegal status transition).
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func Precondition(msg string) *PreconditionError {
	return &PreconditionError{Message: msg}
}

type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Status maps an error to its HTTP status and client message.
// ok is false for unexpected errors, which the caller should log.
func Status(err error) (code int, msg string, fields map[string]string, ok bool) {
	var ve *ValidationError
	var ae *AuthorizationError
	var pe *PreconditionError
	var ne *NotFoundError
	var fe *fiber.Error

	switch {
	case errors.As(err, &ve):
		return fiber.StatusUnprocessableEntity, "The given data was invalid.", ve.Fields, true
	case errors.As(err, &ae):
		return fiber.StatusForbidden, ae.Message, nil, true
	case errors.As(err, &pe):
		return fiber.StatusConflict, pe.Message, nil, true
	case errors.As(err, &ne):
		return fiber.StatusNotFound, ne.Error(), nil, true
	case errors.As(err, &fe):
		return fe.Code, fe.Message, nil, true
	}
	return fiber.StatusInternalServerError, "Unexpected server error", nil, false
}
