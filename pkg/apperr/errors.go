// Package apperr defines the error taxonomy shared by the service and HTTP layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeBadRequest = "Bad Request"
	CodeForbidden  = "Unauthorized"
	CodeNotFound   = "Resource Not Found"
	CodeConflict   = "Conflict"
	CodeInternal   = "Internal Server Error"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	// Err is the underlying cause. It is logged, never sent to callers.
	Err error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

func newError(status int, code, message string, err error) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func InvalidInput(message string) *DomainError {
	if message == "" {
		message = "Invalid Data"
	}
	return newError(http.StatusBadRequest, CodeBadRequest, message, nil)
}

func NoData() *DomainError {
	return newError(http.StatusBadRequest, CodeBadRequest, "No Data Was Posted.", nil)
}

func Unauthorized() *DomainError {
	return newError(http.StatusForbidden, CodeForbidden, "Permission denied", nil)
}

func NotFound(message string) *DomainError {
	return newError(http.StatusNotFound, CodeNotFound, message, nil)
}

func RouteNotFound() *DomainError {
	return NotFound("Resource Not Found.")
}

func Conflict(message string) *DomainError {
	return newError(http.StatusConflict, CodeConflict, message, nil)
}

func Internal(err error) *DomainError {
	return newError(http.StatusInternalServerError, CodeInternal, "Internal Server Error.", err)
}

// From returns err as a DomainError, treating anything unrecognised as internal.
func From(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return Internal(err)
}

// Is reports whether err carries the given HTTP status.
func Is(err error, status int) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Status == status
}
