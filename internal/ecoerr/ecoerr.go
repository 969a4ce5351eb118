// Package ecoerr defines the error taxonomy shared by the repositories,
// the session manager and the report workflow, plus the mapping to HTTP
// status codes used at the handler boundary.
package ecoerr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("already exists")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidAssignment = errors.New("assignee is not a rescuer")
	ErrForbidden         = errors.New("forbidden")
	ErrStorageFull       = errors.New("storage full")
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidAssignment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrStorageFull):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
