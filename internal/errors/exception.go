package errors

import (
	"errors"
	"net/http"
)

// Exception is an expected, branchable failure carrying the HTTP status the
// API layer should answer with. Guard failures (delete-already-deleted,
// restore-not-deleted, missing rows) are Exceptions, never panics.
type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
