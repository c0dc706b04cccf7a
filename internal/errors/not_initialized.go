package errors

import "net/http"

var ErrNotInitialized = &Exception{
	Message:    "task hub is not initialized",
	StatusCode: http.StatusInternalServerError,
}
