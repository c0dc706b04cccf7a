package errors

import "net/http"

var ErrUnknownEnvironment = &Exception{
	Message:    "unknown environment",
	StatusCode: http.StatusInternalServerError,
}
