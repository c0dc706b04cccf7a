package errors

import "net/http"

var ErrURLRequired = &Exception{
	Message:    "url is required",
	StatusCode: http.StatusBadRequest,
}
