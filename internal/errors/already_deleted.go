package errors

import "net/http"

var ErrTaskAlreadyDeleted = &Exception{
	Message:    "task is already deleted",
	StatusCode: http.StatusConflict,
}
