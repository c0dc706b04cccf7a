package errors

import "net/http"

var ErrTaskNotDeleted = &Exception{
	Message:    "task is not deleted",
	StatusCode: http.StatusConflict,
}
