package errors

import "net/http"

var ErrUnsafeTableName = &Exception{
	Message:    "table name contains unsafe characters",
	StatusCode: http.StatusInternalServerError,
}
