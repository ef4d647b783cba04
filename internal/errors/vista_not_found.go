package errors

import "net/http"

var ErrVistaNotFound = &Exception{
	Message:    "saved view not found",
	StatusCode: http.StatusNotFound,
}
