package errors

import "net/http"

var ErrTechnicianNotFound = &Exception{
	Message:    "technician not found",
	StatusCode: http.StatusNotFound,
}
