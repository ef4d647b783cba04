package errors

import "net/http"

// ErrInvalidNote rejects a whole project submission when any nested note
// fails validation: note saves are all-or-nothing with the project save.
var ErrInvalidNote = &Exception{
	Message:    "one or more submitted notes are invalid",
	StatusCode: http.StatusBadRequest,
}
