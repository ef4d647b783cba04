package mailer

import "context"

// Message is one outbound notification. Body is the plain-text variant;
// HTMLBody, when set, is sent alongside it as an alternative part.
type Message struct {
	Subject  string
	Body     string
	HTMLBody string
	From     string
	To       []string
}

// Mailer delivers a message or returns the transport error. There is no
// retry policy; callers surface failures as non-fatal warnings.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
