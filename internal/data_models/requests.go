package dto

import (
	"time"

	"techtrack.com/techtrack/internal/services"
)

type NoteRequest struct {
	MainText  string  `json:"maintext" form:"maintext"`
	Details   string  `json:"details" form:"details"`
	When      string  `json:"when" form:"when"`
	TimeSpent float64 `json:"time_spent" form:"time_spent"`
	IsCurrent bool    `json:"is_current" form:"is_current"`
}

type ProjectRequest struct {
	Title           string        `json:"title" form:"title"`
	Description     string        `json:"description" form:"description"`
	Priority        int           `json:"priority" form:"priority"`
	Begin           string        `json:"begin" form:"begin"`
	TechnicianID    *string       `json:"technician_id" form:"technician_id"`
	StatusID        *string       `json:"status_id" form:"status_id"`
	CompletionNotes string        `json:"completion_notes" form:"completion_notes"`
	RecipientEmails *string       `json:"recipient_emails" form:"recipient_emails"`
	TimeSpent       float64       `json:"time_spent" form:"time_spent"`
	Notes           []NoteRequest `json:"notes"`
	DonotSend       bool          `json:"donot_send" form:"donot_send"`
}

type TechnicianRequest struct {
	UserID    *string `json:"user_id" form:"user_id"`
	Name      string  `json:"name" form:"name"`
	Email     string  `json:"email" form:"email"`
	IsCurrent bool    `json:"is_current" form:"is_current"`
}

// timestampLayouts are the accepted wire formats for submitted timestamps,
// widest first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *ProjectRequest) ToInput() (services.ProjectInput, error) {
	begin, err := parseTimestamp(r.Begin)
	if err != nil {
		return services.ProjectInput{}, err
	}

	in := services.ProjectInput{
		Title:           r.Title,
		Description:     r.Description,
		Priority:        r.Priority,
		Begin:           begin,
		TechnicianID:    r.TechnicianID,
		StatusID:        r.StatusID,
		CompletionNotes: r.CompletionNotes,
		RecipientEmails: r.RecipientEmails,
		TimeSpent:       r.TimeSpent,
		SuppressEmail:   r.DonotSend,
	}

	for _, note := range r.Notes {
		noteInput, err := note.ToInput()
		if err != nil {
			return services.ProjectInput{}, err
		}
		in.Notes = append(in.Notes, noteInput)
	}

	return in, nil
}

func (r *NoteRequest) ToInput() (services.NoteInput, error) {
	when, err := parseTimestamp(r.When)
	if err != nil {
		return services.NoteInput{}, err
	}
	return services.NoteInput{
		MainText:  r.MainText,
		Details:   r.Details,
		When:      when,
		TimeSpent: r.TimeSpent,
		IsCurrent: r.IsCurrent,
	}, nil
}

func (r *TechnicianRequest) ToInput() services.TechnicianInput {
	return services.TechnicianInput{
		UserID:    r.UserID,
		Name:      r.Name,
		Email:     r.Email,
		IsCurrent: r.IsCurrent,
	}
}
