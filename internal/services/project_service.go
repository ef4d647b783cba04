package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "techtrack.com/techtrack/internal/errors"
	"techtrack.com/techtrack/internal/mailer"
	model "techtrack.com/techtrack/internal/models"
	repository "techtrack.com/techtrack/internal/repositories"
)

// MailWarning is the non-fatal warning surfaced alongside a successful
// save when notification delivery fails.
const MailWarning = "There was an error sending emails."

// Actor identifies the authenticated user a request runs as. The
// permission check itself has already happened by the time a service
// method runs.
type Actor struct {
	UserID string
	Name   string
	Email  string
}

// NoteInput is one nested note submission.
type NoteInput struct {
	MainText  string
	Details   string
	When      *time.Time
	TimeSpent float64
	IsCurrent bool
}

func (n NoteInput) isBlank() bool {
	return n.MainText == "" && n.Details == "" && n.TimeSpent == 0 && !n.IsCurrent
}

// ProjectInput carries the bound form values of a project create or
// update. A nil RecipientEmails on create means "not submitted": the
// service fills in the technician pre-fill, the way the form does.
type ProjectInput struct {
	Title           string
	Description     string
	Priority        int
	Begin           *time.Time
	TechnicianID    *string
	StatusID        *string
	CompletionNotes string
	RecipientEmails *string
	TimeSpent       float64
	Notes           []NoteInput
	SuppressEmail   bool
}

type ProjectService struct {
	projects    *repository.ProjectRepository
	technicians *repository.TechnicianRepository
	statuses    *repository.StatusRepository
	mail        mailer.Mailer
	logger      *zap.Logger
	mailFrom    string
	baseURL     string
}

func NewProjectService(
	projects *repository.ProjectRepository,
	technicians *repository.TechnicianRepository,
	statuses *repository.StatusRepository,
	mail mailer.Mailer,
	logger *zap.Logger,
	mailFrom string,
	baseURL string,
) *ProjectService {
	return &ProjectService{
		projects:    projects,
		technicians: technicians,
		statuses:    statuses,
		mail:        mail,
		logger:      logger,
		mailFrom:    mailFrom,
		baseURL:     baseURL,
	}
}

// Create persists a new project with its nested notes. No history is
// recorded on create; the audit trail starts with the first update. The
// returned warning is non-empty only when notification delivery failed.
func (s *ProjectService) Create(ctx context.Context, actor Actor, in ProjectInput) (*model.Project, string, error) {
	notes, err := buildNotes(in.Notes)
	if err != nil {
		return nil, "", err
	}

	tech, err := s.technicians.GetOrCreateByUser(ctx, actor.UserID, actor.Name, actor.Email)
	if err != nil {
		return nil, "", err
	}

	project := &model.Project{
		Title:           in.Title,
		Description:     in.Description,
		Priority:        in.Priority,
		TechnicianID:    in.TechnicianID,
		CreatedByID:     &tech.ID,
		StatusID:        in.StatusID,
		CompletionNotes: in.CompletionNotes,
		TimeSpent:       in.TimeSpent,
	}
	if project.Priority == 0 {
		project.Priority = model.DefaultPriority
	}
	if in.Begin != nil {
		project.Begin = *in.Begin
	}

	// Resolve the flagged default status explicitly; when none is
	// flagged the status stays unset.
	if project.StatusID == nil {
		status, err := s.statuses.Default(ctx)
		if err != nil {
			return nil, "", err
		}
		if status != nil {
			project.StatusID = &status.ID
		}
	}

	if in.RecipientEmails != nil {
		project.RecipientEmails = *in.RecipientEmails
	} else {
		project.RecipientEmails, err = s.DefaultRecipients(ctx, actor)
		if err != nil {
			return nil, "", err
		}
	}

	for i := range notes {
		if notes[i].SubmittedByID == nil {
			notes[i].SubmittedByID = &tech.ID
		}
	}

	if err := s.projects.CreateWithNotes(ctx, project, notes); err != nil {
		return nil, "", err
	}

	warning := s.notify(ctx, project.ID, true, in.SuppressEmail)

	return project, warning, nil
}

// trackedFields is the order changed fields are discovered and recorded
// in, mirroring the editing form's field order.
var trackedFields = []string{
	"title",
	"description",
	"priority",
	"begin",
	"technician",
	"status",
	"completion_notes",
	"recipient_emails",
	"time_spent",
}

// Update saves the bound form values over an existing project, appending
// one history row per changed field in the same transaction as the save.
// An invalid nested note rejects the whole submission before anything,
// history included, is written.
func (s *ProjectService) Update(ctx context.Context, actor Actor, id string, in ProjectInput) (*model.Project, string, error) {
	notes, err := buildNotes(in.Notes)
	if err != nil {
		return nil, "", err
	}

	project, err := s.projects.FindByID(ctx, id, true)
	if err != nil {
		return nil, "", err
	}

	tech, err := s.technicians.GetOrCreateByUser(ctx, actor.UserID, actor.Name, actor.Email)
	if err != nil {
		return nil, "", err
	}

	// an omitted priority keeps the stored 1-5 value
	if in.Priority == 0 {
		in.Priority = project.Priority
	}

	changes := diffProject(project, in)
	applyInput(project, in)

	for i := range notes {
		if notes[i].SubmittedByID == nil {
			notes[i].SubmittedByID = &tech.ID
		}
	}

	if err := s.projects.UpdateWithHistory(ctx, project, notes, changes, &actor.UserID); err != nil {
		return nil, "", err
	}

	warning := s.notify(ctx, project.ID, false, in.SuppressEmail)

	return project, warning, nil
}

// AddNote appends a standalone note to a project and sends the update
// notification unless suppressed.
func (s *ProjectService) AddNote(ctx context.Context, actor Actor, projectID string, in NoteInput, suppress bool) (*model.ProjectNote, string, error) {
	if err := validateNote(in); err != nil {
		return nil, "", err
	}

	project, err := s.projects.FindByID(ctx, projectID, false)
	if err != nil {
		return nil, "", err
	}

	tech, err := s.technicians.GetOrCreateByUser(ctx, actor.UserID, actor.Name, actor.Email)
	if err != nil {
		return nil, "", err
	}

	note := &model.ProjectNote{
		ProjectID: project.ID,
		MainText:  in.MainText,
		Details:   in.Details,
		TimeSpent: in.TimeSpent,
		IsCurrent: in.IsCurrent,

		SubmittedByID: &tech.ID,
	}
	if in.When != nil {
		note.When = *in.When
	}

	if err := s.projects.AddNote(ctx, note); err != nil {
		return nil, "", err
	}

	warning := s.notify(ctx, project.ID, false, suppress)

	return note, warning, nil
}

func (s *ProjectService) Detail(ctx context.Context, id string, showAll bool) (*model.Project, error) {
	return s.projects.FindByID(ctx, id, showAll)
}

func (s *ProjectService) SoftDelete(ctx context.Context, id string) error {
	return s.projects.SoftDelete(ctx, id)
}

func (s *ProjectService) History(ctx context.Context, id string) ([]model.History, error) {
	return s.projects.ListHistory(ctx, "project", id)
}

// DefaultRecipients is the recipient pre-fill for a new project: every
// current technician with a linked user, plus the acting user when absent
// from that set.
func (s *ProjectService) DefaultRecipients(ctx context.Context, actor Actor) (string, error) {
	emails, err := s.technicians.CurrentEmails(ctx)
	if err != nil {
		return "", err
	}

	if actor.Email != "" {
		seen := false
		for _, email := range emails {
			if email == actor.Email {
				seen = true
				break
			}
		}
		if !seen {
			emails = append(emails, actor.Email)
		}
	}

	return strings.Join(emails, ", "), nil
}

// notify builds and sends the project summary email. It runs only after
// the triggering save is durable, and its failure never rolls that save
// back: the transport error is logged and reduced to a warning string.
func (s *ProjectService) notify(ctx context.Context, projectID string, isNew, suppress bool) string {
	if suppress {
		return ""
	}

	project, err := s.projects.FindByID(ctx, projectID, false)
	if err != nil {
		s.logger.Warn("notification skipped, project reload failed",
			zap.String("project_id", projectID), zap.Error(err))
		return MailWarning
	}

	// no @ anywhere means notifications are disabled for this project
	if !strings.Contains(project.RecipientEmails, "@") {
		return ""
	}

	recipients := splitRecipients(project.RecipientEmails)
	if len(recipients) == 0 {
		return ""
	}

	action := "Updated"
	if isNew {
		action = "Submitted"
	}

	msg := mailer.Message{
		Subject:  fmt.Sprintf("Tech Project %s: %s", action, project.Title),
		Body:     mailBody(project, s.projectURL(project.ID), false),
		HTMLBody: mailBody(project, s.projectURL(project.ID), true),
		From:     s.mailFrom,
		To:       recipients,
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("project notification failed",
			zap.String("project_id", project.ID),
			zap.Bool("is_new", isNew),
			zap.Error(err),
		)
		return MailWarning
	}

	return ""
}

func (s *ProjectService) projectURL(id string) string {
	return strings.TrimRight(s.baseURL, "/") + "/projects/" + id
}

func splitRecipients(raw string) []string {
	var recipients []string
	for _, entry := range strings.Split(raw, ",") {
		if email := strings.TrimSpace(entry); email != "" {
			recipients = append(recipients, email)
		}
	}
	return recipients
}

func mailBody(project *model.Project, url string, html bool) string {
	link := url
	if html {
		link = fmt.Sprintf("<a href=%q>%s</a>", url, url)
	}

	lines := []string{
		"Title: " + project.Title,
		"Urgency: " + project.PriorityLabel(),
		"Description: " + project.Description,
		"Project URL: " + link,
	}

	if len(project.Notes) > 0 {
		lines = append(lines, "Notes:")
		for _, note := range project.Notes {
			lines = append(lines, note.When.Format("2006-01-02")+": "+note.MainText)
		}
	}

	sep := "\n"
	if html {
		sep = "<br>\n"
	}
	return strings.Join(lines, sep)
}

// buildNotes validates the nested note submissions as a whole and turns
// the non-blank ones into models. All-or-nothing: one invalid note fails
// the entire submission.
func buildNotes(inputs []NoteInput) ([]model.ProjectNote, error) {
	var notes []model.ProjectNote
	for _, in := range inputs {
		if in.isBlank() {
			continue
		}
		if err := validateNote(in); err != nil {
			return nil, err
		}

		note := model.ProjectNote{
			MainText:  in.MainText,
			Details:   in.Details,
			TimeSpent: in.TimeSpent,
			IsCurrent: in.IsCurrent,
		}
		if in.When != nil {
			note.When = *in.When
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func validateNote(in NoteInput) error {
	if in.TimeSpent < 0 {
		return apperrors.ErrInvalidNote
	}
	if in.MainText == "" && in.Details == "" {
		return apperrors.ErrInvalidNote
	}
	return nil
}

// diffProject compares the stored row against the bound form values and
// reports one change per differing tracked field, in declaration order.
func diffProject(project *model.Project, in ProjectInput) []repository.FieldChange {
	var changes []repository.FieldChange

	record := func(field, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		old := oldValue
		changes = append(changes, repository.FieldChange{Field: field, Old: &old, New: newValue})
	}

	for _, field := range trackedFields {
		switch field {
		case "title":
			record(field, project.Title, in.Title)
		case "description":
			record(field, project.Description, in.Description)
		case "priority":
			record(field, strconv.Itoa(project.Priority), strconv.Itoa(in.Priority))
		case "begin":
			if in.Begin != nil {
				record(field, project.Begin.UTC().Format(time.RFC3339), in.Begin.UTC().Format(time.RFC3339))
			}
		case "technician":
			record(field, deref(project.TechnicianID), deref(in.TechnicianID))
		case "status":
			record(field, deref(project.StatusID), deref(in.StatusID))
		case "completion_notes":
			record(field, project.CompletionNotes, in.CompletionNotes)
		case "recipient_emails":
			if in.RecipientEmails != nil {
				record(field, project.RecipientEmails, *in.RecipientEmails)
			}
		case "time_spent":
			record(field, formatDecimal(project.TimeSpent), formatDecimal(in.TimeSpent))
		}
	}

	return changes
}

func applyInput(project *model.Project, in ProjectInput) {
	project.Title = in.Title
	project.Description = in.Description
	project.Priority = in.Priority
	if in.Begin != nil {
		project.Begin = *in.Begin
	}
	project.TechnicianID = in.TechnicianID
	project.StatusID = in.StatusID
	project.CompletionNotes = in.CompletionNotes
	if in.RecipientEmails != nil {
		project.RecipientEmails = *in.RecipientEmails
	}
	project.TimeSpent = in.TimeSpent
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
