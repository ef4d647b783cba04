package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "techtrack.com/techtrack/internal/errors"
	"techtrack.com/techtrack/internal/mailer"
	model "techtrack.com/techtrack/internal/models"
	repository "techtrack.com/techtrack/internal/repositories"
)

// mockMailer records sent messages and can be told to fail.
type mockMailer struct {
	sent []mailer.Message
	fail bool
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.fail {
		return errors.New("smtp connection refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&model.Technician{},
		&model.Status{},
		&model.Project{},
		&model.ProjectNote{},
		&model.History{},
		&model.Vista{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	return db
}

func setupProjectService(t *testing.T) (*ProjectService, *repository.ProjectRepository, *repository.StatusRepository, *mockMailer) {
	db := setupTestDB(t)
	projects := repository.NewProjectRepository(db)
	technicians := repository.NewTechnicianRepository(db)
	statuses := repository.NewStatusRepository(db)
	mail := &mockMailer{}

	svc := NewProjectService(
		projects, technicians, statuses,
		mail, zap.NewNop(), "techtrack@example.com", "http://tracker.example.com",
	)
	return svc, projects, statuses, mail
}

var testActor = Actor{UserID: "user-1", Name: "Dana Fixit", Email: "dana@example.com"}

func strPtr(s string) *string { return &s }

func TestProjectService_CreateResolvesDefaultStatus(t *testing.T) {
	svc, _, statuses, _ := setupProjectService(t)
	ctx := context.Background()

	require.NoError(t, statuses.Create(ctx, &model.Status{Name: "In progress", ListPosition: 1, IsActive: true, IsDefault: true}))
	require.NoError(t, statuses.Create(ctx, &model.Status{Name: "Completed", ListPosition: 4}))

	project, warning, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "New switch",
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)
	require.Empty(t, warning)
	require.NotNil(t, project.StatusID)
	require.Equal(t, model.DefaultPriority, project.Priority)

	loaded, err := svc.Detail(ctx, project.ID, false)
	require.NoError(t, err)
	require.Equal(t, "In progress", loaded.Status.Name)
}

func TestProjectService_CreateWithoutDefaultStatusLeavesUnset(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "No statuses yet",
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)
	require.Nil(t, project.StatusID)
}

func TestProjectService_NoHistoryOnCreate(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Fresh",
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	records, err := svc.History(ctx, project.ID)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestProjectService_HistoryCompleteness(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Old title",
		Priority:        3,
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, testActor, project.ID, ProjectInput{
		Title:           "New title",
		Priority:        1,
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	records, err := svc.History(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byField := map[string]model.History{}
	for _, record := range records {
		byField[record.FieldName] = record
	}

	title := byField["title"]
	require.NotNil(t, title.OldValue)
	require.Equal(t, "Old title", *title.OldValue)
	require.Equal(t, "New title", title.NewValue)

	priority := byField["priority"]
	require.NotNil(t, priority.OldValue)
	require.Equal(t, "3", *priority.OldValue)
	require.Equal(t, "1", priority.NewValue)
}

func TestProjectService_UnchangedFieldsProduceNoHistory(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Stable",
		Priority:        2,
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, testActor, project.ID, ProjectInput{
		Title:           "Stable",
		Priority:        2,
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	records, err := svc.History(ctx, project.ID)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestProjectService_UpdateKeepsPriorityWhenOmitted(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Pump check",
		Priority:        2,
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, testActor, project.ID, ProjectInput{
		Title:           "Pump check and seal",
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	updated, err := svc.Detail(ctx, project.ID, false)
	require.NoError(t, err)
	require.Equal(t, 2, updated.Priority)

	// only the title change lands in the audit trail
	records, err := svc.History(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "title", records[0].FieldName)
}

func TestProjectService_InvalidNoteRejectsWholeSubmission(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Before",
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, testActor, project.ID, ProjectInput{
		Title:           "After",
		RecipientEmails: strPtr("none"),
		Notes: []NoteInput{
			{MainText: "ok note"},
			{MainText: "bad note", TimeSpent: -2},
		},
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidNote)

	// all-or-nothing: the project save and the history were rejected too
	loaded, err := svc.Detail(ctx, project.ID, true)
	require.NoError(t, err)
	require.Equal(t, "Before", loaded.Title)
	require.Empty(t, loaded.Notes)

	records, err := svc.History(ctx, project.ID)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestProjectService_NotificationGating(t *testing.T) {
	svc, _, _, mail := setupProjectService(t)
	ctx := context.Background()

	// no @ anywhere: notifications disabled, no transport call
	_, warning, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Silent",
		RecipientEmails: strPtr("not-an-email"),
	})
	require.NoError(t, err)
	require.Empty(t, warning)
	require.Empty(t, mail.sent)

	_, warning, err = svc.Create(ctx, testActor, ProjectInput{
		Title:           "Loud",
		RecipientEmails: strPtr("a@b.com, c@d.com"),
	})
	require.NoError(t, err)
	require.Empty(t, warning)
	require.Len(t, mail.sent, 1)
	require.Equal(t, []string{"a@b.com", "c@d.com"}, mail.sent[0].To)
}

func TestProjectService_MailFailureIsWarningOnly(t *testing.T) {
	svc, _, _, mail := setupProjectService(t)
	mail.fail = true
	ctx := context.Background()

	project, warning, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Saved anyway",
		RecipientEmails: strPtr("a@b.com"),
	})
	require.NoError(t, err)
	require.Equal(t, MailWarning, warning)

	// the save was durable despite the transport failure
	_, err = svc.Detail(ctx, project.ID, false)
	require.NoError(t, err)
}

func TestProjectService_SuppressEmail(t *testing.T) {
	svc, _, _, mail := setupProjectService(t)
	ctx := context.Background()

	_, warning, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Quiet",
		RecipientEmails: strPtr("a@b.com"),
		SuppressEmail:   true,
	})
	require.NoError(t, err)
	require.Empty(t, warning)
	require.Empty(t, mail.sent)
}

func TestProjectService_DefaultRecipients(t *testing.T) {
	svc, _, _, _ := setupProjectService(t)
	ctx := context.Background()

	// the acting user becomes a technician on first save and is kept
	// out of the pre-fill when already present
	_, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "First contact",
		RecipientEmails: strPtr("none"),
	})
	require.NoError(t, err)

	recipients, err := svc.DefaultRecipients(ctx, testActor)
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", recipients)

	other := Actor{UserID: "user-2", Name: "Sam", Email: "sam@example.com"}
	recipients, err = svc.DefaultRecipients(ctx, other)
	require.NoError(t, err)
	require.Equal(t, "dana@example.com, sam@example.com", recipients)
}

func TestProjectService_EndToEndScenario(t *testing.T) {
	svc, _, statuses, mail := setupProjectService(t)
	ctx := context.Background()

	require.NoError(t, statuses.Create(ctx, &model.Status{Name: "In progress", ListPosition: 1, IsActive: true, IsDefault: true}))

	project, warning, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Pump Replacement",
		Priority:        2,
		RecipientEmails: strPtr("ops@example.com"),
		Notes: []NoteInput{
			{MainText: "Ordered part", IsCurrent: true},
		},
	})
	require.NoError(t, err)
	require.Empty(t, warning)

	loaded, err := svc.Detail(ctx, project.ID, false)
	require.NoError(t, err)
	require.Equal(t, "Pump Replacement", loaded.Title)
	require.Equal(t, "In progress", loaded.Status.Name)
	require.Len(t, loaded.Notes, 1)
	require.Equal(t, "Ordered part", loaded.Notes[0].MainText)
	require.NotNil(t, loaded.Notes[0].SubmittedByID)

	// history starts with the first update, not the create
	records, err := svc.History(ctx, project.ID)
	require.NoError(t, err)
	require.Empty(t, records)

	require.Len(t, mail.sent, 1)
	msg := mail.sent[0]
	require.Contains(t, msg.Subject, "Submitted")
	require.Contains(t, msg.Body, "Pump Replacement")
	require.Contains(t, msg.Body, "Ordered part")
	require.Equal(t, []string{"ops@example.com"}, msg.To)
	require.True(t, strings.Contains(msg.HTMLBody, "<a href="))
}

func TestProjectService_AddNoteNotifiesAsUpdate(t *testing.T) {
	svc, _, _, mail := setupProjectService(t)
	ctx := context.Background()

	project, _, err := svc.Create(ctx, testActor, ProjectInput{
		Title:           "Ticket",
		RecipientEmails: strPtr("ops@example.com"),
		SuppressEmail:   true,
	})
	require.NoError(t, err)

	note, warning, err := svc.AddNote(ctx, testActor, project.ID, NoteInput{
		MainText:  "Vendor called back",
		IsCurrent: true,
	}, false)
	require.NoError(t, err)
	require.Empty(t, warning)
	require.NotEmpty(t, note.ID)

	require.Len(t, mail.sent, 1)
	require.Contains(t, mail.sent[0].Subject, "Updated")
	require.Contains(t, mail.sent[0].Body, "Vendor called back")
}
