package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "techtrack.com/techtrack/internal/errors"
	model "techtrack.com/techtrack/internal/models"
	"techtrack.com/techtrack/internal/vista"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FieldChange is one history entry to record alongside a save. Old is nil
// when the field had no prior bound value.
type FieldChange struct {
	Field string
	Old   *string
	New   string
}

// CreateWithNotes persists a new project and its nested notes as one
// transaction.
func (r *ProjectRepository) CreateWithNotes(ctx context.Context, project *model.Project, notes []model.ProjectNote) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Begin.IsZero() {
		project.Begin = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		for i := range notes {
			notes[i].ProjectID = project.ID
			if err := createNote(tx, &notes[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateWithHistory saves the project, inserts new nested notes, and
// appends one history row per changed field, all in a single transaction.
// The history rows keep the order the changes were discovered in; a
// failure partway rolls back the whole save, never leaving a partial
// audit trail.
func (r *ProjectRepository) UpdateWithHistory(
	ctx context.Context,
	project *model.Project,
	notes []model.ProjectNote,
	changes []FieldChange,
	userID *string,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}

		for i := range notes {
			notes[i].ProjectID = project.ID
			if err := createNote(tx, &notes[i]); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		for _, change := range changes {
			record := model.History{
				ID:        uuid.NewString(),
				When:      now,
				ModelName: "project",
				ObjectID:  project.ID,
				FieldName: change.Field,
				OldValue:  change.Old,
				NewValue:  change.New,
				UserID:    userID,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddNote persists a standalone note against an existing project.
func (r *ProjectRepository) AddNote(ctx context.Context, note *model.ProjectNote) error {
	return createNote(r.db.WithContext(ctx), note)
}

func createNote(tx *gorm.DB, note *model.ProjectNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.When.IsZero() {
		note.When = time.Now().UTC()
	}
	return tx.Omit(clause.Associations).Create(note).Error
}

// FindByID loads a project with its references and notes. Notes come back
// newest first; only notes flagged current are included unless showAll.
// Soft-deleted projects read as not found.
func (r *ProjectRepository) FindByID(ctx context.Context, id string, showAll bool) (*model.Project, error) {
	var project model.Project

	q := r.db.WithContext(ctx).
		Preload("Technician").
		Preload("CreatedBy").
		Preload("Status").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			if !showAll {
				db = db.Where("is_current = ?", true)
			}
			return db.Order("`when` DESC")
		}).
		Where("is_deleted = ?", false)

	if err := q.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// ListVista runs a decoded view-state against the project table and
// returns the requested page plus the total match count.
func (r *ProjectRepository) ListVista(ctx context.Context, v vista.ViewState, page, pageSize int) ([]model.Project, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Project{}).Where("is_deleted = ?", false)
		return vista.Filters(q, vista.ProjectCatalog, v)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := vista.Sort(filtered(), vista.ProjectCatalog, v.OrderBy)
	q = vista.Paginate(q, page, pageSize).
		Preload("Technician").
		Preload("CreatedBy").
		Preload("Status")

	var projects []model.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// SoftDelete hides a project from the list and detail reads without
// destroying its history.
func (r *ProjectRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// ListHistory returns the audit trail of one entity, newest first.
func (r *ProjectRepository) ListHistory(ctx context.Context, modelName, objectID string) ([]model.History, error) {
	var records []model.History
	err := r.db.WithContext(ctx).
		Where("model_name = ? AND object_id = ?", modelName, objectID).
		Order("`when` DESC").
		Find(&records).Error
	return records, err
}
