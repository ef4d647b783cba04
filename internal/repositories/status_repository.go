package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "techtrack.com/techtrack/internal/models"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) List(ctx context.Context) ([]model.Status, error) {
	var statuses []model.Status
	err := r.db.WithContext(ctx).
		Order("list_position asc, name asc").
		Find(&statuses).Error
	return statuses, err
}

// Default resolves the status flagged as the system default, or nil when
// none is flagged. Creation workflows call this explicitly; new projects
// simply keep an unset status when it returns nil.
func (r *StatusRepository) Default(ctx context.Context) (*model.Status, error) {
	var status model.Status
	err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// ActiveIDs lists the statuses counting toward open work, for the built-in
// default list view.
func (r *StatusRepository) ActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Status{}).
		Where("is_active = ?", true).
		Order("list_position asc, name asc").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *StatusRepository) Create(ctx context.Context, status *model.Status) error {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(status).Error
}
