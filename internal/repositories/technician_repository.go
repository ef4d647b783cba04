package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "techtrack.com/techtrack/internal/errors"
	model "techtrack.com/techtrack/internal/models"
)

type TechnicianRepository struct {
	db *gorm.DB
}

func NewTechnicianRepository(db *gorm.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

// GetOrCreateByUser resolves the technician row for an acting user,
// creating one on first contact the way the editing forms expect.
func (r *TechnicianRepository) GetOrCreateByUser(ctx context.Context, userID, name, email string) (*model.Technician, error) {
	var tech model.Technician

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tech).Error
	if err == nil {
		return &tech, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tech = model.Technician{
		ID:        uuid.NewString(),
		UserID:    &userID,
		Name:      name,
		Email:     email,
		IsCurrent: true,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&tech)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the first-contact race; read the winner
		if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tech).Error; err != nil {
			return nil, err
		}
	}
	return &tech, nil
}

// FindByUser reports the technician linked to a user identity, if any.
// Its existence is what makes a user a technician.
func (r *TechnicianRepository) FindByUser(ctx context.Context, userID string) (*model.Technician, error) {
	var tech model.Technician
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tech).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTechnicianNotFound
		}
		return nil, err
	}
	return &tech, nil
}

func (r *TechnicianRepository) FindByID(ctx context.Context, id string) (*model.Technician, error) {
	var tech model.Technician
	err := r.db.WithContext(ctx).First(&tech, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTechnicianNotFound
		}
		return nil, err
	}
	return &tech, nil
}

func (r *TechnicianRepository) List(ctx context.Context) ([]model.Technician, error) {
	var techs []model.Technician
	err := r.db.WithContext(ctx).Order("name asc").Find(&techs).Error
	return techs, err
}

func (r *TechnicianRepository) Create(ctx context.Context, tech *model.Technician) error {
	if tech.ID == "" {
		tech.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(tech).Error
}

func (r *TechnicianRepository) Update(ctx context.Context, tech *model.Technician) error {
	return r.db.WithContext(ctx).Save(tech).Error
}

func (r *TechnicianRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Technician{}, "id = ?", id).Error
}

// CurrentEmails lists the notification addresses of current technicians
// with a linked user identity, for the recipient pre-fill on create.
func (r *TechnicianRepository) CurrentEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&model.Technician{}).
		Where("is_current = ? AND user_id IS NOT NULL AND email <> ''", true).
		Order("name asc").
		Pluck("email", &emails).Error
	return emails, err
}
