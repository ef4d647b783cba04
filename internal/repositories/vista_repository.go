package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "techtrack.com/techtrack/internal/errors"
	model "techtrack.com/techtrack/internal/models"
)

type VistaRepository struct {
	db *gorm.DB
}

func NewVistaRepository(db *gorm.DB) *VistaRepository {
	return &VistaRepository{db: db}
}

// Save upserts a named vista for (user, entity type). When isDefault is
// set, the default flag moves in one transaction: a bulk unset scoped by
// the owner pair, then the upsert. Two concurrent default-setting requests
// therefore never leave two defaults visible.
func (r *VistaRepository) Save(ctx context.Context, userID, entityType, name, params string, isDefault bool) (*model.Vista, error) {
	var saved model.Vista

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isDefault {
			err := tx.Model(&model.Vista{}).
				Where("user_id = ? AND entity_type = ?", userID, entityType).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
		}

		err := tx.
			Where("user_id = ? AND entity_type = ? AND name = ?", userID, entityType, name).
			First(&saved).Error
		switch {
		case err == nil:
			return tx.Model(&saved).Updates(map[string]interface{}{
				"params":     params,
				"is_default": isDefault,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = model.Vista{
				ID:         uuid.NewString(),
				UserID:     userID,
				EntityType: entityType,
				Name:       name,
				IsDefault:  isDefault,
				Params:     params,
			}
			return tx.Create(&saved).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *VistaRepository) Load(ctx context.Context, userID, entityType, name string) (*model.Vista, error) {
	var v model.Vista
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND name = ?", userID, entityType, name).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrVistaNotFound
		}
		return nil, err
	}
	return &v, nil
}

// LoadDefault returns the user's default vista, or nil when none is set.
func (r *VistaRepository) LoadDefault(ctx context.Context, userID, entityType string) (*model.Vista, error) {
	var v model.Vista
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND is_default = ?", userID, entityType, true).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// Delete removes a named vista. Deleting a vista that does not exist is
// not an error.
func (r *VistaRepository) Delete(ctx context.Context, userID, entityType, name string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND name = ?", userID, entityType, name).
		Delete(&model.Vista{}).Error
}

func (r *VistaRepository) List(ctx context.Context, userID, entityType string) ([]model.Vista, error) {
	var vistas []model.Vista
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ?", userID, entityType).
		Order("name asc").
		Find(&vistas).Error
	return vistas, err
}
