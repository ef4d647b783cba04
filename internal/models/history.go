package model

import "time"

// History is an append-only audit record of a single field change.
// OldValue is nil when the field had no prior bound value, e.g. on create.
type History struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	When      time.Time `gorm:"index" json:"when"`
	ModelName string    `gorm:"size:50;not null" json:"modelname"`
	ObjectID  string    `gorm:"size:36;not null;index" json:"objectid"`
	FieldName string    `gorm:"size:50;not null" json:"fieldname"`
	OldValue  *string   `gorm:"type:text" json:"old_value"`
	NewValue  string    `gorm:"type:text" json:"new_value"`
	UserID    *string   `gorm:"size:36" json:"user_id,omitempty"`
}
