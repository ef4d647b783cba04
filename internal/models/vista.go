package model

import "time"

// Vista is a named, per-user, per-entity-type saved view: the url-encoded
// filter/sort/column/page-size choices for a list screen. Names are unique
// per (user, entity type); at most one vista per pair carries IsDefault.
type Vista struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_vista_owner_name" json:"user_id"`
	EntityType string    `gorm:"size:50;not null;uniqueIndex:idx_vista_owner_name" json:"entity_type"`
	Name       string    `gorm:"size:60;not null;uniqueIndex:idx_vista_owner_name" json:"name"`
	IsDefault  bool      `gorm:"not null;default:false" json:"is_default"`
	Params     string    `gorm:"type:text;not null" json:"params"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
