package model

import "time"

// Status is a named workflow state. IsActive statuses count toward open
// work; at most one status should carry IsDefault at a time, by convention
// of the creation workflow rather than a schema constraint.
type Status struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	ListPosition int       `gorm:"not null;default:0" json:"list_position"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsDefault    bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}
