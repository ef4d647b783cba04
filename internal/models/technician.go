package model

import "time"

// Technician is the staff-facing identity used for assignment, authorship
// and notification targeting. UserID links it to the external auth identity;
// a user is considered a technician when a row references them.
type Technician struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string   `gorm:"size:36;uniqueIndex" json:"user_id,omitempty"`
	Name      string    `gorm:"size:50" json:"name"`
	Email     string    `gorm:"size:254" json:"email"`
	IsCurrent bool      `gorm:"not null;default:true" json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
