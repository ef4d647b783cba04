package model

import (
	"strconv"
	"time"
)

// PriorityLabels maps the 1-5 priority scale to its display wording.
// 1 is the most urgent.
var PriorityLabels = map[int]string{
	1: "1) Solve a Safety Hazard or Work Stoppage",
	2: "2) Fix a Major Problem or Implement a Major Improvement",
	3: "3) Fix a Highly Important Issue or Implement an Important Solution",
	4: "4) Fix a Moderately Important Issue or Implement a Moderately Important Solution",
	5: "5) Fix a Minor Issue or Implement a Minor Improvement",
}

const DefaultPriority = 4

type Project struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	Title           string      `gorm:"size:75;not null" json:"title"`
	Description     string      `gorm:"type:text" json:"description"`
	Priority        int         `gorm:"not null;default:4" json:"priority"`
	Begin           time.Time   `json:"begin"`
	TechnicianID    *string     `gorm:"size:36;index" json:"technician_id,omitempty"`
	Technician      *Technician `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	CreatedByID     *string     `gorm:"size:36;index" json:"created_by_id,omitempty"`
	CreatedBy       *Technician `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	StatusID        *string     `gorm:"size:36;index" json:"status_id,omitempty"`
	Status          *Status     `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	CompletionNotes string      `gorm:"type:text" json:"completion_notes"`
	RecipientEmails string      `gorm:"type:text" json:"recipient_emails"`
	TimeSpent       float64     `gorm:"not null;default:0" json:"time_spent"`
	IsDeleted       bool        `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Notes []ProjectNote `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`
}

// PriorityLabel returns the display wording for the project's priority,
// falling back to the bare number for out-of-range values.
func (p *Project) PriorityLabel() string {
	if label, ok := PriorityLabels[p.Priority]; ok {
		return label
	}
	return strconv.Itoa(p.Priority)
}

type ProjectNote struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	ProjectID     string      `gorm:"size:36;not null;index" json:"project_id"`
	MainText      string      `gorm:"size:255" json:"maintext"`
	Details       string      `gorm:"type:text" json:"details"`
	SubmittedByID *string     `gorm:"size:36" json:"submitted_by_id,omitempty"`
	SubmittedBy   *Technician `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	When          time.Time   `json:"when"`
	TimeSpent     float64     `gorm:"not null;default:0" json:"time_spent"`
	IsCurrent     bool        `gorm:"not null;default:false" json:"is_current"`
	CreatedAt     time.Time   `json:"created_at"`
}
