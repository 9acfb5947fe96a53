package people

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is keyed externally by BusinessKey; ID is the internal surrogate.
type Employee struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessKey     string     `gorm:"column:business_key;not null;uniqueIndex" json:"business_key"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	TeamID          uuid.UUID  `gorm:"type:uuid;column:team_id;not null;index" json:"team_id"`
	RoleID          *uuid.UUID `gorm:"type:uuid;column:role_id;index" json:"role_id,omitempty"`
	StartDate       *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	Email           *string    `gorm:"column:email" json:"email,omitempty"`
	LastImportJobID *uuid.UUID `gorm:"type:uuid;column:last_import_job_id;index" json:"last_import_job_id,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string { return "employee" }

func (e *Employee) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
