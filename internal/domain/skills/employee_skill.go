package skills

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MethodExact      = "exact"
	MethodAlias      = "alias"
	MethodEmbedding  = "embedding"
	MethodReview     = "review"
	MethodUnresolved = "unresolved"
)

// EmployeeSkill is one skill occurrence; (employee_id, skill_id) is unique.
type EmployeeSkill struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID           uuid.UUID           `gorm:"type:uuid;column:employee_id;not null;uniqueIndex:idx_employee_skill_pair,priority:1" json:"employee_id"`
	SkillID              uuid.UUID           `gorm:"type:uuid;column:skill_id;not null;uniqueIndex:idx_employee_skill_pair,priority:2;index" json:"skill_id"`
	SourceText           string              `gorm:"column:source_text;not null;default:''" json:"source_text"`
	ProficiencyLabel     string              `gorm:"column:proficiency_label;not null;default:''" json:"proficiency_label,omitempty"`
	ProficiencyLevel     *int                `gorm:"column:proficiency_level" json:"proficiency_level,omitempty"`
	YearsExperience      decimal.NullDecimal `gorm:"column:years_experience;type:numeric" json:"years_experience"`
	LastUsed             *time.Time          `gorm:"column:last_used" json:"last_used,omitempty"`
	Certification        string              `gorm:"column:certification;not null;default:''" json:"certification,omitempty"`
	InterestLevel        string              `gorm:"column:interest_level;not null;default:''" json:"interest_level,omitempty"`
	ResolutionMethod     string              `gorm:"column:resolution_method;not null;index" json:"resolution_method"`
	ResolutionConfidence float64             `gorm:"column:resolution_confidence;not null;default:0" json:"resolution_confidence"`
	ImportJobID          *uuid.UUID          `gorm:"type:uuid;column:import_job_id;index" json:"import_job_id,omitempty"`
	CreatedAt            time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time           `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (EmployeeSkill) TableName() string { return "employee_skill" }

func (s *EmployeeSkill) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// EmployeeSkillHistory is the audit trail of occurrence changes.
type EmployeeSkillHistory struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID uuid.UUID      `gorm:"type:uuid;column:employee_id;not null;index:idx_skill_history_pair,priority:1" json:"employee_id"`
	SkillID    uuid.UUID      `gorm:"type:uuid;column:skill_id;not null;index:idx_skill_history_pair,priority:2" json:"skill_id"`
	OldState   datatypes.JSON `gorm:"column:old_state;type:jsonb" json:"old_state,omitempty"`
	NewState   datatypes.JSON `gorm:"column:new_state;type:jsonb;not null" json:"new_state"`
	Source     string         `gorm:"column:source;not null;default:''" json:"source"`
	Actor      string         `gorm:"column:actor;not null;default:''" json:"actor"`
	Reason     string         `gorm:"column:reason;not null;default:''" json:"reason"`
	BatchID    uuid.UUID      `gorm:"type:uuid;column:batch_id;not null;index" json:"batch_id"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (EmployeeSkillHistory) TableName() string { return "employee_skill_history" }

func (h *EmployeeSkillHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// UnresolvedSkillInput keeps raw skill text for manual curation.
// Method, Confidence and CandidateSkillID were added after the first release;
// older databases may not carry them.
type UnresolvedSkillInput struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RawText          string     `gorm:"column:raw_text;not null" json:"raw_text"`
	NormalizedText   string     `gorm:"column:normalized_text;not null;index" json:"normalized_text"`
	EmployeeID       *uuid.UUID `gorm:"type:uuid;column:employee_id;index" json:"employee_id,omitempty"`
	OrgUnitID        *uuid.UUID `gorm:"type:uuid;column:org_unit_id" json:"org_unit_id,omitempty"`
	ImportJobID      *uuid.UUID `gorm:"type:uuid;column:import_job_id;index" json:"import_job_id,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
	Method           *string    `gorm:"column:method" json:"method,omitempty"`
	Confidence       *float64   `gorm:"column:confidence" json:"confidence,omitempty"`
	CandidateSkillID *uuid.UUID `gorm:"type:uuid;column:candidate_skill_id" json:"candidate_skill_id,omitempty"`
}

func (UnresolvedSkillInput) TableName() string { return "unresolved_skill_input" }

func (u *UnresolvedSkillInput) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
