package skills

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CanonicalSkill struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;index" json:"name"`
	Category  string    `gorm:"column:category;not null;default:''" json:"category,omitempty"`
	Active    bool      `gorm:"column:active;not null;default:true;index" json:"active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CanonicalSkill) TableName() string { return "canonical_skill" }

func (s *CanonicalSkill) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SkillAlias maps alternate text onto a CanonicalSkill.
type SkillAlias struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SkillID   uuid.UUID `gorm:"type:uuid;column:skill_id;not null;index" json:"skill_id"`
	Alias     string    `gorm:"column:alias;not null;uniqueIndex" json:"alias"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Skill *CanonicalSkill `gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SkillAlias) TableName() string { return "skill_alias" }

func (a *SkillAlias) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SkillEmbedding holds one vector per (skill, model).
type SkillEmbedding struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SkillID   uuid.UUID       `gorm:"type:uuid;column:skill_id;not null;uniqueIndex:idx_skill_embedding_skill_model,priority:1" json:"skill_id"`
	Model     string          `gorm:"column:model;not null;uniqueIndex:idx_skill_embedding_skill_model,priority:2" json:"model"`
	Dim       int             `gorm:"column:dim;not null" json:"dim"`
	Vector    pgvector.Vector `gorm:"column:vector;type:vector;not null" json:"-"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Skill *CanonicalSkill `gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SkillEmbedding) TableName() string { return "skill_embedding" }

func (e *SkillEmbedding) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
