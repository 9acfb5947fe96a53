package org

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubSegment is the top level of the org hierarchy (SubSegment → Project → Team).
type SubSegment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;index" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (SubSegment) TableName() string { return "sub_segment" }

func (s *SubSegment) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Project always hangs off an existing SubSegment.
type Project struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubSegmentID uuid.UUID `gorm:"type:uuid;column:sub_segment_id;not null;index" json:"sub_segment_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	SubSegment *SubSegment `gorm:"foreignKey:SubSegmentID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Team always hangs off an existing Project and is the assignment target for employees.
type Team struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Team) TableName() string { return "team" }

func (t *Team) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Role is a named designation. Aliases holds comma-joined alternate spellings.
type Role struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;index" json:"name"`
	Aliases   string    `gorm:"column:aliases;type:text;not null;default:''" json:"aliases"`
	Active    bool      `gorm:"column:active;not null;default:true;index" json:"active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Role) TableName() string { return "role" }

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AliasTokens splits Aliases into trimmed, non-empty tokens.
func (r Role) AliasTokens() []string {
	if strings.TrimSpace(r.Aliases) == "" {
		return nil
	}
	parts := strings.Split(r.Aliases, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
