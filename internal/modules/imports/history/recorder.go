package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

// SkillState is the audited shape of one skill occurrence.
type SkillState struct {
	SourceText           string              `json:"source_text"`
	ProficiencyLabel     string              `json:"proficiency_label,omitempty"`
	ProficiencyLevel     *int                `json:"proficiency_level,omitempty"`
	YearsExperience      decimal.NullDecimal `json:"years_experience"`
	LastUsed             *time.Time          `json:"last_used,omitempty"`
	Certification        string              `json:"certification,omitempty"`
	InterestLevel        string              `json:"interest_level,omitempty"`
	ResolutionMethod     string              `json:"resolution_method"`
	ResolutionConfidence float64             `json:"resolution_confidence"`
}

func StateOf(es *types.EmployeeSkill) SkillState {
	return SkillState{
		SourceText:           es.SourceText,
		ProficiencyLabel:     es.ProficiencyLabel,
		ProficiencyLevel:     es.ProficiencyLevel,
		YearsExperience:      es.YearsExperience,
		LastUsed:             es.LastUsed,
		Certification:        es.Certification,
		InterestLevel:        es.InterestLevel,
		ResolutionMethod:     es.ResolutionMethod,
		ResolutionConfidence: es.ResolutionConfidence,
	}
}

// Equal compares audited fields; decimals and times by value.
func (s SkillState) Equal(o SkillState) bool {
	if s.SourceText != o.SourceText || s.ProficiencyLabel != o.ProficiencyLabel ||
		s.Certification != o.Certification || s.InterestLevel != o.InterestLevel ||
		s.ResolutionMethod != o.ResolutionMethod || s.ResolutionConfidence != o.ResolutionConfidence {
		return false
	}
	if (s.ProficiencyLevel == nil) != (o.ProficiencyLevel == nil) ||
		(s.ProficiencyLevel != nil && *s.ProficiencyLevel != *o.ProficiencyLevel) {
		return false
	}
	if s.YearsExperience.Valid != o.YearsExperience.Valid ||
		(s.YearsExperience.Valid && !s.YearsExperience.Decimal.Equal(o.YearsExperience.Decimal)) {
		return false
	}
	if (s.LastUsed == nil) != (o.LastUsed == nil) || (s.LastUsed != nil && !s.LastUsed.Equal(*o.LastUsed)) {
		return false
	}
	return true
}

type Change struct {
	EmployeeID uuid.UUID
	SkillID    uuid.UUID
	Old        *SkillState
	New        SkillState
	Source     string
	Actor      string
	Reason     string
	BatchID    uuid.UUID
}

// Recorder is the only writer of employee_skill_history.
type Recorder interface {
	Record(dbc dbctx.Context, c Change) error
}

type recorder struct {
	repo skillsrepo.HistoryRepo
	log  *logger.Logger
}

func NewRecorder(repo skillsrepo.HistoryRepo, baseLog *logger.Logger) Recorder {
	return &recorder{repo: repo, log: baseLog.With("service", "SkillHistoryRecorder")}
}

func (r *recorder) Record(dbc dbctx.Context, c Change) error {
	if c.EmployeeID == uuid.Nil || c.SkillID == uuid.Nil || c.BatchID == uuid.Nil {
		return fmt.Errorf("history change requires employee, skill and batch ids")
	}
	newRaw, err := json.Marshal(c.New)
	if err != nil {
		return fmt.Errorf("encode new state: %w", err)
	}
	row := &types.EmployeeSkillHistory{
		EmployeeID: c.EmployeeID,
		SkillID:    c.SkillID,
		NewState:   datatypes.JSON(newRaw),
		Source:     c.Source,
		Actor:      c.Actor,
		Reason:     c.Reason,
		BatchID:    c.BatchID,
	}
	if c.Old != nil {
		oldRaw, err := json.Marshal(c.Old)
		if err != nil {
			return fmt.Errorf("encode old state: %w", err)
		}
		row.OldState = datatypes.JSON(oldRaw)
	}
	return r.repo.Create(dbc, row)
}
