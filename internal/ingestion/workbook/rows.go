package workbook

import (
	"time"

	"github.com/shopspring/decimal"
	types "github.com/yungbote/skillsync/internal/domain"
)

// EmployeeRow is one parsed, validated line of the employee sheet.
type EmployeeRow struct {
	Sheet  string `json:"-"`
	Row    int    `json:"-"`
	RowRef string `json:"-"`

	BusinessKey string     `json:"business_key" validate:"required,max=64"`
	Name        string     `json:"name" validate:"required,max=256"`
	SubSegment  string     `json:"sub_segment" validate:"required"`
	Project     string     `json:"project" validate:"required"`
	Team        string     `json:"team" validate:"required"`
	Role        string     `json:"role"`
	StartDate   *time.Time `json:"start_date"`
	Email       string     `json:"email" validate:"omitempty,email"`
}

// SkillRow is one parsed skill-occurrence line. After ExpandSkills each row
// carries exactly one skill.
type SkillRow struct {
	Sheet  string `json:"-"`
	Row    int    `json:"-"`
	RowRef string `json:"-"`

	BusinessKey      string              `json:"business_key" validate:"required,max=64"`
	SkillText        string              `json:"skill" validate:"required"`
	ProficiencyLabel string              `json:"proficiency"`
	ProficiencyLevel *int                `json:"-"`
	YearsExperience  decimal.NullDecimal `json:"-"`
	LastUsed         *time.Time          `json:"-"`
	Certification    string              `json:"certification"`
	Interest         string              `json:"interest"`
}

// Failure builds the failure record for this row.
func (r EmployeeRow) Failure(code types.ErrorCode, msg string) types.FailureRecord {
	return types.FailureRecord{
		Sheet:       r.Sheet,
		Row:         r.Row,
		RowRef:      r.RowRef,
		BusinessKey: r.BusinessKey,
		Code:        code,
		Message:     msg,
	}
}

func (r SkillRow) Failure(code types.ErrorCode, msg string) types.FailureRecord {
	return types.FailureRecord{
		Sheet:       r.Sheet,
		Row:         r.Row,
		RowRef:      r.RowRef,
		BusinessKey: r.BusinessKey,
		SkillText:   r.SkillText,
		Code:        code,
		Message:     msg,
	}
}

// Batch is everything read from one workbook.
type Batch struct {
	EmployeeSheet string
	SkillSheet    string
	Employees     []EmployeeRow
	Skills        []SkillRow
	// Failures holds rows dropped at parse time.
	Failures []types.FailureRecord
}
