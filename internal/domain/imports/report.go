package imports

import (
	"time"

	"github.com/google/uuid"
)

const (
	SheetEmployees = "Employees"
	SheetSkills    = "Skills"
)

// Phases of an import job, in order.
const (
	PhasePending              = "pending"
	PhaseReadingInput         = "reading_input"
	PhaseValidatingMasterData = "validating_master_data"
	PhaseImportingEmployees   = "importing_employees"
	PhaseExpandingSkills      = "expanding_skills"
	PhaseImportingSkills      = "importing_skills"
	PhaseFinalizing           = "finalizing"
	PhaseCompleted            = "completed"
	PhaseFailed               = "failed"
)

const (
	ReportStatusSuccess             = "success"
	ReportStatusCompletedWithErrors = "completed_with_errors"
)

// FailureRecord describes one recoverable row-level failure.
type FailureRecord struct {
	Sheet       string    `json:"sheet"`
	Row         int       `json:"row"`
	RowRef      string    `json:"row_ref"`
	BusinessKey string    `json:"business_key,omitempty"`
	SkillText   string    `json:"skill_text,omitempty"`
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
}

type EntityTotals struct {
	Total   int `json:"total"`
	Created int `json:"created,omitempty"`
	Updated int `json:"updated,omitempty"`
	Failed  int `json:"failed"`
}

type PhaseStat struct {
	Phase     string        `json:"phase"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// CreatedEntity is a master-data row created during the run.
type CreatedEntity struct {
	Kind   string    `json:"kind"`
	Name   string    `json:"name"`
	Parent string    `json:"parent,omitempty"`
	ID     uuid.UUID `json:"id"`
}

type ResolutionStats struct {
	Exact      int `json:"exact"`
	Alias      int `json:"alias"`
	Embedding  int `json:"embedding"`
	Review     int `json:"review"`
	Unresolved int `json:"unresolved"`
}

type ImportReport struct {
	JobID                 uuid.UUID       `json:"job_id"`
	FileName              string          `json:"file_name,omitempty"`
	Status                string          `json:"status"`
	Employees             EntityTotals    `json:"employees"`
	Skills                EntityTotals    `json:"skills"`
	Phases                []PhaseStat     `json:"phases"`
	CreatedMasterData     []CreatedEntity `json:"created_master_data"`
	Resolution            ResolutionStats `json:"resolution"`
	UnresolvedStoreActive bool            `json:"unresolved_store_active"`
	Failures              []FailureRecord `json:"failures"`
	StartedAt             time.Time       `json:"started_at"`
	FinishedAt            time.Time       `json:"finished_at"`
}

// FailureCount returns the number of failures per code.
func (r *ImportReport) FailureCount() map[ErrorCode]int {
	out := map[ErrorCode]int{}
	if r == nil {
		return out
	}
	for _, f := range r.Failures {
		out[f.Code]++
	}
	return out
}
