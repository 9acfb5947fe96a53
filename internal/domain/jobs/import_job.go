package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobTypeWorkbookImport = "workbook_import"

	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// IsTerminal reports whether a job in this status accepts no further updates.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

type ImportJob struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobType       string         `gorm:"column:job_type;not null;index" json:"job_type"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	Phase         string         `gorm:"column:phase;not null;default:''" json:"phase"`
	Progress      int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Message       string         `gorm:"column:message;not null;default:''" json:"message,omitempty"`
	TotalRows     int            `gorm:"column:total_rows;not null;default:0" json:"total_rows"`
	ProcessedRows int            `gorm:"column:processed_rows;not null;default:0" json:"processed_rows"`
	SucceededRows int            `gorm:"column:succeeded_rows;not null;default:0" json:"succeeded_rows"`
	FailedRows    int            `gorm:"column:failed_rows;not null;default:0" json:"failed_rows"`
	Error         string         `gorm:"column:error;not null;default:''" json:"error,omitempty"`
	Result        datatypes.JSON `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	FileName      string         `gorm:"column:file_name;not null;default:''" json:"file_name,omitempty"`
	Actor         string         `gorm:"column:actor;not null;default:''" json:"actor,omitempty"`
	StartedAt     *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt   *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

func (ImportJob) TableName() string { return "import_job" }

func (j *ImportJob) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
