package bus

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/skillsync/internal/domain"
)

const (
	EventJobProgress = "job_progress"
	EventJobDone     = "job_done"
	EventJobFailed   = "job_failed"

	DefaultChannel = "import_jobs"
)

type JobCounts struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// JobEvent is the JSON payload published for every job change.
type JobEvent struct {
	Event    string    `json:"event"`
	JobID    uuid.UUID `json:"job_id"`
	Status   string    `json:"status"`
	Phase    string    `json:"phase"`
	Progress int       `json:"progress"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	Counts   JobCounts `json:"counts"`
	At       time.Time `json:"at"`
}

func eventFor(kind string, job *types.ImportJob, at time.Time) JobEvent {
	return JobEvent{
		Event:    kind,
		JobID:    job.ID,
		Status:   job.Status,
		Phase:    job.Phase,
		Progress: job.Progress,
		Message:  job.Message,
		Error:    job.Error,
		Counts: JobCounts{
			Total:     job.TotalRows,
			Processed: job.ProcessedRows,
			Succeeded: job.SucceededRows,
			Failed:    job.FailedRows,
		},
		At: at.UTC(),
	}
}
