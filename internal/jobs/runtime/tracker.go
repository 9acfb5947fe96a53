package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	jobsrepo "github.com/yungbote/skillsync/internal/data/repos/jobs"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

const DefaultInterval = 2 * time.Second

var terminalStatuses = []string{types.JobStatusCompleted, types.JobStatusFailed}

// Notifier receives every job change the Tracker persists.
type Notifier interface {
	JobProgress(ctx context.Context, job *types.ImportJob)
	JobDone(ctx context.Context, job *types.ImportJob)
	JobFailed(ctx context.Context, job *types.ImportJob)
}

type Counts struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Update is a non-terminal job change. An empty Status keeps the current one.
type Update struct {
	Status   string
	Phase    string
	Progress int
	Message  string
	Counts   Counts
}

type CreateInput struct {
	ID       *uuid.UUID
	FileName string
	Actor    string
}

/*
Tracker is the only writer of import_job rows.
Invariants:
  - progress never moves backwards
  - completed and failed jobs accept no further writes (guarded in SQL, so a
    job finished by another process is respected too)
  - Update writes only when the status or phase changed, the progress decile
    changed, or the interval elapsed since the last write
*/
type Tracker struct {
	repo     jobsrepo.ImportJobRepo
	notify   Notifier
	metrics  *observability.Metrics
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu   sync.Mutex
	jobs map[uuid.UUID]*tracked
}

type tracked struct {
	job       types.ImportJob
	lastWrite time.Time
}

func NewTracker(repo jobsrepo.ImportJobRepo, notify Notifier, metrics *observability.Metrics, interval time.Duration, baseLog *logger.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		repo:     repo,
		notify:   notify,
		metrics:  metrics,
		interval: interval,
		log:      baseLog.With("service", "JobTracker"),
		now:      time.Now,
		jobs:     map[uuid.UUID]*tracked{},
	}
}

// Create inserts a pending job. A caller-supplied id that already names a
// live job adopts that row instead.
func (t *Tracker) Create(ctx context.Context, in CreateInput) (*types.ImportJob, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if in.ID != nil && *in.ID != uuid.Nil {
		existing, err := t.repo.GetByID(dbc, *in.ID)
		if err != nil {
			return nil, txn.MapError("job.create", err)
		}
		if existing != nil {
			if types.IsTerminalJob(existing.Status) {
				return nil, types.NewError(types.CodeInternal, "job.create",
					fmt.Sprintf("job %s already finished with status %s", existing.ID, existing.Status), nil)
			}
			t.remember(existing)
			return existing, nil
		}
	}

	job := &types.ImportJob{
		JobType:  types.JobTypeWorkbookImport,
		Status:   types.JobStatusPending,
		Phase:    types.PhasePending,
		FileName: strings.TrimSpace(in.FileName),
		Actor:    strings.TrimSpace(in.Actor),
	}
	if in.ID != nil {
		job.ID = *in.ID
	}
	if err := t.repo.Create(dbc, job); err != nil {
		return nil, txn.MapError("job.create", err)
	}
	t.remember(job)
	t.metrics.IncJob(types.JobStatusPending)
	t.log.Info("import job created", "job_id", job.ID, "file", job.FileName)
	return job, nil
}

func (t *Tracker) remember(job *types.ImportJob) {
	t.mu.Lock()
	t.jobs[job.ID] = &tracked{job: *job, lastWrite: t.now()}
	t.mu.Unlock()
}

func (t *Tracker) load(ctx context.Context, id uuid.UUID) (*tracked, error) {
	if tj, ok := t.jobs[id]; ok {
		return tj, nil
	}
	job, err := t.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, txn.MapError("job.load", err)
	}
	if job == nil {
		return nil, types.NewError(types.CodeMissingReference, "job.load", fmt.Sprintf("job %s not found", id), nil)
	}
	tj := &tracked{job: *job}
	t.jobs[id] = tj
	return tj, nil
}

// Update applies u and reports whether it was persisted. Dropped updates
// (throttled, identical, or for a finished job) return false with no error.
func (t *Tracker) Update(ctx context.Context, id uuid.UUID, u Update) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tj, err := t.load(ctx, id)
	if err != nil {
		return false, err
	}
	cur := tj.job
	if types.IsTerminalJob(cur.Status) {
		return false, nil
	}

	next := cur
	if u.Status != "" {
		next.Status = u.Status
	}
	if u.Phase != "" {
		next.Phase = u.Phase
	}
	next.Progress = clampProgress(max(u.Progress, cur.Progress))
	next.Message = u.Message
	next.TotalRows = u.Counts.Total
	next.ProcessedRows = u.Counts.Processed
	next.SucceededRows = u.Counts.Succeeded
	next.FailedRows = u.Counts.Failed

	if sameProgress(cur, next) {
		return false, nil
	}
	now := t.now()
	due := next.Status != cur.Status ||
		next.Phase != cur.Phase ||
		next.Progress/10 != cur.Progress/10 ||
		now.Sub(tj.lastWrite) >= t.interval
	if !due {
		return false, nil
	}

	updates := map[string]interface{}{
		"status":         next.Status,
		"phase":          next.Phase,
		"progress":       next.Progress,
		"message":        next.Message,
		"total_rows":     next.TotalRows,
		"processed_rows": next.ProcessedRows,
		"succeeded_rows": next.SucceededRows,
		"failed_rows":    next.FailedRows,
		"updated_at":     now,
	}
	if next.Status == types.JobStatusRunning && cur.StartedAt == nil {
		updates["started_at"] = now
		next.StartedAt = &now
	}
	ok, err := t.repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, id, terminalStatuses, updates)
	if err != nil {
		return false, txn.MapError("job.update", err)
	}
	if !ok {
		// Finished elsewhere; forget it so the next call reloads.
		delete(t.jobs, id)
		return false, nil
	}
	next.UpdatedAt = now
	tj.job = next
	tj.lastWrite = now
	if next.Status != cur.Status {
		t.metrics.IncJob(next.Status)
	}

	if t.notify != nil {
		snapshot := next
		t.notify.JobProgress(ctx, &snapshot)
	}
	return true, nil
}

// Complete marks the job completed and stores result as its JSON payload.
func (t *Tracker) Complete(ctx context.Context, id uuid.UUID, counts Counts, message string, result any) error {
	var raw datatypes.JSON
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return types.NewError(types.CodeInternal, "job.complete", "encode job result", err)
		}
		raw = datatypes.JSON(b)
	}
	return t.finish(ctx, id, types.JobStatusCompleted, types.PhaseCompleted, counts, map[string]interface{}{
		"message": message,
		"error":   "",
		"result":  raw,
	})
}

// Fail marks the job failed. phase is where it stopped and goes into the message.
func (t *Tracker) Fail(ctx context.Context, id uuid.UUID, phase string, counts Counts, errMsg string) error {
	return t.finish(ctx, id, types.JobStatusFailed, types.PhaseFailed, counts, map[string]interface{}{
		"message": "failed during " + phase,
		"error":   errMsg,
	})
}

func (t *Tracker) finish(ctx context.Context, id uuid.UUID, status, phase string, counts Counts, extra map[string]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tj, err := t.load(ctx, id)
	if err != nil {
		return err
	}
	if types.IsTerminalJob(tj.job.Status) {
		return nil
	}
	now := t.now()
	updates := map[string]interface{}{
		"status":         status,
		"phase":          phase,
		"total_rows":     counts.Total,
		"processed_rows": counts.Processed,
		"succeeded_rows": counts.Succeeded,
		"failed_rows":    counts.Failed,
		"completed_at":   now,
		"updated_at":     now,
	}
	if status == types.JobStatusCompleted {
		updates["progress"] = 100
	}
	for k, v := range extra {
		updates[k] = v
	}
	ok, err := t.repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, id, terminalStatuses, updates)
	if err != nil {
		return txn.MapError("job.finish", err)
	}
	delete(t.jobs, id)
	if !ok {
		return nil
	}
	t.metrics.IncJob(status)

	job, err := t.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil || job == nil {
		t.log.Warn("finished job not reloaded", "job_id", id, "error", err)
		return nil
	}
	t.log.Info("import job finished", "job_id", id, "status", status, "failed_rows", counts.Failed)
	if t.notify != nil {
		if status == types.JobStatusCompleted {
			t.notify.JobDone(ctx, job)
		} else {
			t.notify.JobFailed(ctx, job)
		}
	}
	return nil
}

// Get reads the stored job; nil, nil for an unknown id.
func (t *Tracker) Get(ctx context.Context, id uuid.UUID) (*types.ImportJob, error) {
	job, err := t.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, txn.MapError("job.get", err)
	}
	return job, nil
}

func (t *Tracker) Recent(ctx context.Context, limit int) ([]*types.ImportJob, error) {
	jobs, err := t.repo.ListRecent(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, txn.MapError("job.recent", err)
	}
	return jobs, nil
}

func sameProgress(a, b types.ImportJob) bool {
	return a.Status == b.Status && a.Phase == b.Phase && a.Progress == b.Progress &&
		a.Message == b.Message && a.TotalRows == b.TotalRows && a.ProcessedRows == b.ProcessedRows &&
		a.SucceededRows == b.SucceededRows && a.FailedRows == b.FailedRows
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
