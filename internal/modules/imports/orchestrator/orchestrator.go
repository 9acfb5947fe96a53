package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	peoplerepo "github.com/yungbote/skillsync/internal/data/repos/people"
	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
	jobrt "github.com/yungbote/skillsync/internal/jobs/runtime"
	"github.com/yungbote/skillsync/internal/modules/imports/history"
	"github.com/yungbote/skillsync/internal/modules/imports/masterdata"
	"github.com/yungbote/skillsync/internal/modules/imports/persist"
	"github.com/yungbote/skillsync/internal/modules/imports/resolver"
	"github.com/yungbote/skillsync/internal/modules/imports/unresolved"
	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

// Request names the workbook to import. Reader wins over FilePath.
type Request struct {
	FilePath string
	Reader   io.Reader
	FileName string
	JobID    *uuid.UUID
	Actor    string
	// AutoCreateMasterData enables the seeder for this run on top of Options.
	AutoCreateMasterData bool
}

type Options struct {
	Source               string
	Actor                string
	AutoCreateMasterData bool
	ProgressEvery        int
	Resolver             resolver.Options
}

type Deps struct {
	DB          *gorm.DB
	Runner      txn.Runner
	Hooks       txn.Hooks
	Reader      *workbook.Reader
	Orgs        orgrepo.OrgRepo
	Employees   peoplerepo.EmployeeRepo
	Catalog     skillsrepo.CatalogRepo
	Occurrences skillsrepo.EmployeeSkillRepo
	History     skillsrepo.HistoryRepo
	Unresolved  skillsrepo.UnresolvedRepo
	// UnresolvedFile and SinkState are process-wide and shared by every run.
	UnresolvedFile *unresolved.FileSink
	SinkState      *unresolved.SinkState
	// Backend is optional; without it resolution stops at exact and alias.
	Backend resolver.Backend
	Tracker *jobrt.Tracker
	Metrics *observability.Metrics
	Log     *logger.Logger
}

type Orchestrator struct {
	deps Deps
	opts Options
	log  *logger.Logger
}

func New(deps Deps, opts Options) *Orchestrator {
	if deps.Hooks == nil {
		deps.Hooks = txn.NoopHooks()
	}
	if deps.SinkState == nil {
		deps.SinkState = unresolved.NewSinkState()
	}
	if strings.TrimSpace(opts.Source) == "" {
		opts.Source = "workbook"
	}
	return &Orchestrator{
		deps: deps,
		opts: opts,
		log:  deps.Log.With("service", "ImportOrchestrator"),
	}
}

// run is the per-import state. Validator, resolver and persisters are built
// fresh for each run so their caches never outlive it.
type run struct {
	o      *Orchestrator
	job    *types.ImportJob
	req    Request
	report *types.ImportReport
	counts jobrt.Counts
	// current is the phase in progress, used when a panic has to be reported.
	current phase

	validator  *masterdata.Validator
	resolver   *resolver.Resolver
	unresolved *unresolved.Logger
}

// Run imports one workbook. Row-level problems end up in the report; a fatal
// problem marks the job failed and returns *ImportFailedError.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.ImportReport, error) {
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" && req.FilePath != "" {
		fileName = filepath.Base(req.FilePath)
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = o.opts.Actor
	}
	req.FileName, req.Actor = fileName, actor

	job, err := o.deps.Tracker.Create(ctx, jobrt.CreateInput{ID: req.JobID, FileName: fileName, Actor: actor})
	if err != nil {
		jobID := uuid.Nil
		if req.JobID != nil {
			jobID = *req.JobID
		}
		return nil, newFailure(jobID, types.PhasePending, err)
	}

	r := &run{
		o:       o,
		job:     job,
		req:     req,
		current: phaseReading,
		report: &types.ImportReport{
			JobID:     job.ID,
			FileName:  fileName,
			StartedAt: time.Now().UTC(),
		},
		validator: masterdata.NewValidator(o.deps.Orgs, o.deps.Log),
		resolver:  resolver.NewResolver(o.deps.Catalog, o.deps.Backend, o.opts.Resolver, o.deps.Log),
		unresolved: unresolved.NewLogger(
			o.deps.Unresolved, o.deps.DB, o.deps.UnresolvedFile, o.deps.SinkState, o.deps.Metrics, o.deps.Log,
		),
	}
	ctx, span := observability.StartImportSpan(ctx, job.ID.String(), "run", attribute.String("file_name", fileName))
	defer span.End()

	report, err := r.safeExecute(ctx)
	if err != nil {
		observability.FailSpan(span, err, "import failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("status", report.Status), attribute.Int("failures", len(report.Failures)))
	return report, nil
}

// safeExecute turns a panic anywhere in the pipeline into a failed job.
func (r *run) safeExecute(ctx context.Context) (report *types.ImportReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.o.log.Error("import panicked", "job_id", r.job.ID, "phase", r.current.name, "panic", p, "stack", string(debug.Stack()))
			report = nil
			err = r.fail(ctx, r.current, types.NewError(types.CodeInternal, "orchestrator.run", fmt.Sprintf("unexpected panic: %v", p), nil))
		}
	}()
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) (*types.ImportReport, error) {
	log := r.o.log.With("job_id", r.job.ID)
	log.Info("import started", "file", r.req.FileName, "actor", r.req.Actor)

	var batch *workbook.Batch
	if err := r.phase(ctx, phaseReading, func(ctx context.Context, st *types.PhaseStat) error {
		var err error
		if r.req.Reader != nil {
			batch, err = r.o.deps.Reader.Read(ctx, r.req.Reader)
		} else {
			batch, err = r.o.deps.Reader.ReadFile(ctx, r.req.FilePath)
		}
		if err != nil {
			return err
		}
		st.Succeeded = len(batch.Employees) + len(batch.Skills)
		st.Failed = len(batch.Failures)
		r.report.Failures = append(r.report.Failures, batch.Failures...)
		r.counts.Total = len(batch.Employees) + len(batch.Skills)
		return nil
	}); err != nil {
		return nil, r.fail(ctx, phaseReading, err)
	}

	if err := r.phase(ctx, phaseMasterData, func(ctx context.Context, st *types.PhaseStat) error {
		return r.prepare(ctx, batch, st)
	}); err != nil {
		return nil, r.fail(ctx, phaseMasterData, err)
	}

	var employees persist.EmployeeOutcome
	if err := r.phase(ctx, phaseEmployees, func(ctx context.Context, st *types.PhaseStat) error {
		p := persist.NewEmployeePersister(r.validator, r.o.deps.Employees, r.o.deps.Runner, r.o.deps.Hooks, r.o.deps.Log)
		base := r.counts
		employees = p.Persist(ctx, batch.Employees, persist.Options{
			JobID:         &r.job.ID,
			Source:        r.o.opts.Source,
			Actor:         r.req.Actor,
			ProgressEvery: r.o.opts.ProgressEvery,
			OnProgress: func(pr persist.Progress) {
				r.counts = base
				r.counts.Processed += pr.Processed
				r.counts.Succeeded += pr.Succeeded
				r.counts.Failed += pr.Failed
				r.track(ctx, phaseEmployees, phaseEmployees.at(pr.Processed, pr.Total), "")
			},
		})
		st.Succeeded = employees.Created + employees.Updated
		st.Failed = employees.Failed
		r.report.Employees.Created = employees.Created
		r.report.Employees.Updated = employees.Updated
		r.report.Failures = append(r.report.Failures, employees.Failures...)
		return employees.Err
	}); err != nil {
		return nil, r.fail(ctx, phaseEmployees, err)
	}

	var expanded []workbook.SkillRow
	_ = r.phase(ctx, phaseExpanding, func(ctx context.Context, st *types.PhaseStat) error {
		var dropped []types.FailureRecord
		expanded, dropped = workbook.ExpandSkills(batch.Skills)
		st.Succeeded = len(expanded)
		st.Failed = len(dropped)
		r.report.Failures = append(r.report.Failures, dropped...)
		r.counts.Total += len(expanded) + len(dropped) - len(batch.Skills)
		r.counts.Processed += len(dropped)
		r.counts.Failed += len(dropped)
		return nil
	})

	if err := r.phase(ctx, phaseSkills, func(ctx context.Context, st *types.PhaseStat) error {
		p := persist.NewSkillPersister(
			r.resolver, r.unresolved, r.o.deps.Employees, r.o.deps.Orgs, r.o.deps.Occurrences,
			history.NewRecorder(r.o.deps.History, r.o.deps.Log),
			r.o.deps.Runner, r.o.deps.Hooks, r.o.deps.Log,
		)
		base := r.counts
		out := p.Persist(ctx, expanded, employees, persist.Options{
			JobID:         &r.job.ID,
			Source:        r.o.opts.Source,
			Actor:         r.req.Actor,
			ProgressEvery: r.o.opts.ProgressEvery,
			OnProgress: func(pr persist.Progress) {
				r.counts = base
				r.counts.Processed += pr.Processed
				r.counts.Succeeded += pr.Succeeded
				r.counts.Failed += pr.Failed
				r.track(ctx, phaseSkills, phaseSkills.at(pr.Processed, pr.Total), "")
			},
		})
		st.Succeeded = out.Imported
		st.Failed = out.Failed
		r.report.Skills.Created = out.Created
		r.report.Skills.Updated = out.Updated
		r.report.Resolution = out.Resolution
		r.report.Failures = append(r.report.Failures, out.Failures...)
		r.recordResolution(out.Resolution)
		return out.Err
	}); err != nil {
		return nil, r.fail(ctx, phaseSkills, err)
	}

	if err := r.phase(ctx, phaseFinalizing, func(ctx context.Context, st *types.PhaseStat) error {
		r.finalize(batch, expanded)
		return r.o.deps.Tracker.Complete(ctx, r.job.ID, r.counts, completionMessage(r.report), r.report)
	}); err != nil {
		return nil, r.fail(ctx, phaseFinalizing, err)
	}

	log.Info("import finished",
		"status", r.report.Status,
		"employees_created", r.report.Employees.Created,
		"employees_updated", r.report.Employees.Updated,
		"skills_created", r.report.Skills.Created,
		"failures", len(r.report.Failures),
	)
	return r.report, nil
}

// prepare runs the master data checks and loads the skill catalog before any
// write transaction opens.
func (r *run) prepare(ctx context.Context, batch *workbook.Batch, st *types.PhaseStat) error {
	refs := make([]masterdata.Ref, 0, len(batch.Employees))
	for _, e := range batch.Employees {
		refs = append(refs, masterdata.Ref{SubSegment: e.SubSegment, Project: e.Project, Team: e.Team, Role: e.Role, RowRef: e.RowRef})
	}
	if r.o.opts.AutoCreateMasterData || r.req.AutoCreateMasterData {
		seeder := masterdata.NewSeeder(r.o.deps.Orgs, r.o.deps.Runner, r.validator, r.o.deps.Log)
		created, err := seeder.Ensure(ctx, refs)
		r.report.CreatedMasterData = append(r.report.CreatedMasterData, created...)
		if err != nil {
			return err
		}
	}
	r.o.log.Info("similarity resolution", "job_id", r.job.ID, "enabled", r.resolver.HasBackend())
	sum, err := r.validator.Scan(ctx, refs)
	if err != nil {
		return err
	}
	st.Succeeded = sum.Paths + sum.Roles - sum.Missing()
	st.Failed = sum.Missing()
	r.o.log.Info("master data scanned",
		"job_id", r.job.ID,
		"paths", sum.Paths, "roles", sum.Roles,
		"missing_sub_segments", sum.MissingSubSegments,
		"missing_projects", sum.MissingProjects,
		"missing_teams", sum.MissingTeams,
		"missing_roles", sum.MissingRoles,
	)

	if err := r.resolver.Load(ctx); err != nil {
		return types.Wrap(types.CodeStoreUnavailable, "resolver.load", err)
	}
	if w, ok := r.o.deps.Backend.(interface{ Warm(context.Context) error }); ok {
		if err := w.Warm(ctx); err != nil {
			r.o.log.Warn("similarity index not loaded; embedding matches will be skipped", "job_id", r.job.ID, "error", err)
		}
	}
	return nil
}

// phase wraps fn with the tracker transition, a span and the phase timer.
func (r *run) phase(ctx context.Context, p phase, fn func(ctx context.Context, st *types.PhaseStat) error) error {
	r.current = p
	r.track(ctx, p, p.start, "")
	ctx, span := observability.StartImportSpan(ctx, r.job.ID.String(), p.name)
	defer span.End()

	st := types.PhaseStat{Phase: p.name}
	start := time.Now()
	err := fn(ctx, &st)
	st.Duration = time.Since(start)
	r.o.deps.Metrics.ObservePhase(p.name, st.Duration)
	r.report.Phases = append(r.report.Phases, st)

	span.SetAttributes(attribute.Int("succeeded", st.Succeeded), attribute.Int("failed", st.Failed))
	if err != nil {
		observability.FailSpan(span, err, string(types.CodeOf(err)))
		return err
	}
	if p.name != phaseFinalizing.name {
		r.track(ctx, p, p.end, "")
	}
	return nil
}

func (r *run) track(ctx context.Context, p phase, progress int, msg string) {
	if _, err := r.o.deps.Tracker.Update(ctx, r.job.ID, jobrt.Update{
		Status:   types.JobStatusRunning,
		Phase:    p.name,
		Progress: progress,
		Message:  msg,
		Counts:   r.counts,
	}); err != nil {
		r.o.log.Warn("job progress not saved", "job_id", r.job.ID, "phase", p.name, "error", err)
	}
}

func (r *run) fail(ctx context.Context, p phase, err error) error {
	failure := newFailure(r.job.ID, p.name, err)
	r.o.log.Error("import failed", "job_id", r.job.ID, "phase", p.name, "code", failure.Code, "error", err)
	// The run context may be the reason we are here.
	fctx := context.WithoutCancel(ctx)
	msg := failure.Message
	if failure.Hint != "" {
		msg += " (" + failure.Hint + ")"
	}
	if terr := r.o.deps.Tracker.Fail(fctx, r.job.ID, p.name, r.counts, string(failure.Code)+": "+msg); terr != nil {
		r.o.log.Error("job not marked failed", "job_id", r.job.ID, "error", terr)
	}
	return failure
}

func (r *run) finalize(batch *workbook.Batch, expanded []workbook.SkillRow) {
	rep := r.report
	var empParse, skillParse int
	for _, f := range batch.Failures {
		if f.Sheet == batch.EmployeeSheet {
			empParse++
		} else {
			skillParse++
		}
	}
	rep.Employees.Total = len(batch.Employees) + empParse
	rep.Skills.Total = len(expanded) + skillParse
	for _, f := range rep.Failures {
		switch {
		case f.Sheet == batch.EmployeeSheet:
			rep.Employees.Failed++
		default:
			rep.Skills.Failed++
		}
		r.o.deps.Metrics.IncFailure(f.Sheet, string(f.Code))
	}
	rep.UnresolvedStoreActive = r.unresolved.StoreActive()
	r.o.deps.Metrics.SetUnresolvedStoreDisabled(!rep.UnresolvedStoreActive)

	r.o.deps.Metrics.IncRows("employee", "created", rep.Employees.Created)
	r.o.deps.Metrics.IncRows("employee", "updated", rep.Employees.Updated)
	r.o.deps.Metrics.IncRows("employee", "failed", rep.Employees.Failed)
	r.o.deps.Metrics.IncRows("skill", "created", rep.Skills.Created)
	r.o.deps.Metrics.IncRows("skill", "updated", rep.Skills.Updated)
	r.o.deps.Metrics.IncRows("skill", "failed", rep.Skills.Failed)

	rep.Status = types.ReportStatusSuccess
	if len(rep.Failures) > 0 {
		rep.Status = types.ReportStatusCompletedWithErrors
	}
	if rep.CreatedMasterData == nil {
		rep.CreatedMasterData = []types.CreatedEntity{}
	}
	if rep.Failures == nil {
		rep.Failures = []types.FailureRecord{}
	}
	rep.FinishedAt = time.Now().UTC()
	r.counts.Processed = r.counts.Total
}

func (r *run) recordResolution(s types.ResolutionStats) {
	m := r.o.deps.Metrics
	for method, n := range map[string]int{
		types.MethodExact:      s.Exact,
		types.MethodAlias:      s.Alias,
		types.MethodEmbedding:  s.Embedding,
		types.MethodReview:     s.Review,
		types.MethodUnresolved: s.Unresolved,
	} {
		m.AddResolution(method, n)
	}
}

func completionMessage(rep *types.ImportReport) string {
	if rep.Status == types.ReportStatusSuccess {
		return "import completed"
	}
	return "import completed with errors"
}
