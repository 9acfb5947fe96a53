package persist

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	peoplerepo "github.com/yungbote/skillsync/internal/data/repos/people"
	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
	"github.com/yungbote/skillsync/internal/modules/imports/history"
	"github.com/yungbote/skillsync/internal/modules/imports/resolver"
	"github.com/yungbote/skillsync/internal/modules/imports/unresolved"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

const historyReason = "import"

type SkillOutcome struct {
	Imported   int
	Created    int
	Updated    int
	Unchanged  int
	Failed     int
	Batches    int
	Resolution types.ResolutionStats
	Failures   []types.FailureRecord
	Err        error
}

type SkillPersister struct {
	resolver    *resolver.Resolver
	unresolved  *unresolved.Logger
	employees   peoplerepo.EmployeeRepo
	orgs        orgrepo.OrgRepo
	occurrences skillsrepo.EmployeeSkillRepo
	history     history.Recorder
	runner      txn.Runner
	hooks       txn.Hooks
	log         *logger.Logger
}

func NewSkillPersister(
	res *resolver.Resolver,
	unresolvedLog *unresolved.Logger,
	employees peoplerepo.EmployeeRepo,
	orgs orgrepo.OrgRepo,
	occurrences skillsrepo.EmployeeSkillRepo,
	recorder history.Recorder,
	runner txn.Runner,
	hooks txn.Hooks,
	baseLog *logger.Logger,
) *SkillPersister {
	return &SkillPersister{
		resolver:    res,
		unresolved:  unresolvedLog,
		employees:   employees,
		orgs:        orgs,
		occurrences: occurrences,
		history:     recorder,
		runner:      runner,
		hooks:       hooks,
		log:         baseLog.With("service", "SkillPersister"),
	}
}

type skillGroup struct {
	key  string
	rows []workbook.SkillRow
}

// pending is one row's state inside an employee batch.
type pending struct {
	row  workbook.SkillRow
	res  resolver.Resolution
	fail *types.FailureRecord
}

// Persist writes expanded skill rows one employee at a time. Each employee's
// rows share a transaction and a batch id; if that transaction does not
// commit, every row of the employee is reported BATCH_COMMIT_FAILED.
func (p *SkillPersister) Persist(ctx context.Context, rows []workbook.SkillRow, employees EmployeeOutcome, opts Options) SkillOutcome {
	var out SkillOutcome
	processed := 0
	for _, g := range groupByEmployee(rows) {
		if err := ctx.Err(); err != nil {
			out.Err = types.Wrap(types.CodeInternal, "skills.persist", err)
			return out
		}
		ref, code, err := p.employeeFor(ctx, g.key, employees)
		if err != nil {
			out.Err = err
			return out
		}
		if code != "" {
			msg := fmt.Sprintf("employee %q was not imported", g.key)
			if code == types.CodeEmployeeNotFound {
				msg = fmt.Sprintf("employee %q is not in this workbook or the store", g.key)
			}
			for _, row := range g.rows {
				out.Failures = append(out.Failures, row.Failure(code, msg))
				out.Failed++
			}
		} else if err := p.persistBatch(ctx, ref, g.rows, opts, &out); err != nil {
			out.Err = err
			return out
		}
		processed += len(g.rows)
		opts.report(Progress{Processed: processed, Total: len(rows), Succeeded: out.Imported, Failed: out.Failed}, false)
	}
	opts.report(Progress{Processed: processed, Total: len(rows), Succeeded: out.Imported, Failed: out.Failed}, true)
	p.log.Info("skills persisted",
		"imported", out.Imported, "failed", out.Failed, "batches", out.Batches,
		"exact", out.Resolution.Exact, "alias", out.Resolution.Alias, "embedding", out.Resolution.Embedding,
		"review", out.Resolution.Review, "unresolved", out.Resolution.Unresolved,
	)
	return out
}

func groupByEmployee(rows []workbook.SkillRow) []skillGroup {
	idx := map[string]int{}
	var groups []skillGroup
	for _, row := range rows {
		key := strings.TrimSpace(row.BusinessKey)
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, skillGroup{key: key})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// employeeFor returns the employee for key, or a row-level code when it
// cannot be used. The error is reserved for fatal store failures.
func (p *SkillPersister) employeeFor(ctx context.Context, key string, employees EmployeeOutcome) (EmployeeRef, types.ErrorCode, error) {
	if employees.HasFailed(key) {
		return EmployeeRef{}, types.CodeEmployeeNotImported, nil
	}
	if ref, ok := employees.Imported[key]; ok {
		return ref, "", nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	e, err := p.employees.GetByBusinessKey(dbc, key)
	if err != nil {
		return p.lookupFailed(err)
	}
	if e == nil {
		return EmployeeRef{}, types.CodeEmployeeNotFound, nil
	}
	orgUnit, err := p.orgs.SubSegmentIDForTeam(dbc, e.TeamID)
	if err != nil {
		return p.lookupFailed(err)
	}
	return EmployeeRef{ID: e.ID, TeamID: e.TeamID, OrgUnitID: orgUnit}, "", nil
}

func (p *SkillPersister) lookupFailed(err error) (EmployeeRef, types.ErrorCode, error) {
	mapped := txn.MapError("skills.employee_lookup", err)
	if types.CodeOf(mapped).Fatal() {
		return EmployeeRef{}, "", mapped
	}
	return EmployeeRef{}, types.CodeOf(mapped), nil
}

func (p *SkillPersister) persistBatch(ctx context.Context, ref EmployeeRef, rows []workbook.SkillRow, opts Options, out *SkillOutcome) error {
	// Resolve before the transaction opens: resolution reads the catalog and
	// may call the similarity backend.
	items := make([]pending, len(rows))
	for i, row := range rows {
		res, err := p.resolver.Resolve(ctx, row.SkillText)
		if err != nil {
			return types.Wrap(types.CodeStoreUnavailable, "skills.resolve", err)
		}
		items[i] = pending{row: row, res: res}
		countResolution(&out.Resolution, res.Method)
	}

	batchID := uuid.New()
	var created, updated, unchanged int
	err := txn.Execute(ctx, p.runner, p.hooks, "skills.batch", func(dbc dbctx.Context) error {
		created, updated, unchanged = 0, 0, 0
		for i := range items {
			it := &items[i]
			if !it.res.Resolved() {
				f := p.recordUnresolved(dbc, ref, it, opts)
				it.fail = &f
				continue
			}
			it.fail = nil
			c, u, err := p.upsertOccurrence(dbc, ref, *it.res.SkillID, it, opts, batchID)
			if err != nil {
				return err
			}
			created += c
			updated += u
			if c == 0 && u == 0 {
				unchanged++
			}
		}
		return nil
	})
	out.Batches++

	if err != nil {
		p.log.Warn("skill batch rolled back", "employee_id", ref.ID, "batch_id", batchID, "rows", len(items), "error", err)
		for _, it := range items {
			msg := "skill batch was not committed: " + types.MessageOf(err)
			if it.fail != nil {
				msg += fmt.Sprintf(" (row had already failed: %s: %s)", it.fail.Code, it.fail.Message)
			}
			out.Failures = append(out.Failures, it.row.Failure(types.CodeBatchCommitFailed, msg))
			out.Failed++
		}
		if types.CodeOf(err).Fatal() {
			return err
		}
		return nil
	}
	for _, it := range items {
		if it.fail != nil {
			out.Failures = append(out.Failures, *it.fail)
			out.Failed++
			continue
		}
		out.Imported++
	}
	out.Created += created
	out.Updated += updated
	out.Unchanged += unchanged
	return nil
}

func (p *SkillPersister) recordUnresolved(dbc dbctx.Context, ref EmployeeRef, it *pending, opts Options) types.FailureRecord {
	code := types.CodeSkillNotResolved
	msg := fmt.Sprintf("skill %q matches no catalog skill", it.row.SkillText)
	entry := unresolved.Entry{
		RawText:        it.row.SkillText,
		NormalizedText: it.res.Normalized,
		EmployeeID:     &ref.ID,
		OrgUnitID:      &ref.OrgUnitID,
		JobID:          opts.JobID,
		Method:         it.res.Method,
	}
	if it.res.Confidence > 0 {
		c := it.res.Confidence
		entry.Confidence = &c
	}
	if it.res.Method == types.MethodReview {
		code = types.CodeSkillNeedsReview
		entry.CandidateID = it.res.CandidateID
		msg = fmt.Sprintf("skill %q is a low-confidence match (%.2f) and needs review", it.row.SkillText, it.res.Confidence)
		if it.res.CandidateID != nil {
			msg += "; candidate " + it.res.CandidateID.String()
		}
	}
	if p.unresolved != nil {
		if err := p.unresolved.Record(dbc, entry); err != nil {
			p.log.Error("unresolved skill not logged", "row", it.row.RowRef, "error", err)
		}
	}
	return it.row.Failure(code, msg)
}

// upsertOccurrence writes the (employee, skill) occurrence and its history.
// It returns (1, 0) for a new row, (0, 1) for a changed row and (0, 0) when
// nothing changed.
func (p *SkillPersister) upsertOccurrence(dbc dbctx.Context, ref EmployeeRef, skillID uuid.UUID, it *pending, opts Options, batchID uuid.UUID) (int, int, error) {
	existing, err := p.occurrences.Get(dbc, ref.ID, skillID)
	if err != nil {
		return 0, 0, err
	}
	change := history.Change{
		EmployeeID: ref.ID,
		SkillID:    skillID,
		Source:     opts.Source,
		Actor:      opts.Actor,
		Reason:     historyReason,
		BatchID:    batchID,
	}

	if existing == nil {
		row := occurrenceFrom(ref.ID, skillID, it, opts.JobID)
		if err := p.occurrences.Create(dbc, row); err != nil {
			return 0, 0, err
		}
		change.New = history.StateOf(row)
		if err := p.history.Record(dbc, change); err != nil {
			return 0, 0, err
		}
		return 1, 0, nil
	}

	old := history.StateOf(existing)
	merged := mergeOccurrence(*existing, it)
	next := history.StateOf(&merged)
	if old.Equal(next) {
		return 0, 0, nil
	}
	updates := map[string]interface{}{
		"source_text":           merged.SourceText,
		"proficiency_label":     merged.ProficiencyLabel,
		"proficiency_level":     merged.ProficiencyLevel,
		"years_experience":      merged.YearsExperience,
		"last_used":             merged.LastUsed,
		"certification":         merged.Certification,
		"interest_level":        merged.InterestLevel,
		"resolution_method":     merged.ResolutionMethod,
		"resolution_confidence": merged.ResolutionConfidence,
	}
	if opts.JobID != nil {
		updates["import_job_id"] = *opts.JobID
	}
	if err := p.occurrences.UpdateFields(dbc, existing.ID, updates); err != nil {
		return 0, 0, err
	}
	change.Old = &old
	change.New = next
	if err := p.history.Record(dbc, change); err != nil {
		return 0, 0, err
	}
	return 0, 1, nil
}

func occurrenceFrom(employeeID, skillID uuid.UUID, it *pending, jobID *uuid.UUID) *types.EmployeeSkill {
	return &types.EmployeeSkill{
		EmployeeID:           employeeID,
		SkillID:              skillID,
		SourceText:           strings.TrimSpace(it.row.SkillText),
		ProficiencyLabel:     strings.TrimSpace(it.row.ProficiencyLabel),
		ProficiencyLevel:     it.row.ProficiencyLevel,
		YearsExperience:      it.row.YearsExperience,
		LastUsed:             it.row.LastUsed,
		Certification:        strings.TrimSpace(it.row.Certification),
		InterestLevel:        strings.TrimSpace(it.row.Interest),
		ResolutionMethod:     it.res.Method,
		ResolutionConfidence: it.res.Confidence,
		ImportJobID:          jobID,
	}
}

// mergeOccurrence overlays the non-empty incoming fields on the stored row.
func mergeOccurrence(es types.EmployeeSkill, it *pending) types.EmployeeSkill {
	if v := strings.TrimSpace(it.row.SkillText); v != "" {
		es.SourceText = v
	}
	if v := strings.TrimSpace(it.row.ProficiencyLabel); v != "" {
		es.ProficiencyLabel = v
	}
	if it.row.ProficiencyLevel != nil {
		es.ProficiencyLevel = it.row.ProficiencyLevel
	}
	if it.row.YearsExperience.Valid {
		es.YearsExperience = it.row.YearsExperience
	}
	if it.row.LastUsed != nil {
		es.LastUsed = it.row.LastUsed
	}
	if v := strings.TrimSpace(it.row.Certification); v != "" {
		es.Certification = v
	}
	if v := strings.TrimSpace(it.row.Interest); v != "" {
		es.InterestLevel = v
	}
	es.ResolutionMethod = it.res.Method
	es.ResolutionConfidence = it.res.Confidence
	return es
}

func countResolution(s *types.ResolutionStats, method string) {
	switch method {
	case types.MethodExact:
		s.Exact++
	case types.MethodAlias:
		s.Alias++
	case types.MethodEmbedding:
		s.Embedding++
	case types.MethodReview:
		s.Review++
	default:
		s.Unresolved++
	}
}
