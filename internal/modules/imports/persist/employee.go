package persist

import (
	"context"
	"strings"

	"github.com/google/uuid"

	peoplerepo "github.com/yungbote/skillsync/internal/data/repos/people"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
	"github.com/yungbote/skillsync/internal/modules/imports/masterdata"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

// EmployeeRef is what the skill phase needs about an imported employee.
type EmployeeRef struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	OrgUnitID uuid.UUID
}

type EmployeeOutcome struct {
	Created  int
	Updated  int
	Failed   int
	Imported map[string]EmployeeRef
	// FailedKeys holds business keys that have no successfully imported row.
	FailedKeys map[string]struct{}
	Failures   []types.FailureRecord
	// Err is set when a fatal store error stopped the run early.
	Err error
}

func (o EmployeeOutcome) HasFailed(key string) bool {
	_, ok := o.FailedKeys[key]
	return ok
}

type EmployeePersister struct {
	validator *masterdata.Validator
	employees peoplerepo.EmployeeRepo
	runner    txn.Runner
	hooks     txn.Hooks
	log       *logger.Logger
}

func NewEmployeePersister(
	validator *masterdata.Validator,
	employees peoplerepo.EmployeeRepo,
	runner txn.Runner,
	hooks txn.Hooks,
	baseLog *logger.Logger,
) *EmployeePersister {
	return &EmployeePersister{
		validator: validator,
		employees: employees,
		runner:    runner,
		hooks:     hooks,
		log:       baseLog.With("service", "EmployeePersister"),
	}
}

// Persist upserts each row by business key in its own transaction. A failed
// row is recorded and skipped; rows already committed stay committed.
func (p *EmployeePersister) Persist(ctx context.Context, rows []workbook.EmployeeRow, opts Options) EmployeeOutcome {
	out := EmployeeOutcome{
		Imported:   map[string]EmployeeRef{},
		FailedKeys: map[string]struct{}{},
	}
	succeeded := 0
	for i, row := range rows {
		key := strings.TrimSpace(row.BusinessKey)
		created, ref, err := p.persistOne(ctx, key, row, opts)
		if err != nil && types.CodeOf(err).Fatal() {
			out.Err = err
			p.log.Error("employee import aborted", "row", row.RowRef, "error", err)
			return out
		}
		if err != nil {
			out.Failures = append(out.Failures, row.Failure(failureCode(err), types.MessageOf(err)))
			out.Failed++
			if _, ok := out.Imported[key]; !ok {
				out.FailedKeys[key] = struct{}{}
			}
			p.log.Debug("employee row failed", "row", row.RowRef, "business_key", key, "error", err)
		} else {
			succeeded++
			if created {
				out.Created++
			} else {
				out.Updated++
			}
			out.Imported[key] = ref
			delete(out.FailedKeys, key)
		}
		opts.report(Progress{Processed: i + 1, Total: len(rows), Succeeded: succeeded, Failed: out.Failed}, i == len(rows)-1)
	}
	p.log.Info("employees persisted", "created", out.Created, "updated", out.Updated, "failed", out.Failed)
	return out
}

func (p *EmployeePersister) persistOne(ctx context.Context, key string, row workbook.EmployeeRow, opts Options) (bool, EmployeeRef, error) {
	res, err := p.validator.Validate(ctx, masterdata.Ref{
		SubSegment: row.SubSegment,
		Project:    row.Project,
		Team:       row.Team,
		Role:       row.Role,
		RowRef:     row.RowRef,
	})
	if err != nil {
		return false, EmployeeRef{}, err
	}

	created := false
	ref := EmployeeRef{TeamID: res.TeamID, OrgUnitID: res.SubSegmentID}
	err = txn.Execute(ctx, p.runner, p.hooks, "employee.upsert", func(dbc dbctx.Context) error {
		existing, err := p.employees.GetByBusinessKey(dbc, key)
		if err != nil {
			return err
		}
		if existing == nil {
			e := &types.Employee{
				BusinessKey:     key,
				Name:            strings.TrimSpace(row.Name),
				TeamID:          res.TeamID,
				RoleID:          res.RoleID,
				StartDate:       row.StartDate,
				LastImportJobID: opts.JobID,
			}
			if email := strings.TrimSpace(row.Email); email != "" {
				e.Email = &email
			}
			if err := p.employees.Create(dbc, e); err != nil {
				return err
			}
			created = true
			ref.ID = e.ID
			return nil
		}
		ref.ID = existing.ID
		return p.employees.UpdateFields(dbc, existing.ID, employeeUpdates(existing, row, res, opts.JobID))
	})
	return created, ref, err
}

// employeeUpdates lists the non-empty incoming fields that differ from the
// stored row. Blank cells never clear a stored value.
func employeeUpdates(existing *types.Employee, row workbook.EmployeeRow, res masterdata.Resolved, jobID *uuid.UUID) map[string]interface{} {
	up := map[string]interface{}{}
	if name := strings.TrimSpace(row.Name); name != "" && name != existing.Name {
		up["name"] = name
	}
	if res.TeamID != uuid.Nil && res.TeamID != existing.TeamID {
		up["team_id"] = res.TeamID
	}
	if res.RoleID != nil && (existing.RoleID == nil || *existing.RoleID != *res.RoleID) {
		up["role_id"] = *res.RoleID
	}
	if row.StartDate != nil && (existing.StartDate == nil || !existing.StartDate.Equal(*row.StartDate)) {
		up["start_date"] = *row.StartDate
	}
	if email := strings.TrimSpace(row.Email); email != "" && (existing.Email == nil || *existing.Email != email) {
		up["email"] = email
	}
	if jobID != nil {
		up["last_import_job_id"] = *jobID
	}
	return up
}

func failureCode(err error) types.ErrorCode {
	if code := types.CodeOf(err); code != "" {
		return code
	}
	return types.CodePersistenceFailed
}
