package domain

import (
	"github.com/yungbote/skillsync/internal/domain/imports"
	"github.com/yungbote/skillsync/internal/domain/jobs"
	"github.com/yungbote/skillsync/internal/domain/org"
	"github.com/yungbote/skillsync/internal/domain/people"
	"github.com/yungbote/skillsync/internal/domain/skills"
)

type SubSegment = org.SubSegment
type Project = org.Project
type Team = org.Team
type Role = org.Role

type Employee = people.Employee

type CanonicalSkill = skills.CanonicalSkill
type SkillAlias = skills.SkillAlias
type SkillEmbedding = skills.SkillEmbedding
type EmployeeSkill = skills.EmployeeSkill
type EmployeeSkillHistory = skills.EmployeeSkillHistory
type UnresolvedSkillInput = skills.UnresolvedSkillInput

type ImportJob = jobs.ImportJob

type ErrorCode = imports.ErrorCode
type ImportError = imports.ImportError
type FailureRecord = imports.FailureRecord
type ImportReport = imports.ImportReport
type EntityTotals = imports.EntityTotals
type PhaseStat = imports.PhaseStat
type CreatedEntity = imports.CreatedEntity
type ResolutionStats = imports.ResolutionStats

const (
	CodeMissingSubSegment   = imports.CodeMissingSubSegment
	CodeMissingProject      = imports.CodeMissingProject
	CodeMissingTeam         = imports.CodeMissingTeam
	CodeMissingRole         = imports.CodeMissingRole
	CodeMissingReference    = imports.CodeMissingReference
	CodeDuplicateEntry      = imports.CodeDuplicateEntry
	CodeConstraintViolation = imports.CodeConstraintViolation
	CodeSkillNotResolved    = imports.CodeSkillNotResolved
	CodeSkillNeedsReview    = imports.CodeSkillNeedsReview
	CodeBatchCommitFailed   = imports.CodeBatchCommitFailed
	CodeInvalidField        = imports.CodeInvalidField
	CodeEmployeeNotImported = imports.CodeEmployeeNotImported
	CodeEmployeeNotFound    = imports.CodeEmployeeNotFound
	CodePersistenceFailed   = imports.CodePersistenceFailed
	CodeInputUnreadable     = imports.CodeInputUnreadable
	CodeStoreUnavailable    = imports.CodeStoreUnavailable
	CodeSchemaMismatch      = imports.CodeSchemaMismatch
	CodeInternal            = imports.CodeInternal
)

const (
	MethodExact      = skills.MethodExact
	MethodAlias      = skills.MethodAlias
	MethodEmbedding  = skills.MethodEmbedding
	MethodReview     = skills.MethodReview
	MethodUnresolved = skills.MethodUnresolved
)

const (
	SheetEmployees = imports.SheetEmployees
	SheetSkills    = imports.SheetSkills

	PhasePending              = imports.PhasePending
	PhaseReadingInput         = imports.PhaseReadingInput
	PhaseValidatingMasterData = imports.PhaseValidatingMasterData
	PhaseImportingEmployees   = imports.PhaseImportingEmployees
	PhaseExpandingSkills      = imports.PhaseExpandingSkills
	PhaseImportingSkills      = imports.PhaseImportingSkills
	PhaseFinalizing           = imports.PhaseFinalizing
	PhaseCompleted            = imports.PhaseCompleted
	PhaseFailed               = imports.PhaseFailed

	ReportStatusSuccess             = imports.ReportStatusSuccess
	ReportStatusCompletedWithErrors = imports.ReportStatusCompletedWithErrors
)

const (
	JobTypeWorkbookImport = jobs.JobTypeWorkbookImport
	JobStatusPending      = jobs.StatusPending
	JobStatusRunning      = jobs.StatusRunning
	JobStatusCompleted    = jobs.StatusCompleted
	JobStatusFailed       = jobs.StatusFailed
)

var (
	NewError      = imports.NewError
	Wrap          = imports.Wrap
	IsCode        = imports.IsCode
	CodeOf        = imports.CodeOf
	MessageOf     = imports.MessageOf
	IsTerminalJob = jobs.IsTerminal
)

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&SubSegment{},
		&Project{},
		&Team{},
		&Role{},
		&Employee{},
		&CanonicalSkill{},
		&SkillAlias{},
		&SkillEmbedding{},
		&EmployeeSkill{},
		&EmployeeSkillHistory{},
		&UnresolvedSkillInput{},
		&ImportJob{},
	}
}
