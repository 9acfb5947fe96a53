package unresolved

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

// Entry is one skill text that was not auto-resolved.
type Entry struct {
	RawText        string
	NormalizedText string
	EmployeeID     *uuid.UUID
	OrgUnitID      *uuid.UUID
	JobID          *uuid.UUID
	Method         string
	Confidence     *float64
	CandidateID    *uuid.UUID
	At             time.Time
}

// Logger writes every entry to the file sink and, while the shared SinkState
// allows it, to the unresolved_skill_input table.
type Logger struct {
	repo    skillsrepo.UnresolvedRepo
	db      *gorm.DB
	file    *FileSink
	state   *SinkState
	metrics *observability.Metrics
	log     *logger.Logger
}

func NewLogger(
	repo skillsrepo.UnresolvedRepo,
	db *gorm.DB,
	file *FileSink,
	state *SinkState,
	metrics *observability.Metrics,
	baseLog *logger.Logger,
) *Logger {
	if state == nil {
		state = NewSinkState()
	}
	return &Logger{
		repo:    repo,
		db:      db,
		file:    file,
		state:   state,
		metrics: metrics,
		log:     baseLog.With("service", "UnresolvedSkillLogger"),
	}
}

func (l *Logger) StoreActive() bool { return l.state.StoreEnabled() }

// Record inserts in a savepoint of dbc.Tx so a failed insert leaves the
// caller's transaction usable. Store errors are logged, never returned.
func (l *Logger) Record(dbc dbctx.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	fileErr := l.file.Write(e)
	if fileErr != nil {
		l.log.Error("unresolved file sink write failed", "error", fileErr)
	}

	if !l.state.StoreEnabled() || l.repo == nil {
		return fileErr
	}
	row := &types.UnresolvedSkillInput{
		RawText:          e.RawText,
		NormalizedText:   e.NormalizedText,
		EmployeeID:       e.EmployeeID,
		OrgUnitID:        e.OrgUnitID,
		ImportJobID:      e.JobID,
		CreatedAt:        e.At,
		Confidence:       e.Confidence,
		CandidateSkillID: e.CandidateID,
	}
	if e.Method != "" {
		m := e.Method
		row.Method = &m
	}
	err := txn.InSavepoint(dbc, l.db, func(sp dbctx.Context) error {
		return l.repo.Create(sp, row)
	})
	if err == nil {
		return fileErr
	}

	mapped := txn.MapError("unresolved.record", err)
	if types.IsCode(mapped, types.CodeSchemaMismatch) {
		if l.state.Disable(mapped.Error()) {
			l.metrics.SetUnresolvedStoreDisabled(true)
			l.log.Warn("unresolved store disabled, file sink only from now on", "error", mapped)
		}
		return fileErr
	}
	l.log.Warn("unresolved store insert failed", "raw_text", e.RawText, "error", mapped)
	return fileErr
}
