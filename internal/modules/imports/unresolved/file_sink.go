package unresolved

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileSink appends one JSON line per entry.
type FileSink struct {
	mu     sync.Mutex
	core   zapcore.Core
	closer io.Closer
}

// OpenFileSink opens path for appending, creating it and its directory.
func OpenFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create unresolved log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open unresolved log: %w", err)
	}
	s := NewWriterSink(f)
	s.closer = f
	return s, nil
}

func NewWriterSink(w io.Writer) *FileSink {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "event"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.LevelKey = ""
	enc.CallerKey = ""
	enc.StacktraceKey = ""
	return &FileSink{
		core: zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), zapcore.InfoLevel),
	}
}

func (s *FileSink) Write(e Entry) error {
	if s == nil {
		return nil
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	fields := []zapcore.Field{
		zap.String("raw_text", e.RawText),
		zap.String("normalized_text", e.NormalizedText),
		zap.String("method", e.Method),
	}
	if e.EmployeeID != nil {
		fields = append(fields, zap.Stringer("employee_id", e.EmployeeID))
	}
	if e.OrgUnitID != nil {
		fields = append(fields, zap.Stringer("org_unit_id", e.OrgUnitID))
	}
	if e.JobID != nil {
		fields = append(fields, zap.Stringer("job_id", e.JobID))
	}
	if e.Confidence != nil {
		fields = append(fields, zap.Float64("confidence", *e.Confidence))
	}
	if e.CandidateID != nil {
		fields = append(fields, zap.Stringer("candidate_skill_id", e.CandidateID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.core.Write(zapcore.Entry{Level: zapcore.InfoLevel, Time: at, Message: "unresolved_skill"}, fields); err != nil {
		return fmt.Errorf("write unresolved log: %w", err)
	}
	return s.core.Sync()
}

func (s *FileSink) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.core.Sync()
	return s.closer.Close()
}
