package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/skillsync/internal/data/txn"
)

// HooksRecorder keeps every txn.Execute outcome so tests can assert which
// row or batch transactions succeeded and which were conflicts.
type HooksRecorder struct {
	mu        sync.Mutex
	ops       []RecordedOp
	conflicts map[string]int
}

type RecordedOp struct {
	Op       string
	Status   string
	Duration time.Duration
}

var _ txn.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, RecordedOp{Op: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conflicts == nil {
		h.conflicts = map[string]int{}
	}
	h.conflicts[name]++
}

// Statuses lists the outcomes recorded for op, in call order.
func (h *HooksRecorder) Statuses(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.ops {
		if r.Op == op {
			out = append(out, r.Status)
		}
	}
	return out
}

func (h *HooksRecorder) Conflicts(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conflicts[op]
}
