package txn

import (
	"context"
	"strings"
	"time"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
)

// Hooks captures transaction-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}

func NoopHooks() Hooks { return noopHooks{} }

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewMetricsHooks creates hooks backed by prometheus metrics.
func NewMetricsHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &metricsHooks{metrics: metrics}
}

func (h *metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveTxOperation(strings.TrimSpace(name), strings.TrimSpace(status), dur)
}

func (h *metricsHooks) IncConflict(name string) {
	h.metrics.IncTxConflict(strings.TrimSpace(name))
}

// Execute runs fn through runner, maps any failure with MapError and reports
// the outcome to hooks.
func Execute(ctx context.Context, runner Runner, hooks Hooks, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	if hooks == nil {
		hooks = noopHooks{}
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "txn.write"
	}
	mapped := MapError(op, runner.InTx(ctx, fn))

	status := "success"
	if mapped != nil {
		status = string(types.CodeOf(mapped))
		if status == "" {
			status = "failure"
		}
		if types.IsCode(mapped, types.CodeDuplicateEntry) {
			hooks.IncConflict(op)
		}
	}
	hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}
