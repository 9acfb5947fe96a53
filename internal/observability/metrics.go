package observability

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/skillsync/internal/platform/logger"
)

const namespace = "skillsync"

// Metrics holds the import pipeline's prometheus collectors. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	rows               *prometheus.CounterVec
	failures           *prometheus.CounterVec
	resolution         *prometheus.CounterVec
	phase              *prometheus.HistogramVec
	txOps              *prometheus.CounterVec
	txLatency          *prometheus.HistogramVec
	txConflicts        *prometheus.CounterVec
	jobs               *prometheus.CounterVec
	unresolvedDisabled prometheus.Gauge
	vectorOps          *prometheus.CounterVec
	vectorLatency      *prometheus.HistogramVec
	vectorBootstrap    *prometheus.CounterVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// NewMetrics registers the collectors on reg. A nil reg gets a private registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Workbook rows processed, by entity and outcome.",
		}, []string{"entity", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_failures_total",
			Help:      "Row-level import failures, by sheet and error code.",
		}, []string{"sheet", "code"}),
		resolution: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skill_resolution_total",
			Help:      "Skill resolutions, by method.",
		}, []string{"method"}),
		phase: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_phase_seconds",
			Help:      "Wall time spent per import phase.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"phase"}),
		txOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_operations_total",
			Help:      "Scoped transactions, by operation and status.",
		}, []string{"op", "status"}),
		txLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_operation_seconds",
			Help:      "Scoped transaction latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		txConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_conflicts_total",
			Help:      "Transactions rejected by a uniqueness conflict.",
		}, []string{"op"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_jobs_total",
			Help:      "Import jobs finished, by terminal status.",
		}, []string{"status"}),
		unresolvedDisabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unresolved_store_disabled",
			Help:      "1 once the unresolved-skill store sink has been switched off.",
		}),
		vectorOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_store_operations_total",
			Help:      "Vector store calls, by provider, operation and status.",
		}, []string{"provider", "operation", "status"}),
		vectorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vector_store_operation_seconds",
			Help:      "Vector store call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		vectorBootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_provider_bootstrap_total",
			Help:      "Vector provider selection attempts, by provider, outcome and code.",
		}, []string{"provider", "outcome", "code"}),
		registerer: reg,
	}
	for _, c := range []prometheus.Collector{
		m.rows, m.failures, m.resolution, m.phase, m.txOps, m.txLatency, m.txConflicts, m.jobs, m.unresolvedDisabled,
		m.vectorOps, m.vectorLatency, m.vectorBootstrap,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m, nil
}

func (m *Metrics) IncRows(entity, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(label(entity), label(outcome)).Add(float64(n))
}

func (m *Metrics) IncFailure(sheet, code string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(label(sheet), label(code)).Inc()
}

func (m *Metrics) IncResolution(method string) {
	m.AddResolution(method, 1)
}

func (m *Metrics) AddResolution(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.resolution.WithLabelValues(label(method)).Add(float64(n))
}

func (m *Metrics) ObservePhase(phase string, dur time.Duration) {
	if m == nil {
		return
	}
	m.phase.WithLabelValues(label(phase)).Observe(dur.Seconds())
}

func (m *Metrics) ObserveTxOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.txOps.WithLabelValues(label(op), label(status)).Inc()
	m.txLatency.WithLabelValues(label(op)).Observe(dur.Seconds())
}

func (m *Metrics) IncTxConflict(op string) {
	if m == nil {
		return
	}
	m.txConflicts.WithLabelValues(label(op)).Inc()
}

func (m *Metrics) IncJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(label(status)).Inc()
}

func (m *Metrics) SetUnresolvedStoreDisabled(disabled bool) {
	if m == nil {
		return
	}
	if disabled {
		m.unresolvedDisabled.Set(1)
		return
	}
	m.unresolvedDisabled.Set(0)
}

func (m *Metrics) ObserveVectorOp(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.WithLabelValues(label(provider), label(operation), label(status)).Inc()
	m.vectorLatency.WithLabelValues(label(provider), label(operation)).Observe(dur.Seconds())
}

func (m *Metrics) ObserveVectorBootstrap(provider, outcome, code string) {
	if m == nil {
		return
	}
	m.vectorBootstrap.WithLabelValues(label(provider), label(outcome), label(code)).Inc()
}

// RegisterDBStats exports database/sql pool stats under db_name.
func (m *Metrics) RegisterDBStats(sqlDB *sql.DB, dbName string) error {
	if m == nil || sqlDB == nil {
		return nil
	}
	err := m.registerer.Register(collectors.NewDBStatsCollector(sqlDB, label(dbName)))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
