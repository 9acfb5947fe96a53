package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/yungbote/skillsync/internal/data/db"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
	jobrt "github.com/yungbote/skillsync/internal/jobs/runtime"
	"github.com/yungbote/skillsync/internal/modules/imports/orchestrator"
	"github.com/yungbote/skillsync/internal/modules/imports/resolver"
	"github.com/yungbote/skillsync/internal/modules/imports/unresolved"
	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/logger"
	"github.com/yungbote/skillsync/internal/realtime/bus"
)

type Options struct {
	EnvFiles []string
	// SkipVector leaves the similarity stack unbuilt, for commands that
	// never resolve skills.
	SkipVector bool
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Repos    Repos
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Runner   txn.Runner
	Hooks    txn.Hooks
	Tracker  *jobrt.Tracker
	Vector   Vector

	notifier       *bus.RedisNotifier
	sinkState      *unresolved.SinkState
	unresolvedFile *unresolved.FileSink
	otelShutdown   func(context.Context) error
}

// New loads configuration from the environment and wires the app.
func New(ctx context.Context, opts Options) (*App, error) {
	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log, envFiles...)
	if err != nil {
		log.Sync()
		return nil, err
	}
	// Rebuild with the configured redaction settings.
	log.Sync()
	if log, err = logger.NewWithOptions(cfg.Log.Logger()); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, log, cfg, opts)
}

// NewWithConfig wires the app from an already validated Config.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config, opts Options) (*App, error) {
	gdb, err := openDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		closeDB(gdb)
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.Name); err != nil {
			log.Warn("db stats collector not registered", "error", err)
		}
	}

	a := &App{
		Log:       log,
		Cfg:       cfg,
		DB:        gdb,
		Repos:     wireRepos(gdb, log),
		Registry:  registry,
		Metrics:   metrics,
		Runner:    txn.NewGormRunner(gdb),
		Hooks:     txn.NewMetricsHooks(metrics),
		sinkState: unresolved.NewSinkState(),
	}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "skillsync",
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Enabled:     cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	var notify jobrt.Notifier
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		n, err := bus.NewRedisNotifier(log, bus.Config{Addr: cfg.Redis.Addr, Channel: cfg.Redis.Channel})
		if err != nil {
			log.Warn("job notifications disabled", "error", err)
		} else {
			a.notifier = n
			notify = n
		}
	}
	a.Tracker = jobrt.NewTracker(a.Repos.ImportJob, notify, metrics, cfg.Import.ProgressInterval, log)

	if !opts.SkipVector {
		v, err := resolveVectorProvider(log, cfg, a.Repos.Embedding, metrics)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Vector = v
	}
	return a, nil
}

func openDB(cfg DatabaseOptions, log *logger.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.DSN, log)
		if err != nil {
			return nil, types.Wrap(types.CodeStoreUnavailable, "app.open_db", err)
		}
		return gdb, nil
	default:
		pg, err := db.NewPostgresService(cfg.Postgres(), log)
		if err != nil {
			return nil, types.Wrap(types.CodeStoreUnavailable, "app.open_db", err)
		}
		return pg.DB(), nil
	}
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate creates or updates every table.
func (a *App) Migrate() error {
	if err := db.AutoMigrateAll(a.DB); err != nil {
		return txn.MapError("app.migrate", err)
	}
	if err := db.EnsureVectorIndexes(a.DB); err != nil {
		return txn.MapError("app.migrate", err)
	}
	a.Log.Info("schema migrated", "driver", a.Cfg.Database.Driver)
	return nil
}

// Orchestrator builds an import orchestrator sharing this app's unresolved
// file sink and sink state.
func (a *App) Orchestrator() (*orchestrator.Orchestrator, error) {
	if a.unresolvedFile == nil {
		sink, err := unresolved.OpenFileSink(a.Cfg.Import.UnresolvedLogPath)
		if err != nil {
			return nil, types.Wrap(types.CodeInternal, "app.unresolved_log", err)
		}
		a.unresolvedFile = sink
	}
	ic := a.Cfg.Import
	return orchestrator.New(orchestrator.Deps{
		DB:             a.DB,
		Runner:         a.Runner,
		Hooks:          a.Hooks,
		Reader:         workbook.NewReader(workbook.Options{EmployeeSheet: ic.EmployeeSheet, SkillSheet: ic.SkillSheet}, a.Log),
		Orgs:           a.Repos.Org,
		Employees:      a.Repos.Employee,
		Catalog:        a.Repos.Catalog,
		Occurrences:    a.Repos.Occurrence,
		History:        a.Repos.History,
		Unresolved:     a.Repos.Unresolved,
		UnresolvedFile: a.unresolvedFile,
		SinkState:      a.sinkState,
		Backend:        a.Vector.Backend,
		Tracker:        a.Tracker,
		Metrics:        a.Metrics,
		Log:            a.Log,
	}, orchestrator.Options{
		Source:               ic.Source,
		Actor:                ic.Actor,
		AutoCreateMasterData: ic.AutoCreateMasterData,
		ProgressEvery:        ic.ProgressEvery,
		Resolver: resolver.Options{
			TopK:            ic.EmbeddingTopK,
			AcceptThreshold: ic.AcceptThreshold,
			ReviewThreshold: ic.ReviewThreshold,
		},
	}), nil
}

var ErrNoEmbedder = errors.New("embeddings need VECTOR_PROVIDER other than none and OPENAI_API_KEY")

// IndexSync builds the catalog embedding sync for the configured provider.
func (a *App) IndexSync() (*resolver.IndexSync, error) {
	if a.Vector.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	return resolver.NewIndexSync(
		a.Repos.Catalog,
		a.Repos.Embedding,
		a.Vector.Embedder,
		a.Vector.Store,
		resolver.SyncOptions{},
		a.Log,
	), nil
}

// StartMetrics serves /metrics until ctx ends, when enabled.
func (a *App) StartMetrics(ctx context.Context) {
	if !a.Cfg.Metrics.Enabled {
		return
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
	a.Log.Info("metrics listener started", "addr", a.Cfg.Metrics.Addr)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.unresolvedFile != nil {
		if err := a.unresolvedFile.Close(); err != nil {
			a.Log.Warn("close unresolved log", "error", err)
		}
		a.unresolvedFile = nil
	}
	if a.notifier != nil {
		a.notifier.Close()
		a.notifier = nil
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
		a.otelShutdown = nil
	}
	if a.DB != nil {
		closeDB(a.DB)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
