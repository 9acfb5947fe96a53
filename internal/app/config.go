package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yungbote/skillsync/internal/data/db"
	"github.com/yungbote/skillsync/internal/platform/logger"
	"github.com/yungbote/skillsync/internal/platform/qdrant"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type VectorProvider string

const (
	VectorProviderNone     VectorProvider = "none"
	VectorProviderCatalog  VectorProvider = "catalog"
	VectorProviderPGVector VectorProvider = "pgvector"
	VectorProviderQdrant   VectorProvider = "qdrant"
)

// Embedding reports whether the provider needs an embedder.
func (p VectorProvider) Embedding() bool {
	return p != VectorProviderNone && p != ""
}

var DefaultEnvFiles = []string{".env", ".env.local"}

var ErrInvalidConfig = errors.New("invalid config")

type LogOptions struct {
	Mode      string `env:"LOG_MODE" envDefault:"development"`
	Redaction bool   `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
	HashSalt  string `env:"LOG_HASH_SALT"`
}

func (l LogOptions) Logger() logger.Options {
	return logger.Options{Mode: l.Mode, DisableRedaction: !l.Redaction, HashSalt: l.HashSalt}
}

type DatabaseOptions struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DSN      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"skillsync"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

func (d DatabaseOptions) Postgres() db.PostgresConfig {
	return db.PostgresConfig{
		DSN:      d.DSN,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Name:     d.Name,
		SSLMode:  d.SSLMode,
	}
}

type ImportOptions struct {
	EmployeeSheet        string        `env:"IMPORT_EMPLOYEE_SHEET" envDefault:"Employees"`
	SkillSheet           string        `env:"IMPORT_SKILL_SHEET" envDefault:"Skills"`
	UnresolvedLogPath    string        `env:"IMPORT_UNRESOLVED_LOG" envDefault:"logs/unresolved_skills.jsonl"`
	Actor                string        `env:"IMPORT_ACTOR" envDefault:"system"`
	Source               string        `env:"IMPORT_SOURCE" envDefault:"workbook"`
	AutoCreateMasterData bool          `env:"IMPORT_AUTO_CREATE_MASTER_DATA" envDefault:"false"`
	ProgressInterval     time.Duration `env:"IMPORT_PROGRESS_INTERVAL" envDefault:"2s"`
	ProgressEvery        int           `env:"IMPORT_PROGRESS_EVERY" envDefault:"25"`
	EmbeddingTopK        int           `env:"IMPORT_EMBEDDING_TOP_K" envDefault:"5"`
	AcceptThreshold      float64       `env:"IMPORT_ACCEPT_THRESHOLD"`
	ReviewThreshold      float64       `env:"IMPORT_REVIEW_THRESHOLD"`
}

type VectorOptions struct {
	Provider VectorProvider `env:"VECTOR_PROVIDER" envDefault:"none"`
}

type OpenAIOptions struct {
	APIKey     string        `env:"OPENAI_API_KEY"`
	BaseURL    string        `env:"OPENAI_BASE_URL"`
	EmbedModel string        `env:"OPENAI_EMBED_MODEL" envDefault:"text-embedding-3-small"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT" envDefault:"30s"`
}

type QdrantOptions struct {
	URL             string `env:"QDRANT_URL"`
	Collection      string `env:"QDRANT_COLLECTION" envDefault:"skills"`
	NamespacePrefix string `env:"QDRANT_NAMESPACE_PREFIX" envDefault:"skillsync"`
	VectorDim       int    `env:"QDRANT_VECTOR_DIM" envDefault:"1536"`
}

func (q QdrantOptions) Config() qdrant.Config {
	return qdrant.Config{
		URL:             q.URL,
		Collection:      q.Collection,
		NamespacePrefix: q.NamespacePrefix,
		VectorDim:       q.VectorDim,
	}
}

type RedisOptions struct {
	Addr    string `env:"REDIS_ADDR"`
	Channel string `env:"REDIS_CHANNEL" envDefault:"import_jobs"`
}

type MetricsOptions struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	Addr    string `env:"METRICS_ADDR" envDefault:":9090"`
}

type OtelOptions struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	SampleRatio float64 `env:"OTEL_SAMPLER_RATIO" envDefault:"1"`
}

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Version     string `env:"VERSION" envDefault:"dev"`

	Log      LogOptions
	Database DatabaseOptions
	Import   ImportOptions
	Vector   VectorOptions
	OpenAI   OpenAIOptions
	Qdrant   QdrantOptions
	Redis    RedisOptions
	Metrics  MetricsOptions
	Otel     OtelOptions
}

// LoadEnv loads the env files that exist, in order. Variables already set in
// the process environment win.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LoadConfig reads env files and the process environment into a validated
// Config.
func LoadConfig(log *logger.Logger, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(log); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig builds a Config from an explicit environment map.
func ParseConfig(log *logger.Logger, environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(log); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes cfg in place and rejects combinations that cannot
// run. An embedding provider without an API key is downgraded to none.
func (c *Config) Validate(log *logger.Logger) error {
	var errs []error

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	c.Vector.Provider = VectorProvider(strings.ToLower(strings.TrimSpace(string(c.Vector.Provider))))
	if c.Vector.Provider == "" {
		c.Vector.Provider = VectorProviderNone
	}
	switch c.Vector.Provider {
	case VectorProviderNone, VectorProviderCatalog:
	case VectorProviderPGVector:
		if c.Database.Driver == DriverSQLite {
			errs = append(errs, errors.New("VECTOR_PROVIDER=pgvector requires DB_DRIVER=postgres"))
		}
	case VectorProviderQdrant:
		qcfg := c.Qdrant.Config()
		if err := qdrant.ValidateConfig(&qcfg); err != nil {
			errs = append(errs, fmt.Errorf("qdrant: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_PROVIDER %q", c.Vector.Provider))
	}

	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLER_RATIO must be within [0, 1]"))
	}
	if c.Import.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("IMPORT_PROGRESS_EVERY must not be negative"))
	}
	if c.Import.AcceptThreshold < 0 || c.Import.AcceptThreshold > 1 ||
		c.Import.ReviewThreshold < 0 || c.Import.ReviewThreshold > 1 {
		errs = append(errs, fmt.Errorf("similarity thresholds must be within [0, 1]"))
	}
	if c.Import.AcceptThreshold > 0 && c.Import.ReviewThreshold > c.Import.AcceptThreshold {
		errs = append(errs, fmt.Errorf("IMPORT_REVIEW_THRESHOLD must not exceed IMPORT_ACCEPT_THRESHOLD"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	if c.Vector.Provider.Embedding() && strings.TrimSpace(c.OpenAI.APIKey) == "" {
		if log != nil {
			log.Warn("OPENAI_API_KEY not set; similarity resolution disabled",
				"requested_provider", c.Vector.Provider)
		}
		c.Vector.Provider = VectorProviderNone
	}
	return nil
}
