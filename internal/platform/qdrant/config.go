package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultNamespacePrefix = "skillsync"
	defaultTimeout         = 10 * time.Second
)

// Config addresses one qdrant collection. Catalog vectors for different
// embedding models share the collection and are told apart by namespace.
type Config struct {
	URL             string
	Collection      string
	NamespacePrefix string
	VectorDim       int
	Timeout         time.Duration
}

// Qualify prefixes namespace with the configured prefix, e.g.
// "skillsync:skills:text-embedding-3-small".
func (c Config) Qualify(namespace string) string {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		return c.NamespacePrefix
	}
	return c.NamespacePrefix + ":" + ns
}

func (c Config) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(c.Collection) + suffix
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidCollection ConfigErrorCode = "invalid_collection"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("QDRANT_URL=%q must be an http(s) URL such as http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorInvalidCollection:
		return fmt.Sprintf("QDRANT_COLLECTION=%q must not contain '/' or whitespace", e.Value)
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("QDRANT_VECTOR_DIM=%q must match the embedding model dimension (> 0)", e.Value)
	}
	return "invalid qdrant config: " + string(e.Code)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ValidateConfig normalizes cfg in place and fills defaults.
func ValidateConfig(cfg *Config) error {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: raw, Cause: err}
	}
	cfg.URL = strings.TrimRight(raw, "/")

	cfg.Collection = strings.TrimSpace(cfg.Collection)
	switch {
	case cfg.Collection == "":
		return &ConfigError{Code: ConfigErrorMissingCollection}
	case strings.ContainsAny(cfg.Collection, "/ \t"):
		return &ConfigError{Code: ConfigErrorInvalidCollection, Value: cfg.Collection}
	}
	if cfg.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(cfg.VectorDim)}
	}

	if cfg.NamespacePrefix = strings.TrimSpace(cfg.NamespacePrefix); cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = defaultNamespacePrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return nil
}
