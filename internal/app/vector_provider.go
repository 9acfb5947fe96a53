package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/modules/imports/resolver"
	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/logger"
	"github.com/yungbote/skillsync/internal/platform/openai"
	"github.com/yungbote/skillsync/internal/platform/qdrant"
)

var (
	newEmbedder          = openai.NewEmbedder
	newQdrantVectorStore = qdrant.NewVectorStore
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorEmbedderInitFailed  VectorProviderBootstrapErrorCode = "embedder_init_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider VectorProvider
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Vector is the similarity stack chosen for this process. Backend is nil
// when similarity resolution is off; Store is set only for qdrant.
type Vector struct {
	Provider VectorProvider
	Embedder openai.Embedder
	Store    qdrant.VectorStore
	Backend  resolver.Backend
}

func resolveVectorProvider(
	log *logger.Logger,
	cfg Config,
	embeddings skillsrepo.EmbeddingRepo,
	metrics *observability.Metrics,
) (Vector, error) {
	provider := cfg.Vector.Provider
	if provider == "" {
		provider = VectorProviderNone
	}
	if provider == VectorProviderNone {
		log.Info("Similarity resolution disabled", "provider", provider)
		metrics.ObserveVectorBootstrap(string(provider), "disabled", "none")
		return Vector{Provider: provider}, nil
	}

	fail := func(err error) (Vector, error) {
		classified := classifyVectorProviderBootstrapError(provider, err)
		code := vectorProviderBootstrapErrorCode(classified)
		metrics.ObserveVectorBootstrap(string(provider), "error", string(code))
		log.Error("Vector provider bootstrap failed", "provider", provider, "error_code", code, "error", classified)
		return Vector{}, classified
	}

	switch provider {
	case VectorProviderCatalog, VectorProviderPGVector, VectorProviderQdrant:
	default:
		return fail(&VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		})
	}

	emb, err := newEmbedder(log, openai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		EmbedModel: cfg.OpenAI.EmbedModel,
		Timeout:    cfg.OpenAI.Timeout,
	})
	if err != nil {
		return fail(&VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorEmbedderInitFailed,
			Provider: provider,
			Cause:    err,
		})
	}

	out := Vector{Provider: provider, Embedder: emb}
	var index resolver.Index
	switch provider {
	case VectorProviderCatalog:
		index = resolver.NewCatalogIndex(embeddings, emb.Model(), log)
	case VectorProviderPGVector:
		index = resolver.NewPGVectorIndex(embeddings, emb.Model())
	case VectorProviderQdrant:
		log.Info(
			"Selecting vector store provider",
			"provider", provider,
			"qdrant_url", cfg.Qdrant.URL,
			"qdrant_collection", cfg.Qdrant.Collection,
			"qdrant_namespace_prefix", cfg.Qdrant.NamespacePrefix,
			"qdrant_vector_dim", cfg.Qdrant.VectorDim,
		)
		vs, err := newQdrantVectorStore(log, cfg.Qdrant.Config(), nil)
		if err != nil {
			return fail(err)
		}
		out.Store = instrumentVectorStore(string(provider), vs, metrics)
		index = resolver.NewQdrantIndex(out.Store, emb.Model())
	}
	out.Backend = resolver.NewEmbeddingBackend(emb, index)

	metrics.ObserveVectorBootstrap(string(provider), "success", "none")
	log.Info("Similarity resolution enabled", "provider", provider, "index", index.Name(), "model", emb.Model())
	return out, nil
}

func classifyVectorProviderBootstrapError(provider VectorProvider, err error) error {
	var already *VectorProviderBootstrapError
	if errors.As(err, &already) {
		return err
	}
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorProviderInitFailed
}
