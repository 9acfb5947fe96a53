package app

import (
	"context"
	"time"

	"github.com/yungbote/skillsync/internal/observability"
	"github.com/yungbote/skillsync/internal/platform/qdrant"
)

type instrumentedVectorStore struct {
	provider string
	inner    qdrant.VectorStore
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner qdrant.VectorStore, metrics *observability.Metrics) qdrant.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{
		provider: provider,
		inner:    inner,
		metrics:  metrics,
	}
}

func (s *instrumentedVectorStore) EnsureCollection(ctx context.Context) error {
	start := time.Now()
	err := s.inner.EnsureCollection(ctx)
	s.observe("ensure_collection", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, points []qdrant.Point) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, namespace, points)
	s.observe("upsert", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]qdrant.Match, error) {
	start := time.Now()
	out, err := s.inner.QueryMatches(ctx, namespace, q, topK)
	s.observe("query_matches", err, time.Since(start))
	return out, err
}

func (s *instrumentedVectorStore) observe(operation string, err error, dur time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveVectorOp(s.provider, operation, status, dur)
}
