package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/skillsync/internal/platform/openai"
)

// Match is a nearest catalog skill with its cosine similarity.
type Match struct {
	SkillID uuid.UUID
	Score   float64
}

// Backend finds catalog skills similar to free text.
type Backend interface {
	Nearest(ctx context.Context, text string, k int) ([]Match, error)
}

// Index answers nearest-neighbour queries over catalog skill vectors.
type Index interface {
	Search(ctx context.Context, vec []float32, k int) ([]Match, error)
	Name() string
}

// EmbeddingBackend embeds the query text and searches an Index.
type EmbeddingBackend struct {
	Embedder openai.Embedder
	Index    Index
}

func NewEmbeddingBackend(embedder openai.Embedder, index Index) *EmbeddingBackend {
	return &EmbeddingBackend{Embedder: embedder, Index: index}
}

func (b *EmbeddingBackend) Nearest(ctx context.Context, text string, k int) ([]Match, error) {
	if b == nil || b.Embedder == nil || b.Index == nil {
		return nil, fmt.Errorf("embedding backend not configured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	vecs, err := b.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed query: empty vector")
	}
	matches, err := b.Index.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", b.Index.Name(), err)
	}
	return matches, nil
}

// Warm loads an in-process index ahead of the first query.
func (b *EmbeddingBackend) Warm(ctx context.Context) error {
	if b == nil || b.Index == nil {
		return nil
	}
	if l, ok := b.Index.(interface{ Load(context.Context) error }); ok {
		return l.Load(ctx)
	}
	return nil
}
