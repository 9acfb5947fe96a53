package resolver

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/normalization"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
	"github.com/yungbote/skillsync/internal/platform/openai"
	"github.com/yungbote/skillsync/internal/platform/qdrant"
)

type SyncOptions struct {
	BatchSize   int
	Concurrency int
}

type SyncResult struct {
	Missing  int `json:"missing"`
	Embedded int `json:"embedded"`
	Batches  int `json:"batches"`
	Pushed   int `json:"pushed"`
}

// IndexSync embeds active catalog skills that have no vector for the
// embedder's model, stores them, and mirrors them into qdrant when a store is
// given.
type IndexSync struct {
	catalog    skillsrepo.CatalogRepo
	embeddings skillsrepo.EmbeddingRepo
	embedder   openai.Embedder
	store      qdrant.VectorStore
	opts       SyncOptions
	log        *logger.Logger
}

func NewIndexSync(
	catalog skillsrepo.CatalogRepo,
	embeddings skillsrepo.EmbeddingRepo,
	embedder openai.Embedder,
	store qdrant.VectorStore,
	opts SyncOptions,
	baseLog *logger.Logger,
) *IndexSync {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &IndexSync{
		catalog:    catalog,
		embeddings: embeddings,
		embedder:   embedder,
		store:      store,
		opts:       opts,
		log:        baseLog.With("service", "SkillIndexSync"),
	}
}

func (s *IndexSync) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	if s.embedder == nil {
		return res, fmt.Errorf("index sync requires an embedder")
	}
	model := s.embedder.Model()
	dbc := dbctx.Context{Ctx: ctx}

	missing, err := s.catalog.ListMissingEmbeddings(dbc, model)
	if err != nil {
		return res, fmt.Errorf("list skills without vectors: %w", err)
	}
	res.Missing = len(missing)
	if len(missing) == 0 {
		s.log.Info("skill vectors up to date", "model", model)
		return res, nil
	}
	if s.store != nil {
		if err := s.store.EnsureCollection(ctx); err != nil {
			return res, fmt.Errorf("prepare qdrant collection: %w", err)
		}
	}

	var batches [][]*types.CanonicalSkill
	for start := 0; start < len(missing); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(missing))
		batches = append(batches, missing[start:end])
	}
	res.Batches = len(batches)

	vectors := make([][][]float32, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, sk := range batch {
				texts[j] = normalization.CleanText(sk.Name)
			}
			out, err := s.embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch %d: %w", i, err)
			}
			if len(out) != len(batch) {
				return fmt.Errorf("embed batch %d: got %d vectors for %d skills", i, len(out), len(batch))
			}
			vectors[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for i, batch := range batches {
		rows := make([]*types.SkillEmbedding, len(batch))
		points := make([]qdrant.Point, len(batch))
		for j, sk := range batch {
			rows[j] = &types.SkillEmbedding{SkillID: sk.ID, Model: model, Vector: pgvector.NewVector(vectors[i][j])}
			points[j] = qdrant.Point{
				ID:      sk.ID.String(),
				Values:  vectors[i][j],
				Payload: map[string]any{"name": sk.Name, "category": sk.Category},
			}
		}
		if err := s.embeddings.Upsert(dbc, rows); err != nil {
			return res, fmt.Errorf("store skill vectors: %w", err)
		}
		res.Embedded += len(rows)
		if s.store != nil {
			if err := s.store.Upsert(ctx, NamespaceFor(model), points); err != nil {
				return res, fmt.Errorf("push skill vectors to qdrant: %w", err)
			}
			res.Pushed += len(points)
		}
	}
	s.log.Info("skill vectors synced", "model", model, "embedded", res.Embedded, "pushed", res.Pushed, "batches", res.Batches)
	return res, nil
}
