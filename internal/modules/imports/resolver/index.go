package resolver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
	"github.com/yungbote/skillsync/internal/platform/qdrant"
)

// CatalogIndex loads every stored vector for one model and ranks them by
// exact cosine similarity in process. Works on any store, including sqlite.
type CatalogIndex struct {
	repo  skillsrepo.EmbeddingRepo
	model string
	log   *logger.Logger

	once    sync.Once
	loadErr error
	ids     []uuid.UUID
	vecs    [][]float32
	norms   []float64
}

func NewCatalogIndex(repo skillsrepo.EmbeddingRepo, model string, baseLog *logger.Logger) *CatalogIndex {
	return &CatalogIndex{repo: repo, model: model, log: baseLog.With("service", "CatalogIndex")}
}

func (c *CatalogIndex) Name() string { return "catalog" }

// Load reads the vectors. Search calls it on first use; callers holding a
// transaction on a single-connection store should call it beforehand.
func (c *CatalogIndex) Load(ctx context.Context) error {
	c.once.Do(func() {
		rows, err := c.repo.ListByModel(dbctx.Context{Ctx: ctx}, c.model)
		if err != nil {
			c.loadErr = err
			return
		}
		for _, row := range rows {
			v := row.Vector.Slice()
			n := norm(v)
			if n == 0 {
				continue
			}
			c.ids = append(c.ids, row.SkillID)
			c.vecs = append(c.vecs, v)
			c.norms = append(c.norms, n)
		}
		c.log.Debug("catalog vectors loaded", "model", c.model, "vectors", len(c.ids))
	})
	return c.loadErr
}

func (c *CatalogIndex) Search(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	qn := norm(vec)
	if qn == 0 || k <= 0 {
		return nil, nil
	}
	out := make([]Match, 0, len(c.ids))
	for i, v := range c.vecs {
		if len(v) != len(vec) {
			continue
		}
		out = append(out, Match{SkillID: c.ids[i], Score: dot(vec, v) / (qn * c.norms[i])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// PGVectorIndex ranks in postgres with the pgvector cosine operator.
type PGVectorIndex struct {
	repo  skillsrepo.EmbeddingRepo
	model string
}

func NewPGVectorIndex(repo skillsrepo.EmbeddingRepo, model string) *PGVectorIndex {
	return &PGVectorIndex{repo: repo, model: model}
}

func (p *PGVectorIndex) Name() string { return "pgvector" }

func (p *PGVectorIndex) Search(ctx context.Context, vec []float32, k int) ([]Match, error) {
	rows, err := p.repo.NearestPG(dbctx.Context{Ctx: ctx}, p.model, vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(rows))
	for _, r := range rows {
		out = append(out, Match{SkillID: r.SkillID, Score: r.Score})
	}
	return out, nil
}

// QdrantIndex searches the skills:<model> namespace of a qdrant collection.
type QdrantIndex struct {
	store     qdrant.VectorStore
	namespace string
}

func NewQdrantIndex(store qdrant.VectorStore, model string) *QdrantIndex {
	return &QdrantIndex{store: store, namespace: NamespaceFor(model)}
}

func (q *QdrantIndex) Name() string { return "qdrant" }

func (q *QdrantIndex) Search(ctx context.Context, vec []float32, k int) ([]Match, error) {
	hits, err := q.store.QueryMatches(ctx, q.namespace, vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			return nil, fmt.Errorf("qdrant point %q is not a skill id: %w", h.ID, err)
		}
		out = append(out, Match{SkillID: id, Score: h.Score})
	}
	return out, nil
}
