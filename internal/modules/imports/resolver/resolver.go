package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/normalization"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

const (
	DefaultAcceptThreshold = 0.88
	DefaultReviewThreshold = 0.80
	DefaultTopK            = 5
)

// Resolution is the outcome of resolving one skill text. SkillID is set only
// for exact, alias and embedding; CandidateID only for review.
type Resolution struct {
	SkillID     *uuid.UUID
	Method      string
	Confidence  float64
	CandidateID *uuid.UUID
	Normalized  string
}

func (r Resolution) Resolved() bool { return r.SkillID != nil }

type Options struct {
	TopK            int
	AcceptThreshold float64
	ReviewThreshold float64
}

// Resolver maps free text onto canonical skills: exact name, then alias,
// then embedding similarity when a Backend is set. Catalog maps and results
// are cached for the lifetime of the Resolver; build one per import run.
type Resolver struct {
	catalog skillsrepo.CatalogRepo
	backend Backend
	opts    Options
	log     *logger.Logger

	loadOnce sync.Once
	loadErr  error
	exact    map[string]uuid.UUID
	alias    map[string]uuid.UUID

	mu   sync.Mutex
	memo map[string]Resolution
}

// NewResolver builds a resolver. backend may be nil, which disables the
// similarity layer.
func NewResolver(catalog skillsrepo.CatalogRepo, backend Backend, opts Options, baseLog *logger.Logger) *Resolver {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.AcceptThreshold <= 0 {
		opts.AcceptThreshold = DefaultAcceptThreshold
	}
	if opts.ReviewThreshold <= 0 {
		opts.ReviewThreshold = DefaultReviewThreshold
	}
	return &Resolver{
		catalog: catalog,
		backend: backend,
		opts:    opts,
		log:     baseLog.With("service", "SkillResolver"),
		memo:    map[string]Resolution{},
	}
}

func (r *Resolver) HasBackend() bool { return r.backend != nil }

// Load reads the active catalog and its aliases. It runs once; Resolve calls
// it implicitly.
func (r *Resolver) Load(ctx context.Context) error {
	r.loadOnce.Do(func() {
		r.loadErr = r.load(ctx)
	})
	return r.loadErr
}

func (r *Resolver) load(ctx context.Context) error {
	dbc := dbctx.Context{Ctx: ctx}
	skills, err := r.catalog.ListActive(dbc)
	if err != nil {
		return txn.MapError("resolver.load_catalog", err)
	}
	aliases, err := r.catalog.ListAliases(dbc)
	if err != nil {
		return txn.MapError("resolver.load_aliases", err)
	}

	r.exact = make(map[string]uuid.UUID, len(skills))
	active := make(map[uuid.UUID]struct{}, len(skills))
	for _, s := range skills {
		active[s.ID] = struct{}{}
		key := normalization.NormalizeKey(s.Name)
		if key == "" {
			continue
		}
		if _, dup := r.exact[key]; dup {
			r.log.Warn("duplicate canonical skill name", "name", s.Name, "skill_id", s.ID)
			continue
		}
		r.exact[key] = s.ID
	}
	r.alias = make(map[string]uuid.UUID, len(aliases))
	for _, a := range aliases {
		if _, ok := active[a.SkillID]; !ok {
			continue
		}
		key := normalization.NormalizeKey(a.Alias)
		if key == "" {
			continue
		}
		if _, dup := r.alias[key]; !dup {
			r.alias[key] = a.SkillID
		}
	}
	r.log.Info("skill catalog loaded", "skills", len(r.exact), "aliases", len(r.alias), "similarity", r.backend != nil)
	return nil
}

// Resolve never fails on a backend problem; those degrade to unresolved.
// The error is a catalog load failure.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Resolution, error) {
	key := normalization.NormalizeKey(raw)
	if key == "" {
		return Resolution{Method: types.MethodUnresolved}, nil
	}
	if err := r.Load(ctx); err != nil {
		return Resolution{Method: types.MethodUnresolved, Normalized: key}, err
	}

	r.mu.Lock()
	if res, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return res, nil
	}
	r.mu.Unlock()

	res := r.resolve(ctx, raw, key)

	r.mu.Lock()
	r.memo[key] = res
	r.mu.Unlock()
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, raw, key string) Resolution {
	if id, ok := r.exact[key]; ok {
		return Resolution{SkillID: &id, Method: types.MethodExact, Confidence: 1.0, Normalized: key}
	}
	if id, ok := r.alias[key]; ok {
		return Resolution{SkillID: &id, Method: types.MethodAlias, Confidence: 1.0, Normalized: key}
	}
	unresolved := Resolution{Method: types.MethodUnresolved, Normalized: key}
	if r.backend == nil {
		return unresolved
	}

	matches, err := r.nearest(ctx, normalization.CleanText(raw))
	if err != nil {
		r.log.Warn("similarity lookup failed", "skill", raw, "error", err)
		return unresolved
	}
	best, ok := top(matches)
	if !ok {
		return unresolved
	}
	return r.classify(key, best)
}

// nearest calls the backend, turning a panic into an error.
func (r *Resolver) nearest(ctx context.Context, text string) (matches []Match, err error) {
	defer func() {
		if p := recover(); p != nil {
			matches, err = nil, fmt.Errorf("similarity backend panic: %v", p)
		}
	}()
	return r.backend.Nearest(ctx, text, r.opts.TopK)
}

func (r *Resolver) classify(key string, m Match) Resolution {
	id := m.SkillID
	switch {
	case m.Score >= r.opts.AcceptThreshold:
		return Resolution{SkillID: &id, Method: types.MethodEmbedding, Confidence: m.Score, Normalized: key}
	case m.Score >= r.opts.ReviewThreshold:
		return Resolution{Method: types.MethodReview, Confidence: m.Score, CandidateID: &id, Normalized: key}
	default:
		return Resolution{Method: types.MethodUnresolved, Confidence: m.Score, Normalized: key}
	}
}

func top(matches []Match) (Match, bool) {
	var best Match
	found := false
	for _, m := range matches {
		if m.SkillID == uuid.Nil {
			continue
		}
		if !found || m.Score > best.Score {
			best = m
			found = true
		}
	}
	return best, found
}

// NamespaceFor is the vector namespace holding catalog vectors for model.
func NamespaceFor(model string) string {
	return "skills:" + strings.TrimSpace(model)
}
