package masterdata

import (
	"context"

	"github.com/google/uuid"

	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/normalization"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

const (
	KindSubSegment = "sub_segment"
	KindProject    = "project"
	KindTeam       = "team"
)

// Seeder creates missing SubSegment → Project → Team chains. Roles are never
// created. Off unless the import enables auto-creation.
type Seeder struct {
	repo      orgrepo.OrgRepo
	runner    txn.Runner
	validator *Validator
	log       *logger.Logger
}

func NewSeeder(repo orgrepo.OrgRepo, runner txn.Runner, validator *Validator, baseLog *logger.Logger) *Seeder {
	return &Seeder{
		repo:      repo,
		runner:    runner,
		validator: validator,
		log:       baseLog.With("service", "MasterDataSeeder"),
	}
}

// Ensure creates each distinct missing chain in its own transaction. A failed
// chain is logged and skipped; its rows later fail validation. Only a store
// outage is returned as an error.
func (s *Seeder) Ensure(ctx context.Context, refs []Ref) ([]types.CreatedEntity, error) {
	var created []types.CreatedEntity
	seen := map[[3]string]struct{}{}
	for _, ref := range refs {
		key := [3]string{
			normalization.NormalizeKey(ref.SubSegment),
			normalization.NormalizeKey(ref.Project),
			normalization.NormalizeKey(ref.Team),
		}
		if key[0] == "" || key[1] == "" || key[2] == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		made, err := s.ensureChain(ctx, ref)
		if err != nil {
			if types.IsCode(err, types.CodeStoreUnavailable) {
				return created, err
			}
			s.log.Warn("master data chain not created", "row", ref.RowRef, "error", err)
			continue
		}
		created = append(created, made...)
	}
	if len(created) > 0 {
		s.log.Info("master data created", "entities", len(created))
	}
	return created, nil
}

func (s *Seeder) ensureChain(ctx context.Context, ref Ref) ([]types.CreatedEntity, error) {
	v := s.validator
	segID, segOK, err := v.subSegment(ctx, ref.SubSegment)
	if err != nil {
		return nil, txn.MapError("masterdata.seed", err)
	}
	var projID uuid.UUID
	projOK := false
	if segOK {
		if projID, projOK, err = v.project(ctx, segID, ref.Project); err != nil {
			return nil, txn.MapError("masterdata.seed", err)
		}
	}
	teamOK := false
	if projOK {
		if _, teamOK, err = v.team(ctx, projID, ref.Team); err != nil {
			return nil, txn.MapError("masterdata.seed", err)
		}
	}
	if teamOK {
		return nil, nil
	}

	var made []types.CreatedEntity
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		made = made[:0]
		if !segOK {
			seg := &types.SubSegment{Name: normalization.CleanText(ref.SubSegment)}
			if err := s.repo.CreateSubSegment(dbc, seg); err != nil {
				return err
			}
			segID = seg.ID
			made = append(made, types.CreatedEntity{Kind: KindSubSegment, Name: seg.Name, ID: seg.ID})
		}
		if !projOK {
			proj := &types.Project{SubSegmentID: segID, Name: normalization.CleanText(ref.Project)}
			if err := s.repo.CreateProject(dbc, proj); err != nil {
				return err
			}
			projID = proj.ID
			made = append(made, types.CreatedEntity{Kind: KindProject, Name: proj.Name, Parent: ref.SubSegment, ID: proj.ID})
		}
		team := &types.Team{ProjectID: projID, Name: normalization.CleanText(ref.Team)}
		if err := s.repo.CreateTeam(dbc, team); err != nil {
			return err
		}
		made = append(made, types.CreatedEntity{Kind: KindTeam, Name: team.Name, Parent: ref.Project, ID: team.ID})
		return nil
	})
	if err != nil {
		return nil, txn.MapError("masterdata.seed", err)
	}

	for _, m := range made {
		switch m.Kind {
		case KindSubSegment:
			v.remember(KindSubSegment, uuid.Nil, m.Name, m.ID)
		case KindProject:
			v.remember(KindProject, segID, m.Name, m.ID)
		case KindTeam:
			v.remember(KindTeam, projID, m.Name, m.ID)
		}
	}
	return made, nil
}
