package masterdata

import (
	"context"

	"github.com/yungbote/skillsync/internal/data/txn"
	"github.com/yungbote/skillsync/internal/normalization"
)

// Summary describes the master data a batch references.
type Summary struct {
	Paths              int `json:"paths"`
	Roles              int `json:"roles"`
	MissingSubSegments int `json:"missing_sub_segments"`
	MissingProjects    int `json:"missing_projects"`
	MissingTeams       int `json:"missing_teams"`
	MissingRoles       int `json:"missing_roles"`
}

func (s Summary) Missing() int {
	return s.MissingSubSegments + s.MissingProjects + s.MissingTeams + s.MissingRoles
}

// Scan counts distinct hierarchy paths and roles in refs and how many of
// them are absent from the store. It reads through the validator memo.
func (v *Validator) Scan(ctx context.Context, refs []Ref) (Summary, error) {
	var sum Summary
	segs := map[string]bool{}
	projs := map[[2]string]bool{}
	paths := map[[3]string]struct{}{}
	roles := map[string]struct{}{}

	for _, ref := range refs {
		k := [3]string{
			normalization.NormalizeKey(ref.SubSegment),
			normalization.NormalizeKey(ref.Project),
			normalization.NormalizeKey(ref.Team),
		}
		if _, dup := paths[k]; !dup {
			paths[k] = struct{}{}
			if err := v.scanPath(ctx, ref, k, segs, projs, &sum); err != nil {
				return sum, txn.MapError("masterdata.scan", err)
			}
		}
		if rk := normalization.NormalizeKey(ref.Role); rk != "" {
			if _, dup := roles[rk]; !dup {
				roles[rk] = struct{}{}
				_, ok, err := v.role(ctx, ref.Role)
				if err != nil {
					return sum, txn.MapError("masterdata.scan", err)
				}
				if !ok {
					sum.MissingRoles++
				}
			}
		}
	}
	sum.Paths = len(paths)
	sum.Roles = len(roles)
	return sum, nil
}

func (v *Validator) scanPath(ctx context.Context, ref Ref, k [3]string, segs map[string]bool, projs map[[2]string]bool, sum *Summary) error {
	segID, segOK, err := v.subSegment(ctx, ref.SubSegment)
	if err != nil {
		return err
	}
	if !segOK {
		if _, counted := segs[k[0]]; !counted {
			segs[k[0]] = false
			sum.MissingSubSegments++
		}
		return nil
	}
	projID, projOK, err := v.project(ctx, segID, ref.Project)
	if err != nil {
		return err
	}
	if !projOK {
		pk := [2]string{k[0], k[1]}
		if _, counted := projs[pk]; !counted {
			projs[pk] = false
			sum.MissingProjects++
		}
		return nil
	}
	_, teamOK, err := v.team(ctx, projID, ref.Team)
	if err != nil {
		return err
	}
	if !teamOK {
		sum.MissingTeams++
	}
	return nil
}
