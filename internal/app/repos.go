package app

import (
	"gorm.io/gorm"

	jobsrepo "github.com/yungbote/skillsync/internal/data/repos/jobs"
	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	peoplerepo "github.com/yungbote/skillsync/internal/data/repos/people"
	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type Repos struct {
	Org        orgrepo.OrgRepo
	Employee   peoplerepo.EmployeeRepo
	Catalog    skillsrepo.CatalogRepo
	Embedding  skillsrepo.EmbeddingRepo
	Occurrence skillsrepo.EmployeeSkillRepo
	History    skillsrepo.HistoryRepo
	Unresolved skillsrepo.UnresolvedRepo
	ImportJob  jobsrepo.ImportJobRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Org:        orgrepo.NewOrgRepo(db, log),
		Employee:   peoplerepo.NewEmployeeRepo(db, log),
		Catalog:    skillsrepo.NewCatalogRepo(db, log),
		Embedding:  skillsrepo.NewEmbeddingRepo(db, log),
		Occurrence: skillsrepo.NewEmployeeSkillRepo(db, log),
		History:    skillsrepo.NewHistoryRepo(db, log),
		Unresolved: skillsrepo.NewUnresolvedRepo(db, log),
		ImportJob:  jobsrepo.NewImportJobRepo(db, log),
	}
}
