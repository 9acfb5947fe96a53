package db

import (
	"fmt"

	types "github.com/yungbote/skillsync/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureVectorIndexes adds the ANN index for skill embeddings on postgres.
func EnsureVectorIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_skill_embedding_model ON skill_embedding(model);`).Error; err != nil {
		return fmt.Errorf("create idx_skill_embedding_model: %w", err)
	}
	return nil
}
