package repository

import (
	"fmt"

	"gorm.io/gorm"

	"voicebox/internal/domain/submission"
)

// InitSchema runs Gorm auto-migration for every persisted entity. Both the
// server and the migrate CLI go through here so the schema has one owner.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&submission.Submission{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
