package data

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/types"
)

// Migrate creates or alters every table the service owns.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(types.AllModels...); err != nil {
		return err
	}
	if log != nil {
		log.Info("schema migrated", zap.Int("models", len(types.AllModels)))
	}
	return nil
}
