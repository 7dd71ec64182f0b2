package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/ArowuTest/class-picker/internal/models"
)

func (s *GormStore) GetSetting(ctx context.Context, key string) (models.Setting, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	return setting, notFound(err)
}

func (s *GormStore) UpsertSetting(ctx context.Context, setting *models.Setting) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(setting).Error
}

// EnsureSetting stores value under key unless the key already exists.
func (s *GormStore) EnsureSetting(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Setting{Key: key, Value: value}).Error
}
