package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/ArowuTest/class-picker/internal/models"
)

func (s *GormStore) GetAdminByUsername(ctx context.Context, username string) (models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, notFound(err)
}

func (s *GormStore) GetAdmin(ctx context.Context, id uuid.UUID) (models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return u, notFound(err)
}

func (s *GormStore) CreateAdmin(ctx context.Context, u *models.AdminUser) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormStore) UpdateAdminPassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := s.db.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
