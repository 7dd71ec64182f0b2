package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArowuTest/class-picker/internal/models"
)

// CreateGroup inserts the group together with its initial members.
func (s *GormStore) CreateGroup(ctx context.Context, g *models.Group, memberIDs []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Students").Create(g).Error; err != nil {
			return err
		}
		for _, id := range memberIDs {
			if err := tx.Exec(
				"INSERT INTO group_students (group_id, student_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				g.ID, id,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) GetGroup(ctx context.Context, id uuid.UUID) (models.Group, error) {
	var g models.Group
	err := s.db.WithContext(ctx).Preload("Students").First(&g, "id = ?", id).Error
	return g, notFound(err)
}

func (s *GormStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM group_students WHERE group_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Group{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddGroupMember is idempotent.
func (s *GormStore) AddGroupMember(ctx context.Context, groupID, studentID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Exec("INSERT INTO group_students (group_id, student_id) VALUES (?, ?) ON CONFLICT DO NOTHING", groupID, studentID).
		Error
}

func (s *GormStore) RemoveGroupMember(ctx context.Context, groupID, studentID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Exec("DELETE FROM group_students WHERE group_id = ? AND student_id = ?", groupID, studentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
