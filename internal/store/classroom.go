package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArowuTest/class-picker/internal/models"
)

func (s *GormStore) CreateClassroom(ctx context.Context, c *models.Classroom) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *GormStore) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	err := s.db.WithContext(ctx).
		Preload("Students", func(db *gorm.DB) *gorm.DB {
			return db.Order("name asc")
		}).
		Preload("Groups").
		Order("name asc").
		Find(&classrooms).Error
	return classrooms, err
}

func (s *GormStore) GetClassroom(ctx context.Context, id uuid.UUID) (models.Classroom, error) {
	var c models.Classroom
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return c, notFound(err)
}

// GetClassroomDetail loads the classroom with its students (and their groups)
// and its groups (and their members).
func (s *GormStore) GetClassroomDetail(ctx context.Context, id uuid.UUID) (models.Classroom, error) {
	var c models.Classroom
	err := s.db.WithContext(ctx).
		Preload("Students", func(db *gorm.DB) *gorm.DB {
			return db.Order("name asc")
		}).
		Preload("Students.Groups").
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("name asc")
		}).
		Preload("Groups.Students").
		First(&c, "id = ?", id).Error
	return c, notFound(err)
}

// DeleteClassroom removes the classroom with its students, groups, memberships
// and history in one transaction.
func (s *GormStore) DeleteClassroom(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Classroom
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		var groupIDs []uuid.UUID
		if err := tx.Model(&models.Group{}).Where("classroom_id = ?", id).Pluck("id", &groupIDs).Error; err != nil {
			return err
		}
		if len(groupIDs) > 0 {
			if err := tx.Exec("DELETE FROM group_students WHERE group_id IN ?", groupIDs).Error; err != nil {
				return err
			}
		}

		var studentIDs []uuid.UUID
		if err := tx.Model(&models.Student{}).Where("classroom_id = ?", id).Pluck("id", &studentIDs).Error; err != nil {
			return err
		}
		if len(studentIDs) > 0 {
			if err := tx.Exec("DELETE FROM group_students WHERE student_id IN ?", studentIDs).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("classroom_id = ?", id).Delete(&models.Group{}).Error; err != nil {
			return err
		}
		if err := tx.Where("classroom_id = ?", id).Delete(&models.Student{}).Error; err != nil {
			return err
		}
		if err := tx.Where("classroom_id = ?", id).Delete(&models.DrawHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}
