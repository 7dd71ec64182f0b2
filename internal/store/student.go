package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArowuTest/class-picker/internal/models"
)

func (s *GormStore) CreateStudent(ctx context.Context, st *models.Student) error {
	return s.db.WithContext(ctx).Omit("Groups").Create(st).Error
}

// CreateStudents inserts all rows or none.
func (s *GormStore) CreateStudents(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Groups").Create(&students).Error
	})
}

func (s *GormStore) GetStudent(ctx context.Context, id uuid.UUID) (models.Student, error) {
	var st models.Student
	err := s.db.WithContext(ctx).Preload("Groups").First(&st, "id = ?", id).Error
	return st, notFound(err)
}

// UpdateStudent writes the editable fields: name, weight and draw count.
func (s *GormStore) UpdateStudent(ctx context.Context, st *models.Student) error {
	res := s.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ?", st.ID).
		Updates(map[string]interface{}{
			"name":       st.Name,
			"weight":     st.Weight,
			"draw_count": st.DrawCount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStudent removes the student and its group memberships. History
// snapshots that mention the student are left as they are.
func (s *GormStore) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM group_students WHERE student_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Student{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
