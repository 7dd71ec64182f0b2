package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArowuTest/class-picker/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// DrawStore is the storage the drawing engine runs against. Transaction runs fn
// against a store bound to one database transaction: nil from fn commits, an
// error (or panic) rolls everything back.
type DrawStore interface {
	GetClassroom(ctx context.Context, id uuid.UUID) (models.Classroom, error)
	GetGroup(ctx context.Context, id uuid.UUID) (models.Group, error)
	ListStudents(ctx context.Context, classroomID uuid.UUID) ([]models.Student, error)
	GetStudentsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Student, error)
	UpdateStudentStats(ctx context.Context, students []models.Student) error
	ResetStudentStats(ctx context.Context, classroomID uuid.UUID) error
	CreateHistory(ctx context.Context, entry *models.DrawHistory) error
	ListHistory(ctx context.Context, classroomID uuid.UUID, limit int) ([]models.DrawHistory, error)
	DeleteHistory(ctx context.Context, classroomID uuid.UUID) error
	Transaction(ctx context.Context, fn func(tx DrawStore) error) error
}

// GormStore implements DrawStore and the CRUD the HTTP layer needs on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// New wraps an open gorm connection.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transaction runs fn against a store bound to one gorm transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx DrawStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Ping checks that the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ----- Draw state -----

func (s *GormStore) ListStudents(ctx context.Context, classroomID uuid.UUID) ([]models.Student, error) {
	var students []models.Student
	err := s.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("name asc").
		Find(&students).Error
	return students, err
}

func (s *GormStore) GetStudentsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Student, error) {
	var students []models.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&students).Error
	return students, err
}

func (s *GormStore) UpdateStudentStats(ctx context.Context, students []models.Student) error {
	for _, st := range students {
		res := s.db.WithContext(ctx).
			Model(&models.Student{}).
			Where("id = ?", st.ID).
			Updates(map[string]interface{}{
				"weight":     st.Weight,
				"draw_count": st.DrawCount,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (s *GormStore) ResetStudentStats(ctx context.Context, classroomID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("classroom_id = ?", classroomID).
		Updates(map[string]interface{}{
			"weight":     models.DefaultWeight,
			"draw_count": 0,
		}).Error
}

func (s *GormStore) CreateHistory(ctx context.Context, entry *models.DrawHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListHistory returns the newest entries first. limit <= 0 means no limit.
func (s *GormStore) ListHistory(ctx context.Context, classroomID uuid.UUID, limit int) ([]models.DrawHistory, error) {
	var history []models.DrawHistory
	q := s.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("drawn_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&history).Error
	return history, err
}

func (s *GormStore) DeleteHistory(ctx context.Context, classroomID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Delete(&models.DrawHistory{}).Error
}
