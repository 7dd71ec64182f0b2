// Package picker is the drawing engine: it turns student weights into
// probabilities, proposes weighted draws without replacement, and commits
// confirmed draws (weight decay plus a history snapshot) atomically.
package picker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"github.com/ArowuTest/class-picker/internal/events"
	"github.com/ArowuTest/class-picker/internal/models"
	"github.com/ArowuTest/class-picker/internal/rng"
	"github.com/ArowuTest/class-picker/internal/store"
)

var (
	// ErrValidation marks requests that can never succeed as sent.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a classroom, group or student that does not exist.
	ErrNotFound = errors.New("not found")
)

// Publisher receives events after a confirm or reset has committed.
type Publisher interface {
	Publish(evt events.Event)
}

// DrawRequest describes a proposed draw. StudentIDs and GroupID are optional
// and mutually exclusive; without either the whole classroom is the pool.
type DrawRequest struct {
	Count      int
	StudentIDs []uuid.UUID
	GroupID    *uuid.UUID
}

// Service runs draw operations against a store.
type Service struct {
	store     store.DrawStore
	src       rng.Source
	now       func() time.Time
	publisher Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithSource replaces the process-wide random source.
func WithSource(src rng.Source) Option {
	return func(s *Service) { s.src = src }
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sends draw_confirmed and classroom_reset events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService builds a Service over st using the shared random source and time.Now.
func NewService(st store.DrawStore, opts ...Option) *Service {
	s := &Service{
		store: st,
		src:   rng.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeProbabilities lists the classroom's students with their current
// drawing probability. Nothing is written.
func (s *Service) ComputeProbabilities(ctx context.Context, classroomID uuid.UUID) ([]models.Student, error) {
	if err := s.requireClassroom(ctx, s.store, classroomID); err != nil {
		return nil, err
	}
	students, err := s.store.ListStudents(ctx, classroomID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return WithProbabilities(students), nil
}

// ProposeDraw picks up to req.Count students of the classroom. It is a pure
// proposal: weights and history are untouched until ConfirmDraw.
func (s *Service) ProposeDraw(ctx context.Context, classroomID uuid.UUID, req DrawRequest) ([]models.Student, error) {
	if req.Count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative, got %d", ErrValidation, req.Count)
	}
	if req.GroupID != nil && len(req.StudentIDs) > 0 {
		return nil, fmt.Errorf("%w: student_ids and group_id cannot be combined", ErrValidation)
	}
	if err := s.requireClassroom(ctx, s.store, classroomID); err != nil {
		return nil, err
	}

	candidates := req.StudentIDs
	if req.GroupID != nil {
		group, err := s.store.GetGroup(ctx, *req.GroupID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && group.ClassroomID != classroomID) {
			return nil, fmt.Errorf("%w: group %s does not belong to this classroom", ErrValidation, *req.GroupID)
		}
		if err != nil {
			return nil, fmt.Errorf("get group: %w", err)
		}
		if len(group.Students) == 0 {
			return []models.Student{}, nil
		}
		candidates = make([]uuid.UUID, 0, len(group.Students))
		for _, st := range group.Students {
			candidates = append(candidates, st.ID)
		}
	}

	population, err := s.store.ListStudents(ctx, classroomID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return Draw(s.src, population, req.Count, candidates)
}

// ConfirmDraw commits a draw: every listed student gets one more draw and a
// decayed weight, and one history entry snapshots them. Either all of it is
// stored or none of it. An empty list is a no-op.
func (s *Service) ConfirmDraw(ctx context.Context, classroomID uuid.UUID, studentIDs []uuid.UUID) ([]models.Student, error) {
	if len(studentIDs) == 0 {
		return []models.Student{}, nil
	}
	ids := dedupe(studentIDs)

	var (
		updated []models.Student
		entry   *models.DrawHistory
	)
	err := s.store.Transaction(ctx, func(tx store.DrawStore) error {
		if err := s.requireClassroom(ctx, tx, classroomID); err != nil {
			return err
		}

		found, err := tx.GetStudentsByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("get students: %w", err)
		}
		students, err := inRequestOrder(found, ids, classroomID)
		if err != nil {
			return err
		}

		ApplyDecay(students)

		entry = &models.DrawHistory{
			ClassroomID:   classroomID,
			DrawnAt:       s.now().UTC(),
			DrawnStudents: models.Snapshot(students),
		}
		if err := tx.CreateHistory(ctx, entry); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		if err := tx.UpdateStudentStats(ctx, students); err != nil {
			return fmt.Errorf("update students: %w", err)
		}

		updated = students
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("picker: confirmed draw of %d student(s) in classroom %s", len(updated), classroomID)
	s.publish(events.Event{
		Type:        events.TypeDrawConfirmed,
		ClassroomID: classroomID,
		Data:        entry,
	})
	return updated, nil
}

// ResetClassroom puts every student back to weight 1 and zero draws and
// deletes the classroom's history, in one transaction.
func (s *Service) ResetClassroom(ctx context.Context, classroomID uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx store.DrawStore) error {
		if err := s.requireClassroom(ctx, tx, classroomID); err != nil {
			return err
		}
		if err := tx.ResetStudentStats(ctx, classroomID); err != nil {
			return fmt.Errorf("reset students: %w", err)
		}
		if err := tx.DeleteHistory(ctx, classroomID); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Infof("picker: reset classroom %s", classroomID)
	s.publish(events.Event{Type: events.TypeClassroomReset, ClassroomID: classroomID})
	return nil
}

// History returns the classroom's confirmed draws, newest first.
func (s *Service) History(ctx context.Context, classroomID uuid.UUID, limit int) ([]models.DrawHistory, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrValidation)
	}
	if err := s.requireClassroom(ctx, s.store, classroomID); err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, classroomID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if history == nil {
		history = []models.DrawHistory{}
	}
	return history, nil
}

func (s *Service) requireClassroom(ctx context.Context, st store.DrawStore, id uuid.UUID) error {
	_, err := st.GetClassroom(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: classroom %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("get classroom: %w", err)
	}
	return nil
}

func (s *Service) publish(evt events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(evt)
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// inRequestOrder checks that every requested id resolved to a student of the
// classroom and returns the students in the order they were requested.
func inRequestOrder(found []models.Student, ids []uuid.UUID, classroomID uuid.UUID) ([]models.Student, error) {
	byID := make(map[uuid.UUID]models.Student, len(found))
	for _, st := range found {
		if st.ClassroomID == classroomID {
			byID[st.ID] = st
		}
	}
	if len(byID) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d students not found in classroom %s",
			ErrNotFound, len(ids)-len(byID), len(ids), classroomID)
	}

	ordered := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: student %s", ErrNotFound, id)
		}
		ordered = append(ordered, st)
	}
	return ordered, nil
}
