package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultWeight is the weight of a student that has never been drawn.
	DefaultWeight = 1.0
	// SettingNumSlotMachines is how many slots the drawer UI shows.
	SettingNumSlotMachines = "numSlotMachines"
)

// AdminUser is a teacher/admin account that can manage classrooms.
type AdminUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Classroom owns its students, groups and drawing history.
type Classroom struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Students  []Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"students"`
	Groups    []Group   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"groups"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Student is one drawable member of a classroom.
// Weight and DrawCount only change through an admin edit, a confirmed draw or a
// classroom reset.
type Student struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `gorm:"type:uuid;not null;index" json:"classroom_id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Weight      float64   `gorm:"not null" json:"weight"`
	DrawCount   int       `gorm:"not null" json:"draw_count"`

	// Probability is computed on demand and never stored.
	Probability *float64 `gorm:"-" json:"probability,omitempty"`

	Groups    []Group   `gorm:"many2many:group_students;" json:"groups,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a named subset of a classroom's students, used to narrow a draw.
type Group struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `gorm:"type:uuid;not null;index" json:"classroom_id"`
	Name        string    `gorm:"not null" json:"name"`
	Students    []Student `gorm:"many2many:group_students;" json:"students,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DrawnStudent is the frozen (id, name) pair kept in a history entry.
type DrawnStudent struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// DrawHistory records one confirmed draw. DrawnStudents is a copy, not a
// reference, so later edits or deletions of students leave it intact.
type DrawHistory struct {
	ID            uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID   uuid.UUID                         `gorm:"type:uuid;not null;index" json:"classroom_id"`
	DrawnAt       time.Time                         `gorm:"not null;index" json:"drawing_date"`
	DrawnStudents datatypes.JSONSlice[DrawnStudent] `gorm:"not null" json:"drawn_students"`
}

// TableName keeps the table name readable.
func (DrawHistory) TableName() string {
	return "drawing_history"
}

// Setting is a global key/value pair read by the UI.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null" json:"value"`
}

func (u *AdminUser) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (c *Classroom) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (s *Student) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (g *Group) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (h *DrawHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Snapshot freezes the identity of the given students.
func Snapshot(students []Student) []DrawnStudent {
	out := make([]DrawnStudent, 0, len(students))
	for _, s := range students {
		out = append(out, DrawnStudent{ID: s.ID, Name: s.Name})
	}
	return out
}

// Migrate will create/update your tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&AdminUser{},
		&Classroom{},
		&Student{},
		&Group{},
		&DrawHistory{},
		&Setting{},
	)
}
