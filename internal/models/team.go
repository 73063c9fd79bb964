package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	SubmittedByID uuid.UUID      `gorm:"type:uuid;not null;index" json:"submitted_by_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members     []TeamMember     `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Supervisors []TeamSupervisor `gorm:"foreignKey:TeamID" json:"supervisors,omitempty"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TeamMember records one student's membership. Leaving a team clears IsActive
// instead of deleting the row.
type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

// MaxSupervisorsPerTeam caps TeamSupervisor rows for one team
const MaxSupervisorsPerTeam = 2

// TeamSupervisor assigns a lecturer to a team
type TeamSupervisor struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TeamID       uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	SupervisorID uuid.UUID `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Supervisor *User `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}

func (s *TeamSupervisor) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
