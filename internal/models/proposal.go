package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalStatusSubmitted ProposalStatus = "submitted"
	ProposalStatusApproved  ProposalStatus = "approved"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusRevision  ProposalStatus = "revision"
)

// Valid reports whether s is one of the known proposal states
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusSubmitted, ProposalStatusApproved, ProposalStatusRejected, ProposalStatusRevision:
		return true
	}
	return false
}

// Proposal is one member's copy of a submission. Team proposals carry identical
// shared fields; ID, MemberID and CreatedAt belong to the member.
type Proposal struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	MemberID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"member_id"`
	TeamID    *uuid.UUID `gorm:"type:uuid;index" json:"team_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Shared fields
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	CompanyName     string         `gorm:"not null" json:"company_name"`
	SupervisorID    *uuid.UUID     `gorm:"type:uuid;index" json:"supervisor_id,omitempty"`
	Status          ProposalStatus `gorm:"type:varchar(20);default:'submitted';index" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProposalStatusSubmitted
	}
	return nil
}

// IsTeam reports whether the proposal is one of a team's copies
func (p *Proposal) IsTeam() bool {
	return p.TeamID != nil && *p.TeamID != uuid.Nil
}

// Template extracts the shared fields of p
func (p *Proposal) Template() ProposalTemplate {
	t := ProposalTemplate{
		Title:           p.Title,
		Description:     p.Description,
		CompanyName:     p.CompanyName,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.SupervisorID != nil {
		id := *p.SupervisorID
		t.SupervisorID = &id
	}
	return t
}

// ProposalTemplate holds the fields every proposal of a team must agree on
type ProposalTemplate struct {
	Title           string
	Description     string
	CompanyName     string
	SupervisorID    *uuid.UUID
	Status          ProposalStatus
	RejectionReason string
	UpdatedAt       time.Time
}

// NewProposalFor builds a fresh proposal for memberID carrying the template's shared fields
func (t ProposalTemplate) NewProposalFor(teamID, memberID uuid.UUID) *Proposal {
	team := teamID
	p := &Proposal{
		MemberID:        memberID,
		TeamID:          &team,
		Title:           t.Title,
		Description:     t.Description,
		CompanyName:     t.CompanyName,
		Status:          t.Status,
		RejectionReason: t.RejectionReason,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.SupervisorID != nil {
		id := *t.SupervisorID
		p.SupervisorID = &id
	}
	return p
}

// SharedFieldsEqual reports whether p and other agree on every shared field
func (p *Proposal) SharedFieldsEqual(other *Proposal) bool {
	if p.Title != other.Title ||
		p.Description != other.Description ||
		p.CompanyName != other.CompanyName ||
		p.Status != other.Status ||
		p.RejectionReason != other.RejectionReason ||
		!p.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	switch {
	case p.SupervisorID == nil && other.SupervisorID == nil:
		return true
	case p.SupervisorID == nil || other.SupervisorID == nil:
		return false
	default:
		return *p.SupervisorID == *other.SupervisorID
	}
}

// ProposalFeedback is a supervisor's comment on one proposal. Team feedback is
// copied row by row, never shared.
type ProposalFeedback struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProposalID uuid.UUID `gorm:"type:uuid;not null;index" json:"proposal_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f *ProposalFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ProposalDocument references a file held in the blob store
type ProposalDocument struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProposalID uuid.UUID `gorm:"type:uuid;not null;index" json:"proposal_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FileURL    string    `gorm:"not null" json:"file_url"`
	FileType   string    `json:"file_type"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (d *ProposalDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
