// Package store is the record store adapter: the collections the team sync
// engine reads and writes, behind interfaces so the engine never touches gorm.
//
// Single-row writes are atomic. Nothing here spans rows in one transaction
// except team creation, so callers must expect multi-row work to partially fail.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable wraps every other failure talking to the database.
	ErrUnavailable = errors.New("record store unavailable")
)

// ProposalStore is the contract the sync engine is written against
type ProposalStore interface {
	GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListProposalsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Proposal, error)
	ListMembersByTeam(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
	InsertProposal(ctx context.Context, p *models.Proposal) error
	UpdateProposal(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	InsertFeedback(ctx context.Context, f *models.ProposalFeedback) error
	InsertDocument(ctx context.Context, d *models.ProposalDocument) error
	ListSupervisorsByTeam(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
	ListFeedback(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalFeedback, error)
	ListDocuments(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalDocument, error)
}

// TeamStore covers team bookkeeping around the engine
type TeamStore interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	CreateTeam(ctx context.Context, team *models.Team, memberIDs []uuid.UUID) error
	CreateTeamWithProposal(ctx context.Context, team *models.Team, memberIDs []uuid.UUID, proposal *models.Proposal) error
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	DeactivateMember(ctx context.Context, teamID, userID uuid.UUID) error
	AddSupervisor(ctx context.Context, teamID, supervisorID uuid.UUID) error
}

// UserStore resolves account records
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// Store is everything the gorm adapter provides
type Store interface {
	ProposalStore
	TeamStore
	UserStore
}

// Proposal update column names
const (
	FieldStatus          = "status"
	FieldRejectionReason = "rejection_reason"
	FieldSupervisorID    = "supervisor_id"
	FieldUpdatedAt       = "updated_at"
)
