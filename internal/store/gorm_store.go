package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyMember is returned when adding an active member twice
var ErrAlreadyMember = errors.New("user is already a member of this team")

// ErrSupervisorLimit is returned when a team already has its maximum supervisors
var ErrSupervisorLimit = fmt.Errorf("team already has %d supervisors", models.MaxSupervisorsPerTeam)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (s *GormStore) GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := s.db.WithContext(ctx).First(&proposal, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &proposal, nil
}

func (s *GormStore) ListProposalsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, classify(err)
	}
	return proposals, nil
}

// ListMembersByTeam returns active members in join order, or ErrNotFound for an unknown team
func (s *GormStore) ListMembersByTeam(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND is_active = ?", teamID, true).
		Order("joined_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (s *GormStore) InsertProposal(ctx context.Context, p *models.Proposal) error {
	return classify(s.db.WithContext(ctx).Create(p).Error)
}

// UpdateProposal writes fields to a single row
func (s *GormStore) UpdateProposal(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Proposal{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) InsertFeedback(ctx context.Context, f *models.ProposalFeedback) error {
	return classify(s.db.WithContext(ctx).Create(f).Error)
}

func (s *GormStore) InsertDocument(ctx context.Context, d *models.ProposalDocument) error {
	return classify(s.db.WithContext(ctx).Create(d).Error)
}

func (s *GormStore) ListSupervisorsByTeam(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.TeamSupervisor{}).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Pluck("supervisor_id", &ids).Error
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (s *GormStore) ListFeedback(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalFeedback, error) {
	var feedback []models.ProposalFeedback
	err := s.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&feedback).Error
	if err != nil {
		return nil, classify(err)
	}
	return feedback, nil
}

func (s *GormStore) ListDocuments(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalDocument, error) {
	var documents []models.ProposalDocument
	err := s.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&documents).Error
	if err != nil {
		return nil, classify(err)
	}
	return documents, nil
}

func (s *GormStore) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &team, nil
}

// CreateTeam inserts the team and its members in one transaction
func (s *GormStore) CreateTeam(ctx context.Context, team *models.Team, memberIDs []uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createTeam(tx, team, memberIDs)
	})
	return classify(err)
}

// CreateTeamWithProposal inserts the team, its members and the submitter's proposal
// in one transaction; proposal.TeamID is set to the new team
func (s *GormStore) CreateTeamWithProposal(ctx context.Context, team *models.Team, memberIDs []uuid.UUID, proposal *models.Proposal) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createTeam(tx, team, memberIDs); err != nil {
			return err
		}
		proposal.TeamID = &team.ID
		return tx.Create(proposal).Error
	})
	if err != nil {
		proposal.TeamID = nil
	}
	return classify(err)
}

func createTeam(tx *gorm.DB, team *models.Team, memberIDs []uuid.UUID) error {
	if err := tx.Create(team).Error; err != nil {
		return err
	}
	for _, userID := range memberIDs {
		member := &models.TeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			IsActive: true,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
	}
	return nil
}

// AddMember activates userID on the team, reviving a previous membership if one exists
func (s *GormStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	var member models.TeamMember
	err := db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	switch {
	case err == nil && member.IsActive:
		return ErrAlreadyMember
	case err == nil:
		return classify(db.Model(&member).Update("is_active", true).Error)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return classify(err)
	}

	member = models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		IsActive: true,
	}
	return classify(db.Create(&member).Error)
}

func (s *GormStore) DeactivateMember(ctx context.Context, teamID, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSupervisor records the assignment unless it exists or the team is full
func (s *GormStore) AddSupervisor(ctx context.Context, teamID, supervisorID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assigned []uuid.UUID
		if err := tx.Model(&models.TeamSupervisor{}).
			Where("team_id = ?", teamID).
			Pluck("supervisor_id", &assigned).Error; err != nil {
			return err
		}
		for _, id := range assigned {
			if id == supervisorID {
				return nil
			}
		}
		if len(assigned) >= models.MaxSupervisorsPerTeam {
			return ErrSupervisorLimit
		}
		return tx.Create(&models.TeamSupervisor{TeamID: teamID, SupervisorID: supervisorID}).Error
	})
	if errors.Is(err, ErrSupervisorLimit) {
		return err
	}
	return classify(err)
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, classify(err)
	}
	return users, nil
}
