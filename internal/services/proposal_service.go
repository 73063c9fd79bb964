package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
)

// ProposalService is the read side over proposals and their attachments
type ProposalService struct {
	store store.ProposalStore
}

func NewProposalService(s store.ProposalStore) *ProposalService {
	return &ProposalService{store: s}
}

func (s *ProposalService) Get(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, storeError("get proposal", err)
	}
	return proposal, nil
}

// ListByTeam returns every proposal of teamID, oldest first
func (s *ProposalService) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Proposal, error) {
	proposals, err := s.store.ListProposalsByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("list team proposals", err)
	}
	return proposals, nil
}

func (s *ProposalService) Feedback(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalFeedback, error) {
	if _, err := s.Get(ctx, proposalID); err != nil {
		return nil, err
	}
	feedback, err := s.store.ListFeedback(ctx, proposalID)
	if err != nil {
		return nil, storeError("list feedback", err)
	}
	return feedback, nil
}

func (s *ProposalService) Documents(ctx context.Context, proposalID uuid.UUID) ([]models.ProposalDocument, error) {
	if _, err := s.Get(ctx, proposalID); err != nil {
		return nil, err
	}
	documents, err := s.store.ListDocuments(ctx, proposalID)
	if err != nil {
		return nil, storeError("list documents", err)
	}
	return documents, nil
}
