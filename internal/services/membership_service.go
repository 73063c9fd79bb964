package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/store"
)

// MembershipService reads a team's current members. Nothing is cached: membership
// can change between two calls of the same request.
type MembershipService struct {
	store  store.ProposalStore
	logger *slog.Logger
}

func NewMembershipService(s store.ProposalStore, logger *slog.Logger) *MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipService{store: s, logger: logger}
}

// Members returns the active member ids of teamID
func (s *MembershipService) Members(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.store.ListMembersByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("members", err)
	}

	// drop duplicate rows so callers can treat the result as a set
	seen := make(map[uuid.UUID]bool, len(ids))
	members := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	s.logger.Debug("Resolved team members", "team_id", teamID, "count", len(members))
	return members, nil
}
