package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/store"
)

// TeamService manages membership and supervisor assignments
type TeamService struct {
	store  store.Store
	sync   *SyncService
	logger *slog.Logger
}

func NewTeamService(s store.Store, sync *SyncService, logger *slog.Logger) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamService{store: s, sync: sync, logger: logger}
}

// AddMember joins userID to the team. The new member's proposal appears at the
// next reconciliation.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	const op = "add member"
	if _, err := s.store.GetTeam(ctx, teamID); err != nil {
		return storeError(op, err)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return storeError(op, err)
	}

	err := s.store.AddMember(ctx, teamID, userID)
	if errors.Is(err, store.ErrAlreadyMember) {
		return &Error{Op: op, Kind: ErrInvalidArgument, Err: err}
	}
	if err != nil {
		return storeError(op, err)
	}

	s.logger.Info("Team member added", "team_id", teamID, "user_id", userID)
	return nil
}

// RemoveMember marks the membership inactive. The member's proposal is kept.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	if err := s.store.DeactivateMember(ctx, teamID, userID); err != nil {
		return storeError("remove member", err)
	}
	s.logger.Info("Team member left", "team_id", teamID, "user_id", userID)
	return nil
}

// Members lists the active members of teamID
func (s *TeamService) Members(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.store.ListMembersByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("members", err)
	}
	return ids, nil
}

// AssignSupervisor records the assignment and mirrors the supervisor into team
// proposals that have none yet.
func (s *TeamService) AssignSupervisor(ctx context.Context, teamID, supervisorID uuid.UUID) (*OperationResult, error) {
	const op = "assign supervisor"
	if _, err := s.store.GetTeam(ctx, teamID); err != nil {
		err = storeError(op, err)
		return failed(err), err
	}
	if _, err := s.store.GetUser(ctx, supervisorID); err != nil {
		err = storeError(op, err)
		return failed(err), err
	}

	if err := s.store.AddSupervisor(ctx, teamID, supervisorID); err != nil {
		var opErr error
		if errors.Is(err, store.ErrSupervisorLimit) {
			opErr = &Error{Op: op, Kind: ErrInvalidArgument, Err: err}
		} else {
			opErr = storeError(op, err)
		}
		return failed(opErr), opErr
	}

	mirrored, err := s.sync.PropagateSupervisor(ctx, teamID, supervisorID)
	if err != nil {
		// the assignment stands; proposals pick it up on the next assignment or submission
		s.logger.Warn("Supervisor assigned but not mirrored", "team_id", teamID, "error", err)
		return succeeded("Supervisor assigned", 0, []RowError{newRowError(uuid.Nil, uuid.Nil, err)}), nil
	}
	return succeeded("Supervisor assigned", mirrored.AffectedCount, mirrored.Errors), nil
}
