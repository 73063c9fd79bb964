package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/metrics"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
)

// ApprovalService drives approve, reject and revision requests:
// validate, repair the team fan-out, propagate the new status, report.
type ApprovalService struct {
	store      store.ProposalStore
	reconciler *ReconcileService
	sync       *SyncService
	logger     *slog.Logger
}

func NewApprovalService(s store.ProposalStore, reconciler *ReconcileService, sync *SyncService, logger *slog.Logger) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalService{
		store:      s,
		reconciler: reconciler,
		sync:       sync,
		logger:     logger,
	}
}

// Approve marks the proposal, and every proposal of its team, approved.
// Approving an approved proposal fails with ErrAlreadyApproved and writes nothing.
func (s *ApprovalService) Approve(ctx context.Context, proposalID uuid.UUID, note string) (*OperationResult, error) {
	return s.transition(ctx, "approve", proposalID, models.ProposalStatusApproved, strings.TrimSpace(note))
}

// Reject requires a reason. An approved proposal may still be rejected.
func (s *ApprovalService) Reject(ctx context.Context, proposalID uuid.UUID, reason string) (*OperationResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return s.fail("reject", opError("reject", ErrInvalidArgument, "rejection reason is required"))
	}
	return s.transition(ctx, "reject", proposalID, models.ProposalStatusRejected, reason)
}

// RequestRevision sends the proposal back to the team with the given feedback
func (s *ApprovalService) RequestRevision(ctx context.Context, proposalID uuid.UUID, feedback string) (*OperationResult, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return s.fail("revision", opError("revision", ErrInvalidArgument, "revision feedback is required"))
	}
	return s.transition(ctx, "revision", proposalID, models.ProposalStatusRevision, feedback)
}

// OverrideStatus sets the status of a single proposal without touching its team.
// Coordinators use it to correct one record by hand; team agreement is
// restored by the next Approve, Reject or RequestRevision on the team.
func (s *ApprovalService) OverrideStatus(ctx context.Context, proposalID uuid.UUID, status models.ProposalStatus, reason string) (*OperationResult, error) {
	const op = "override"
	if !status.Valid() {
		return s.fail(op, opError(op, ErrInvalidArgument, "unknown status %q", status))
	}

	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return s.fail(op, storeError(op, err))
	}

	err = s.store.UpdateProposal(ctx, proposal.ID, map[string]interface{}{
		store.FieldStatus:          status,
		store.FieldRejectionReason: strings.TrimSpace(reason),
		store.FieldUpdatedAt:       s.sync.now().UTC(),
	})
	if err != nil {
		return s.fail(op, storeError(op, err))
	}

	s.logger.Warn("Proposal status overridden outside team sync",
		"proposal_id", proposal.ID,
		"from", proposal.Status,
		"to", status)
	metrics.WorkflowOperations.WithLabelValues(op, "success").Inc()
	return succeeded(fmt.Sprintf("Proposal status set to %s", status), 1, nil), nil
}

func (s *ApprovalService) transition(ctx context.Context, op string, proposalID uuid.UUID, status models.ProposalStatus, reason string) (*OperationResult, error) {
	// Validate
	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return s.fail(op, storeError(op, err))
	}
	if status == models.ProposalStatusApproved && proposal.Status == models.ProposalStatusApproved {
		return s.fail(op, &Error{Op: op, Kind: ErrAlreadyApproved})
	}

	// Individual proposals have nobody to sync with
	if !proposal.IsTeam() {
		propagated, err := s.sync.PropagateStatus(ctx, proposal.ID, status, reason)
		if err != nil {
			return s.fail(op, err)
		}
		return s.report(op, status, 0, propagated, nil), nil
	}

	// Repair: every current member gets a record before the status moves
	var repairErrs []RowError
	created := 0
	repaired, err := s.reconciler.Reconcile(ctx, *proposal.TeamID, proposal.Template())
	if err != nil {
		s.logger.Warn("Team repair failed, propagating to existing proposals only",
			"team_id", *proposal.TeamID,
			"proposal_id", proposal.ID,
			"error", err)
		repairErrs = append(repairErrs, newRowError(uuid.Nil, uuid.Nil, err))
	} else {
		created = repaired.CreatedCount
		repairErrs = append(repairErrs, repaired.Errors...)
	}

	// Propagate
	propagated, err := s.sync.PropagateStatus(ctx, proposal.ID, status, reason)
	if err != nil {
		return s.fail(op, err)
	}

	return s.report(op, status, created, propagated, repairErrs), nil
}

func (s *ApprovalService) report(op string, status models.ProposalStatus, created int, propagated *PropagationResult, repairErrs []RowError) *OperationResult {
	rowErrs := append(repairErrs, propagated.Errors...)
	message := fmt.Sprintf("Proposal %s for %d record(s)", pastTense(status), propagated.AffectedCount)
	result := succeeded(message, propagated.AffectedCount, rowErrs)
	result.CreatedCount = created

	outcome := "success"
	if result.Partial() {
		outcome = "partial"
		result.Kind = KindPartialFailure
	}
	metrics.WorkflowOperations.WithLabelValues(op, outcome).Inc()
	return result
}

func (s *ApprovalService) fail(op string, err error) (*OperationResult, error) {
	metrics.WorkflowOperations.WithLabelValues(op, "failure").Inc()
	s.logger.Info("Workflow operation refused", "operation", op, "kind", KindOf(err), "error", err)
	return failed(err), err
}

func pastTense(status models.ProposalStatus) string {
	switch status {
	case models.ProposalStatusRevision:
		return "returned for revision"
	default:
		return string(status)
	}
}
