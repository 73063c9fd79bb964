package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/metrics"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
)

// ReconcileService repairs fan-out drift: every current member of a team gets
// exactly one proposal, and proposals missing a supervisor get the team's.
// It never deletes rows.
type ReconcileService struct {
	store       store.ProposalStore
	membership  *MembershipService
	sync        *SyncService
	concurrency int
	logger      *slog.Logger
}

func NewReconcileService(s store.ProposalStore, membership *MembershipService, concurrency int, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		store:       s,
		membership:  membership,
		sync:        NewSyncService(s, concurrency, logger),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Reconcile creates a proposal from template for every member of teamID that has none.
// A template without a supervisor takes the team's first supervisor assignment, and
// that supervisor is filled into existing proposals that lack one.
// Failed writes are reported, not retried. Calling it again with unchanged
// membership writes nothing.
func (s *ReconcileService) Reconcile(ctx context.Context, teamID uuid.UUID, template models.ProposalTemplate) (*ReconcileResult, error) {
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues("reconcile").Observe(time.Since(start).Seconds())
	}()

	members, err := s.membership.Members(ctx, teamID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListProposalsByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("reconcile", err)
	}

	owned := make(map[uuid.UUID]bool, len(existing))
	for _, p := range existing {
		owned[p.MemberID] = true
	}
	active := make(map[uuid.UUID]bool, len(members))
	var missing []uuid.UUID
	for _, id := range members {
		active[id] = true
		if !owned[id] {
			missing = append(missing, id)
		}
	}

	result := &ReconcileResult{Errors: []RowError{}}
	if template.SupervisorID == nil {
		supervisors, err := s.store.ListSupervisorsByTeam(ctx, teamID)
		switch {
		case err != nil:
			s.logger.Warn("Failed to read team supervisors", "team_id", teamID, "error", err)
			result.Errors = append(result.Errors, newRowError(uuid.Nil, uuid.Nil, storeError("reconcile", err)))
		case len(supervisors) > 0:
			id := supervisors[0]
			template.SupervisorID = &id
		}
	}

	for _, p := range existing {
		if !active[p.MemberID] {
			result.Orphaned = append(result.Orphaned, p.ID)
		}
	}

	if template.Status == "" {
		template.Status = models.ProposalStatusSubmitted
	}

	created := make([]*models.Proposal, len(missing))
	errs := settle(ctx, s.concurrency, len(missing), func(ctx context.Context, i int) error {
		created[i] = template.NewProposalFor(teamID, missing[i])
		return s.store.InsertProposal(ctx, created[i])
	})
	for i, err := range errs {
		metrics.RecordWrite("reconcile", err)
		if err != nil {
			s.logger.Warn("Failed to create member proposal",
				"team_id", teamID,
				"member_id", missing[i],
				"error", err)
			result.Errors = append(result.Errors, newRowError(uuid.Nil, missing[i], err))
			continue
		}
		result.CreatedCount++
		existing = append(existing, *created[i])
	}
	metrics.ReconcileCreated.Add(float64(result.CreatedCount))

	if template.SupervisorID != nil {
		filled, rowErrs := s.sync.fillSupervisor(ctx, existing, *template.SupervisorID)
		result.SupervisorFilled = filled
		result.Errors = append(result.Errors, rowErrs...)
	}

	if len(missing) > 0 || len(result.Orphaned) > 0 || result.SupervisorFilled > 0 {
		s.logger.Info("Reconciled team proposals",
			"team_id", teamID,
			"members", len(members),
			"created", result.CreatedCount,
			"supervisor_filled", result.SupervisorFilled,
			"failed", len(result.Errors),
			"orphaned", len(result.Orphaned))
	}
	return result, nil
}

// ReconcileTeam repairs teamID using its most recently updated proposal as the template.
// A team without any proposal has nothing to copy and is left alone.
func (s *ReconcileService) ReconcileTeam(ctx context.Context, teamID uuid.UUID) (*ReconcileResult, error) {
	existing, err := s.store.ListProposalsByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("reconcile", err)
	}
	if len(existing) == 0 {
		if _, err := s.membership.Members(ctx, teamID); err != nil {
			return nil, err
		}
		return &ReconcileResult{Errors: []RowError{}}, nil
	}
	return s.Reconcile(ctx, teamID, latest(existing).Template())
}

func latest(proposals []models.Proposal) *models.Proposal {
	newest := &proposals[0]
	for i := range proposals[1:] {
		if proposals[i+1].UpdatedAt.After(newest.UpdatedAt) {
			newest = &proposals[i+1]
		}
	}
	return newest
}
