package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
)

// SubmitRequest is a student's initial proposal submission
type SubmitRequest struct {
	SubmitterID  uuid.UUID
	TeamName     string
	MemberIDs    []uuid.UUID // co-members, submitter excluded
	Title        string
	Description  string
	CompanyName  string
	SupervisorID *uuid.UUID
	Documents    []DocumentInput
}

// SubmitResult reports what the submission created
type SubmitResult struct {
	Proposal          *models.Proposal `json:"proposal"`
	TeamID            *uuid.UUID       `json:"team_id,omitempty"`
	CreatedCount      int              `json:"created_count"`
	DocumentsAttached int              `json:"documents_attached"`
	Errors            []RowError       `json:"errors"`
}

// SubmissionService creates a submission and fans it out to the team
type SubmissionService struct {
	store      store.Store
	reconciler *ReconcileService
	sync       *SyncService
	logger     *slog.Logger
}

func NewSubmissionService(s store.Store, reconciler *ReconcileService, sync *SyncService, logger *slog.Logger) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionService{
		store:      s,
		reconciler: reconciler,
		sync:       sync,
		logger:     logger,
	}
}

// Submit creates the team (when co-members are named), the submitter's proposal,
// every member's copy and the attached documents. Only the submitter's proposal
// is authoritative; copies and documents that fail are reported in Errors.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	const op = "submit"

	req.Title = strings.TrimSpace(req.Title)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	switch {
	case req.SubmitterID == uuid.Nil:
		return nil, opError(op, ErrInvalidArgument, "submitter is required")
	case req.Title == "":
		return nil, opError(op, ErrInvalidArgument, "title is required")
	case req.CompanyName == "":
		return nil, opError(op, ErrInvalidArgument, "company name is required")
	}

	members := coMembers(req.SubmitterID, req.MemberIDs)

	proposal := &models.Proposal{
		MemberID:     req.SubmitterID,
		Title:        req.Title,
		Description:  strings.TrimSpace(req.Description),
		CompanyName:  req.CompanyName,
		SupervisorID: req.SupervisorID,
		Status:       models.ProposalStatusSubmitted,
	}

	if len(members) > 0 {
		users, err := s.store.ListUsers(ctx, members)
		if err != nil {
			return nil, storeError(op, err)
		}
		if len(users) != len(members) {
			return nil, opError(op, ErrInvalidArgument, "%d of %d team members are unknown", len(members)-len(users), len(members))
		}

		name := strings.TrimSpace(req.TeamName)
		if name == "" {
			name = "Tim " + req.Title
		}
		team := &models.Team{Name: name, SubmittedByID: req.SubmitterID}
		// the team only exists together with the submitter's proposal
		if err := s.store.CreateTeamWithProposal(ctx, team, append([]uuid.UUID{req.SubmitterID}, members...), proposal); err != nil {
			return nil, storeError(op, err)
		}
	} else if err := s.store.InsertProposal(ctx, proposal); err != nil {
		return nil, storeError(op, err)
	}

	result := &SubmitResult{Proposal: proposal, TeamID: proposal.TeamID, Errors: []RowError{}}

	if proposal.IsTeam() {
		repaired, err := s.reconciler.Reconcile(ctx, *proposal.TeamID, proposal.Template())
		if err != nil {
			result.Errors = append(result.Errors, newRowError(uuid.Nil, uuid.Nil, err))
		} else {
			result.CreatedCount = repaired.CreatedCount
			result.Errors = append(result.Errors, repaired.Errors...)
		}
	}

	for _, doc := range req.Documents {
		attached, err := s.sync.PropagateDocument(ctx, proposal.ID, doc, req.SubmitterID)
		if err != nil {
			result.Errors = append(result.Errors, newRowError(proposal.ID, req.SubmitterID, err))
			continue
		}
		result.DocumentsAttached++
		result.Errors = append(result.Errors, attached.Errors...)
	}

	s.logger.Info("Proposal submitted",
		"proposal_id", proposal.ID,
		"team_id", proposal.TeamID,
		"copies", result.CreatedCount,
		"documents", result.DocumentsAttached,
		"errors", len(result.Errors))
	return result, nil
}

// coMembers drops the submitter and duplicates from ids
func coMembers(submitter uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{submitter: true, uuid.Nil: true}
	var out []uuid.UUID
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
