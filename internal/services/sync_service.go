package services

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/metrics"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
)

// SyncService replicates a change made on one member's proposal to every
// sibling proposal of the same team. The source row is always written before
// any sibling; siblings are written concurrently and may fail independently.
type SyncService struct {
	store       store.ProposalStore
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func NewSyncService(s store.ProposalStore, concurrency int, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		store:       s,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// PropagateStatus writes status, reason and a fresh updated_at to every proposal of
// the owning team, source included. Rows already carrying status and reason are skipped,
// so repeating the call only touches what is still behind.
func (s *SyncService) PropagateStatus(ctx context.Context, proposalID uuid.UUID, status models.ProposalStatus, reason string) (*PropagationResult, error) {
	const op = "propagate status"
	if !status.Valid() {
		return nil, opError(op, ErrInvalidArgument, "unknown status %q", status)
	}

	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues("status").Observe(time.Since(start).Seconds())
	}()

	source, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, storeError(op, err)
	}

	targets := []models.Proposal{*source}
	if source.IsTeam() {
		targets, err = s.store.ListProposalsByTeam(ctx, *source.TeamID)
		if err != nil {
			return nil, storeError(op, err)
		}
	}

	now := s.now().UTC()
	fields := func() map[string]interface{} {
		return map[string]interface{}{
			store.FieldStatus:          status,
			store.FieldRejectionReason: reason,
			store.FieldUpdatedAt:       now,
		}
	}
	stale := func(p *models.Proposal) bool {
		return p.Status != status || p.RejectionReason != reason
	}

	result := &PropagationResult{Errors: []RowError{}}
	if stale(source) {
		err := s.store.UpdateProposal(ctx, source.ID, fields())
		metrics.RecordWrite("status", err)
		if err != nil {
			s.logger.Error("Failed to update source proposal status",
				"proposal_id", source.ID,
				"status", status,
				"error", err)
			return nil, storeError(op, err)
		}
		result.AffectedCount++
	}

	var siblings []models.Proposal
	for _, p := range targets {
		if p.ID != source.ID && stale(&p) {
			siblings = append(siblings, p)
		}
	}

	written, rowErrs := s.fanOut(ctx, "status", siblings, func(ctx context.Context, p *models.Proposal) error {
		return s.store.UpdateProposal(ctx, p.ID, fields())
	})
	result.AffectedCount += written
	result.Errors = append(result.Errors, rowErrs...)

	return result, nil
}

// PropagateFeedback records content on the source proposal, then copies it as a
// separate row onto every sibling. Sibling failures never undo the source row.
func (s *SyncService) PropagateFeedback(ctx context.Context, sourceProposalID, authorID uuid.UUID, content string) (*PropagationResult, error) {
	const op = "propagate feedback"
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, opError(op, ErrInvalidArgument, "feedback content is required")
	}
	if authorID == uuid.Nil {
		return nil, opError(op, ErrInvalidArgument, "feedback author is required")
	}

	createdAt := s.now().UTC()
	return s.duplicate(ctx, op, "feedback", sourceProposalID, func(ctx context.Context, proposalID uuid.UUID) error {
		return s.store.InsertFeedback(ctx, &models.ProposalFeedback{
			ProposalID: proposalID,
			AuthorID:   authorID,
			Content:    content,
			CreatedAt:  createdAt,
		})
	})
}

// DocumentInput describes a file already held in the blob store
type DocumentInput struct {
	FileName string `json:"file_name" binding:"required"`
	FileURL  string `json:"file_url" binding:"required"`
	FileType string `json:"file_type"`
}

// PropagateDocument attaches the file to the source proposal and to every sibling.
// It is meant for initial submission; later edits are not mirrored.
func (s *SyncService) PropagateDocument(ctx context.Context, sourceProposalID uuid.UUID, doc DocumentInput, uploaderID uuid.UUID) (*PropagationResult, error) {
	const op = "propagate document"
	if strings.TrimSpace(doc.FileName) == "" || strings.TrimSpace(doc.FileURL) == "" {
		return nil, opError(op, ErrInvalidArgument, "file name and url are required")
	}
	if uploaderID == uuid.Nil {
		return nil, opError(op, ErrInvalidArgument, "uploader is required")
	}

	createdAt := s.now().UTC()
	return s.duplicate(ctx, op, "document", sourceProposalID, func(ctx context.Context, proposalID uuid.UUID) error {
		return s.store.InsertDocument(ctx, &models.ProposalDocument{
			ProposalID: proposalID,
			FileName:   doc.FileName,
			FileURL:    doc.FileURL,
			FileType:   doc.FileType,
			UploadedBy: uploaderID,
			CreatedAt:  createdAt,
		})
	})
}

// PropagateSupervisor fills supervisorID into every proposal of teamID that has no supervisor yet
func (s *SyncService) PropagateSupervisor(ctx context.Context, teamID, supervisorID uuid.UUID) (*PropagationResult, error) {
	proposals, err := s.store.ListProposalsByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("propagate supervisor", err)
	}

	filled, rowErrs := s.fillSupervisor(ctx, proposals, supervisorID)
	return &PropagationResult{AffectedCount: filled, Errors: append([]RowError{}, rowErrs...)}, nil
}

// fillSupervisor writes supervisorID into the proposals that lack one. When any row
// is filled, every row of the set gets the same updated_at so the team stays in step.
// It returns the number of rows that received the supervisor.
func (s *SyncService) fillSupervisor(ctx context.Context, proposals []models.Proposal, supervisorID uuid.UUID) (int, []RowError) {
	missing := 0
	for _, p := range proposals {
		if p.SupervisorID == nil {
			missing++
		}
	}
	if missing == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	var filled atomic.Int64
	_, rowErrs := s.fanOut(ctx, "supervisor", proposals, func(ctx context.Context, p *models.Proposal) error {
		fields := map[string]interface{}{store.FieldUpdatedAt: now}
		if p.SupervisorID == nil {
			fields[store.FieldSupervisorID] = supervisorID
		}
		if err := s.store.UpdateProposal(ctx, p.ID, fields); err != nil {
			return err
		}
		if p.SupervisorID == nil {
			filled.Add(1)
		}
		return nil
	})
	return int(filled.Load()), rowErrs
}

// duplicate writes one row against the source proposal, then the same row against each sibling
func (s *SyncService) duplicate(ctx context.Context, op, kind string, sourceID uuid.UUID, insert func(ctx context.Context, proposalID uuid.UUID) error) (*PropagationResult, error) {
	start := time.Now()
	defer func() {
		metrics.SyncDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	source, err := s.store.GetProposal(ctx, sourceID)
	if err != nil {
		return nil, storeError(op, err)
	}

	err = insert(ctx, source.ID)
	metrics.RecordWrite(kind, err)
	if err != nil {
		s.logger.Error("Failed to record "+kind+" on source proposal",
			"proposal_id", source.ID,
			"error", err)
		return nil, storeError(op, err)
	}

	result := &PropagationResult{AffectedCount: 1, Errors: []RowError{}}
	if !source.IsTeam() {
		return result, nil
	}

	proposals, err := s.store.ListProposalsByTeam(ctx, *source.TeamID)
	if err != nil {
		// the source row stands; siblings catch up on the next sync
		s.logger.Warn("Failed to list sibling proposals",
			"team_id", *source.TeamID,
			"proposal_id", source.ID,
			"error", err)
		result.Errors = append(result.Errors, newRowError(uuid.Nil, uuid.Nil, storeError(op, err)))
		return result, nil
	}

	var siblings []models.Proposal
	for _, p := range proposals {
		if p.ID != source.ID {
			siblings = append(siblings, p)
		}
	}

	written, rowErrs := s.fanOut(ctx, kind, siblings, func(ctx context.Context, p *models.Proposal) error {
		return insert(ctx, p.ID)
	})
	result.AffectedCount += written
	result.Errors = append(result.Errors, rowErrs...)
	return result, nil
}

// fanOut applies write to every target concurrently and tallies the outcomes
func (s *SyncService) fanOut(ctx context.Context, kind string, targets []models.Proposal, write func(ctx context.Context, p *models.Proposal) error) (int, []RowError) {
	errs := settle(ctx, s.concurrency, len(targets), func(ctx context.Context, i int) error {
		return write(ctx, &targets[i])
	})

	written := 0
	var rowErrs []RowError
	for i, err := range errs {
		metrics.RecordWrite(kind, err)
		if err != nil {
			s.logger.Warn("Failed to sync sibling proposal",
				"kind", kind,
				"proposal_id", targets[i].ID,
				"member_id", targets[i].MemberID,
				"error", err)
			rowErrs = append(rowErrs, newRowError(targets[i].ID, targets[i].MemberID, err))
			continue
		}
		written++
	}
	return written, rowErrs
}
