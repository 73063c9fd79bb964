package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
	"github.com/sikp/kp-portal/internal/testutil"
	"gorm.io/gorm"
)

var errInjected = errors.New("injected write failure")

// faultyStore fails writes addressed to selected proposals and counts the rest
type faultyStore struct {
	store.Store

	mu             sync.Mutex
	failUpdates    map[uuid.UUID]bool
	failInserts    map[uuid.UUID]bool // keyed by proposal id for feedback/documents, member id for proposals
	failListByTeam bool
	updates        int
	inserts        int
}

func newFaultyStore(s store.Store) *faultyStore {
	return &faultyStore{
		Store:       s,
		failUpdates: map[uuid.UUID]bool{},
		failInserts: map[uuid.UUID]bool{},
	}
}

func (f *faultyStore) shouldFail(set map[uuid.UUID]bool, id uuid.UUID, counter *int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set[id] {
		return true
	}
	*counter++
	return false
}

func (f *faultyStore) UpdateProposal(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if f.shouldFail(f.failUpdates, id, &f.updates) {
		return errInjected
	}
	return f.Store.UpdateProposal(ctx, id, fields)
}

func (f *faultyStore) InsertProposal(ctx context.Context, p *models.Proposal) error {
	if f.shouldFail(f.failInserts, p.MemberID, &f.inserts) {
		return errInjected
	}
	return f.Store.InsertProposal(ctx, p)
}

func (f *faultyStore) CreateTeamWithProposal(ctx context.Context, team *models.Team, memberIDs []uuid.UUID, p *models.Proposal) error {
	if f.shouldFail(f.failInserts, p.MemberID, &f.inserts) {
		return errInjected
	}
	return f.Store.CreateTeamWithProposal(ctx, team, memberIDs, p)
}

func (f *faultyStore) InsertFeedback(ctx context.Context, fb *models.ProposalFeedback) error {
	if f.shouldFail(f.failInserts, fb.ProposalID, &f.inserts) {
		return errInjected
	}
	return f.Store.InsertFeedback(ctx, fb)
}

func (f *faultyStore) InsertDocument(ctx context.Context, d *models.ProposalDocument) error {
	if f.shouldFail(f.failInserts, d.ProposalID, &f.inserts) {
		return errInjected
	}
	return f.Store.InsertDocument(ctx, d)
}

func (f *faultyStore) ListProposalsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Proposal, error) {
	f.mu.Lock()
	fail := f.failListByTeam
	f.mu.Unlock()
	if fail {
		return nil, store.ErrUnavailable
	}
	return f.Store.ListProposalsByTeam(ctx, teamID)
}

func (f *faultyStore) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates + f.inserts
}

type engine struct {
	db         *gorm.DB
	store      *faultyStore
	membership *MembershipService
	reconciler *ReconcileService
	sync       *SyncService
	approval   *ApprovalService
	submission *SubmissionService
	teams      *TeamService
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	db := testutil.NewDB(t)
	s := newFaultyStore(store.NewGormStore(db))

	membership := NewMembershipService(s, nil)
	reconciler := NewReconcileService(s, membership, 4, nil)
	syncer := NewSyncService(s, 4, nil)

	return &engine{
		db:         db,
		store:      s,
		membership: membership,
		reconciler: reconciler,
		sync:       syncer,
		approval:   NewApprovalService(s, reconciler, syncer, nil),
		submission: NewSubmissionService(s, reconciler, syncer, nil),
		teams:      NewTeamService(s, syncer, nil),
	}
}

func (e *engine) teamProposals(t *testing.T, teamID uuid.UUID) []models.Proposal {
	t.Helper()
	proposals, err := e.store.Store.ListProposalsByTeam(context.Background(), teamID)
	if err != nil {
		t.Fatalf("list proposals: %v", err)
	}
	return proposals
}

func owners(proposals []models.Proposal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(proposals))
	for _, p := range proposals {
		ids = append(ids, p.MemberID)
	}
	return ids
}

func userIDs(users []*models.User) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func proposalIDs(proposals []models.Proposal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(proposals))
	for _, p := range proposals {
		ids = append(ids, p.ID)
	}
	return ids
}
