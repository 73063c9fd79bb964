package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fannedTeam creates a team of the given members with one proposal each
func fannedTeam(t *testing.T, e *engine, names ...string) (*models.Team, []*models.User, *models.Proposal) {
	t.Helper()

	team, members := testutil.CreateTeam(t, e.db, names...)
	source := testutil.CreateProposal(t, e.db, team, members[0], "Sistem Informasi Gudang")
	_, err := e.reconciler.Reconcile(context.Background(), team.ID, source.Template())
	require.NoError(t, err)
	require.Len(t, e.teamProposals(t, team.ID), len(names))
	return team, members, source
}

func TestPropagateStatus_MirrorsStatusAndReason(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi", "citra")

	result, err := e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusRejected, "Perusahaan tidak relevan")
	require.NoError(t, err)
	assert.Equal(t, 3, result.AffectedCount)
	assert.Empty(t, result.Errors)

	for _, p := range e.teamProposals(t, team.ID) {
		assert.Equal(t, models.ProposalStatusRejected, p.Status)
		assert.Equal(t, "Perusahaan tidak relevan", p.RejectionReason)
	}
}

func TestPropagateStatus_RepeatWritesNothing(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, source := fannedTeam(t, e, "andi", "budi", "citra")

	_, err := e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusRevision, "Lengkapi jadwal")
	require.NoError(t, err)
	before := e.store.writes()

	result, err := e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusRevision, "Lengkapi jadwal")
	require.NoError(t, err)
	assert.Equal(t, 0, result.AffectedCount)
	assert.Equal(t, before, e.store.writes())

	// a changed reason is a change
	result, err = e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusRevision, "Lengkapi jadwal dan anggaran")
	require.NoError(t, err)
	assert.Equal(t, 3, result.AffectedCount)
}

func TestPropagateStatus_SiblingFailureKeepsSource(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi", "citra", "dewi")

	var failing uuid.UUID
	for _, p := range e.teamProposals(t, team.ID) {
		if p.ID != source.ID {
			failing = p.ID
			break
		}
	}
	e.store.failUpdates[failing] = true

	result, err := e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.AffectedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, failing, result.Errors[0].ProposalID)

	for _, p := range e.teamProposals(t, team.ID) {
		if p.ID == failing {
			assert.Equal(t, models.ProposalStatusSubmitted, p.Status)
			continue
		}
		assert.Equal(t, models.ProposalStatusApproved, p.Status, "proposal %s", p.ID)
	}

	// the next run catches up the row that was left behind
	delete(e.store.failUpdates, failing)
	result, err = e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.AffectedCount)
	assert.Empty(t, result.Errors)
}

func TestPropagateStatus_SourceFailureIsFatal(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi")
	e.store.failUpdates[source.ID] = true

	_, err := e.sync.PropagateStatus(ctx, source.ID, models.ProposalStatusApproved, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	for _, p := range e.teamProposals(t, team.ID) {
		assert.Equal(t, models.ProposalStatusSubmitted, p.Status)
	}
}

func TestPropagateStatus_Invalid(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.sync.PropagateStatus(ctx, uuid.New(), models.ProposalStatusApproved, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.sync.PropagateStatus(ctx, uuid.New(), models.ProposalStatus("archived"), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPropagateStatus_IndividualProposal(t *testing.T) {
	e := newEngine(t)
	student := testutil.CreateUser(t, e.db, "eka", models.RoleStudent)
	proposal := testutil.CreateProposal(t, e.db, nil, student, "Solo")

	result, err := e.sync.PropagateStatus(context.Background(), proposal.ID, models.ProposalStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.AffectedCount)
}

func TestPropagateFeedback_CopiesToEverySibling(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi", "citra")
	dosen := testutil.CreateUser(t, e.db, "pak-dosen", models.RoleSupervisor)

	result, err := e.sync.PropagateFeedback(ctx, source.ID, dosen.ID, "  Perjelas ruang lingkup  ")
	require.NoError(t, err)
	assert.Equal(t, 3, result.AffectedCount)
	assert.Empty(t, result.Errors)

	seen := map[uuid.UUID]bool{}
	for _, p := range e.teamProposals(t, team.ID) {
		feedback, err := e.store.ListFeedback(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, feedback, 1, "proposal %s", p.ID)
		assert.Equal(t, dosen.ID, feedback[0].AuthorID)
		assert.Equal(t, "Perjelas ruang lingkup", feedback[0].Content)
		assert.False(t, seen[feedback[0].ID], "feedback rows must be distinct")
		seen[feedback[0].ID] = true
	}
}

func TestPropagateFeedback_SiblingFailure(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi", "citra")
	dosen := testutil.CreateUser(t, e.db, "pak-dosen", models.RoleSupervisor)

	var failing uuid.UUID
	for _, p := range e.teamProposals(t, team.ID) {
		if p.ID != source.ID {
			failing = p.ID
		}
	}
	e.store.failInserts[failing] = true

	result, err := e.sync.PropagateFeedback(ctx, source.ID, dosen.ID, "Revisi bab 2")
	require.NoError(t, err)
	assert.Equal(t, 2, result.AffectedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, failing, result.Errors[0].ProposalID)

	onSource, err := e.store.ListFeedback(ctx, source.ID)
	require.NoError(t, err)
	assert.Len(t, onSource, 1)
}

func TestPropagateFeedback_SourceFailureIsFatal(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi")
	dosen := testutil.CreateUser(t, e.db, "pak-dosen", models.RoleSupervisor)
	e.store.failInserts[source.ID] = true

	_, err := e.sync.PropagateFeedback(ctx, source.ID, dosen.ID, "Revisi bab 2")
	require.Error(t, err)

	for _, p := range e.teamProposals(t, team.ID) {
		feedback, err := e.store.ListFeedback(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, feedback)
	}
}

func TestPropagateFeedback_ListFailureAfterSourceWrite(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, _, source := fannedTeam(t, e, "andi", "budi")
	dosen := testutil.CreateUser(t, e.db, "pak-dosen", models.RoleSupervisor)
	e.store.failListByTeam = true

	result, err := e.sync.PropagateFeedback(ctx, source.ID, dosen.ID, "Revisi bab 2")
	require.NoError(t, err)
	assert.Equal(t, 1, result.AffectedCount)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], ErrUnavailable)
}

func TestPropagateFeedback_Validation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.sync.PropagateFeedback(ctx, uuid.New(), uuid.New(), "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.sync.PropagateFeedback(ctx, uuid.New(), uuid.Nil, "ok")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.sync.PropagateFeedback(ctx, uuid.New(), uuid.New(), "ok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropagateDocument(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, members, source := fannedTeam(t, e, "andi", "budi", "citra")

	doc := DocumentInput{FileName: "proposal.pdf", FileURL: "/uploads/a/proposal.pdf", FileType: "pdf"}
	result, err := e.sync.PropagateDocument(ctx, source.ID, doc, members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.AffectedCount)

	for _, p := range e.teamProposals(t, team.ID) {
		docs, err := e.store.ListDocuments(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "proposal.pdf", docs[0].FileName)
		assert.Equal(t, members[0].ID, docs[0].UploadedBy)
	}

	_, err = e.sync.PropagateDocument(ctx, source.ID, DocumentInput{FileName: "x.pdf"}, members[0].ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPropagateSupervisor_FillsOnlyEmpty(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	team, _, source := fannedTeam(t, e, "andi", "budi", "citra")
	first := testutil.CreateUser(t, e.db, "dosen-a", models.RoleSupervisor)
	second := testutil.CreateUser(t, e.db, "dosen-b", models.RoleSupervisor)

	require.NoError(t, e.db.Model(&models.Proposal{}).Where("id = ?", source.ID).Update("supervisor_id", first.ID).Error)

	result, err := e.sync.PropagateSupervisor(ctx, team.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.AffectedCount)

	proposals := e.teamProposals(t, team.ID)
	for _, p := range proposals {
		assert.True(t, proposals[0].UpdatedAt.Equal(p.UpdatedAt), "updated_at of %s", p.ID)
		require.NotNil(t, p.SupervisorID)
		if p.ID == source.ID {
			assert.Equal(t, first.ID, *p.SupervisorID)
		} else {
			assert.Equal(t, second.ID, *p.SupervisorID)
		}
	}
}
