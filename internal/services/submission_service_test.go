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

func TestSubmit_Team(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	andi := testutil.CreateUser(t, e.db, "andi", models.RoleStudent)
	budi := testutil.CreateUser(t, e.db, "budi", models.RoleStudent)
	citra := testutil.CreateUser(t, e.db, "citra", models.RoleStudent)
	dosen := testutil.CreateUser(t, e.db, "dosen", models.RoleSupervisor)

	result, err := e.submission.Submit(ctx, SubmitRequest{
		SubmitterID:  andi.ID,
		MemberIDs:    []uuid.UUID{budi.ID, citra.ID, andi.ID, budi.ID},
		Title:        " Aplikasi Kasir ",
		Description:  "Kasir berbasis web",
		CompanyName:  "PT Maju Jaya",
		SupervisorID: &dosen.ID,
		Documents: []DocumentInput{
			{FileName: "proposal.pdf", FileURL: "/uploads/proposals/x.pdf", FileType: "application/pdf"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.TeamID)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, 1, result.DocumentsAttached)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Aplikasi Kasir", result.Proposal.Title)

	team, err := e.store.GetTeam(ctx, *result.TeamID)
	require.NoError(t, err)
	assert.Equal(t, "Tim Aplikasi Kasir", team.Name)

	proposals := e.teamProposals(t, *result.TeamID)
	require.Len(t, proposals, 3)
	assert.ElementsMatch(t, []uuid.UUID{andi.ID, budi.ID, citra.ID}, owners(proposals))
	for _, p := range proposals {
		assert.True(t, result.Proposal.SharedFieldsEqual(&p))
		require.NotNil(t, p.SupervisorID)
		assert.Equal(t, dosen.ID, *p.SupervisorID)

		docs, err := e.store.ListDocuments(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	}
}

func TestSubmit_Individual(t *testing.T) {
	e := newEngine(t)

	eka := testutil.CreateUser(t, e.db, "eka", models.RoleStudent)
	result, err := e.submission.Submit(context.Background(), SubmitRequest{
		SubmitterID: eka.ID,
		Title:       "Solo",
		CompanyName: "CV Sendiri",
	})
	require.NoError(t, err)
	assert.Nil(t, result.TeamID)
	assert.False(t, result.Proposal.IsTeam())
	assert.Equal(t, models.ProposalStatusSubmitted, result.Proposal.Status)
}

func TestSubmit_CopyFailureIsReported(t *testing.T) {
	e := newEngine(t)

	andi := testutil.CreateUser(t, e.db, "andi", models.RoleStudent)
	budi := testutil.CreateUser(t, e.db, "budi", models.RoleStudent)
	e.store.failInserts[budi.ID] = true

	result, err := e.submission.Submit(context.Background(), SubmitRequest{
		SubmitterID: andi.ID,
		MemberIDs:   []uuid.UUID{budi.ID},
		Title:       "X",
		CompanyName: "PT X",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, budi.ID, result.Errors[0].MemberID)
}

func TestSubmit_SubmitterProposalFailureLeavesNoTeam(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	andi := testutil.CreateUser(t, e.db, "andi", models.RoleStudent)
	budi := testutil.CreateUser(t, e.db, "budi", models.RoleStudent)
	e.store.failInserts[andi.ID] = true

	req := SubmitRequest{
		SubmitterID: andi.ID,
		MemberIDs:   []uuid.UUID{budi.ID},
		Title:       "X",
		CompanyName: "PT X",
	}
	_, err := e.submission.Submit(ctx, req)
	require.Error(t, err)

	var teams, memberships int64
	require.NoError(t, e.db.Model(&models.Team{}).Count(&teams).Error)
	require.NoError(t, e.db.Model(&models.TeamMember{}).Count(&memberships).Error)
	assert.Zero(t, teams)
	assert.Zero(t, memberships)

	// a retry creates exactly one team
	delete(e.store.failInserts, andi.ID)
	result, err := e.submission.Submit(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result.TeamID)
	require.NoError(t, e.db.Model(&models.Team{}).Count(&teams).Error)
	assert.Equal(t, int64(1), teams)
	assert.Len(t, e.teamProposals(t, *result.TeamID), 2)
}

func TestSubmit_Validation(t *testing.T) {
	e := newEngine(t)
	andi := testutil.CreateUser(t, e.db, "andi", models.RoleStudent)

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"no submitter", SubmitRequest{Title: "X", CompanyName: "PT X"}},
		{"no title", SubmitRequest{SubmitterID: andi.ID, Title: "  ", CompanyName: "PT X"}},
		{"no company", SubmitRequest{SubmitterID: andi.ID, Title: "X"}},
		{"unknown member", SubmitRequest{SubmitterID: andi.ID, Title: "X", CompanyName: "PT X", MemberIDs: []uuid.UUID{uuid.New()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.submission.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
	assert.Equal(t, 0, e.store.writes())
}

func TestCoMembers(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{b, c}, coMembers(a, []uuid.UUID{a, b, uuid.Nil, c, b}))
	assert.Empty(t, coMembers(a, []uuid.UUID{a}))
}
