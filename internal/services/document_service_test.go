package services

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/config"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateApprovalLetter(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	letters := NewDocumentService(cfg, e.store, NewStorageService(cfg))

	team, members := testutil.CreateTeam(t, e.db, "andi", "budi")
	source := testutil.CreateProposal(t, e.db, team, members[0], "Aplikasi Kasir")

	_, err := letters.GenerateApprovalLetter(ctx, source.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument, "not approved yet")

	_, err = e.approval.Approve(ctx, source.ID, "Lanjutkan")
	require.NoError(t, err)

	path, err := letters.GenerateApprovalLetter(ctx, source.ID)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))

	_, err = letters.GenerateApprovalLetter(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateApprovalLetter_Individual(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	letters := NewDocumentService(cfg, e.store, NewStorageService(cfg))

	student := testutil.CreateUser(t, e.db, "eka", models.RoleStudent)
	proposal := testutil.CreateProposal(t, e.db, nil, student, "Solo")
	_, err := e.approval.Approve(ctx, proposal.ID, "")
	require.NoError(t, err)

	path, err := letters.GenerateApprovalLetter(ctx, proposal.ID)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
