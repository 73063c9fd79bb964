package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/sikp/kp-portal/internal/config"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/store"
)

type DocumentService struct {
	config  *config.Config
	store   store.Store
	storage *StorageService
}

func NewDocumentService(cfg *config.Config, s store.Store, storage *StorageService) *DocumentService {
	return &DocumentService{config: cfg, store: s, storage: storage}
}

// GenerateApprovalLetter renders the internship approval letter of an approved
// proposal and returns the path of the written PDF
func (s *DocumentService) GenerateApprovalLetter(ctx context.Context, proposalID uuid.UUID) (string, error) {
	const op = "approval letter"

	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return "", storeError(op, err)
	}
	if proposal.Status != models.ProposalStatusApproved {
		return "", opError(op, ErrInvalidArgument, "proposal is %s, not approved", proposal.Status)
	}

	memberIDs := []uuid.UUID{proposal.MemberID}
	teamName := ""
	if proposal.IsTeam() {
		team, err := s.store.GetTeam(ctx, *proposal.TeamID)
		if err != nil {
			return "", storeError(op, err)
		}
		teamName = team.Name
		memberIDs, err = s.store.ListMembersByTeam(ctx, team.ID)
		if err != nil {
			return "", storeError(op, err)
		}
	}

	lookup := append([]uuid.UUID{}, memberIDs...)
	if proposal.SupervisorID != nil {
		lookup = append(lookup, *proposal.SupervisorID)
	}
	users, err := s.store.ListUsers(ctx, lookup)
	if err != nil {
		return "", storeError(op, err)
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "SURAT PERSETUJUAN KERJA PRAKTIK", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, s.config.AppName, "", 1, "C", false, 0, "")
	pdf.Ln(8)

	// Proposal
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, "PROPOSAL")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(50, 6, "Judul:")
	pdf.MultiCell(140, 6, proposal.Title, "", "", false)
	pdf.Cell(50, 6, "Perusahaan:")
	pdf.Cell(140, 6, proposal.CompanyName)
	pdf.Ln(6)
	if teamName != "" {
		pdf.Cell(50, 6, "Tim:")
		pdf.Cell(140, 6, teamName)
		pdf.Ln(6)
	}
	supervisor := "-"
	if proposal.SupervisorID != nil {
		if u, ok := byID[*proposal.SupervisorID]; ok {
			supervisor = u.DisplayName()
		}
	}
	pdf.Cell(50, 6, "Dosen Pembimbing:")
	pdf.Cell(140, 6, supervisor)
	pdf.Ln(6)
	pdf.Cell(50, 6, "Disetujui:")
	pdf.Cell(140, 6, proposal.UpdatedAt.Format("2 January 2006"))
	pdf.Ln(10)

	// Members
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, "ANGGOTA")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for i, id := range memberIDs {
		name := id.String()
		if u, ok := byID[id]; ok {
			name = u.DisplayName()
		}
		pdf.Cell(10, 6, fmt.Sprintf("%d.", i+1))
		pdf.Cell(180, 6, name)
		pdf.Ln(6)
	}
	if proposal.RejectionReason != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(190, 6, "Catatan Koordinator")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, proposal.RejectionReason, "", "", false)
	}
	pdf.Ln(10)

	// Footer
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(190, 4, "Dokumen ini dibuat otomatis oleh "+s.config.AppName+" dan berlaku tanpa tanda tangan basah.", "", "", false)

	docsDir := s.storage.LetterDir()
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("persetujuan_%s_%s.pdf", proposal.ID.String()[:8], time.Now().Format("20060102"))
	filePath := filepath.Join(docsDir, filename)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}

	return filePath, nil
}
