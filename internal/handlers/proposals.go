package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/middleware"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/services"
)

type ProposalHandler struct {
	proposals   *services.ProposalService
	submissions *services.SubmissionService
	sync        *services.SyncService
	documents   *services.DocumentService
	storage     *services.StorageService
}

func NewProposalHandler(
	proposals *services.ProposalService,
	submissions *services.SubmissionService,
	sync *services.SyncService,
	documents *services.DocumentService,
	storage *services.StorageService,
) *ProposalHandler {
	return &ProposalHandler{
		proposals:   proposals,
		submissions: submissions,
		sync:        sync,
		documents:   documents,
		storage:     storage,
	}
}

// SubmitRequest is the body of a new submission
type SubmitRequest struct {
	TeamName     string                   `json:"team_name"`
	MemberIDs    []uuid.UUID              `json:"member_ids"`
	Title        string                   `json:"title" binding:"required"`
	Description  string                   `json:"description"`
	CompanyName  string                   `json:"company_name" binding:"required"`
	SupervisorID *uuid.UUID               `json:"supervisor_id"`
	Documents    []services.DocumentInput `json:"documents"`
}

// Submit creates the caller's proposal and one copy per team member
func (h *ProposalHandler) Submit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.submissions.Submit(c.Request.Context(), services.SubmitRequest{
		SubmitterID:  userID,
		TeamName:     req.TeamName,
		MemberIDs:    req.MemberIDs,
		Title:        req.Title,
		Description:  req.Description,
		CompanyName:  req.CompanyName,
		SupervisorID: req.SupervisorID,
		Documents:    req.Documents,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// GetProposal returns one proposal. Students only see their own.
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	proposal, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}

func (h *ProposalHandler) ListFeedback(c *gin.Context) {
	proposal, ok := h.load(c)
	if !ok {
		return
	}

	feedback, err := h.proposals.Feedback(c.Request.Context(), proposal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": feedback, "total": len(feedback)})
}

// AddFeedback records the caller's feedback on every proposal of the team
func (h *ProposalHandler) AddFeedback(c *gin.Context) {
	proposalID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	propagated, err := h.sync.PropagateFeedback(c.Request.Context(), proposalID, userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	respondResult(c, propagated.Operation("Feedback recorded"), nil)
}

func (h *ProposalHandler) ListDocuments(c *gin.Context) {
	proposal, ok := h.load(c)
	if !ok {
		return
	}

	documents, err := h.proposals.Documents(c.Request.Context(), proposal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents, "total": len(documents)})
}

// DownloadLetter renders and sends the approval letter of an approved proposal
func (h *ProposalHandler) DownloadLetter(c *gin.Context) {
	proposal, ok := h.load(c)
	if !ok {
		return
	}

	path, err := h.documents.GenerateApprovalLetter(c.Request.Context(), proposal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Upload stores one file and returns the attachment to reference in a submission
func (h *ProposalHandler) Upload(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "kind": services.KindInvalidArgument})
		return
	}

	document, err := h.storage.SaveDocument(userID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": document})
}

// load resolves the :id proposal and enforces student ownership
func (h *ProposalHandler) load(c *gin.Context) (*models.Proposal, bool) {
	proposalID, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	proposal, err := h.proposals.Get(c.Request.Context(), proposalID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetUserRole(c)
	if role == models.RoleStudent && proposal.MemberID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return proposal, true
}
