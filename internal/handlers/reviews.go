package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/sikp/kp-portal/internal/services"
)

// ReviewHandler serves the coordinator's decisions on a proposal
type ReviewHandler struct {
	approval *services.ApprovalService
}

func NewReviewHandler(approval *services.ApprovalService) *ReviewHandler {
	return &ReviewHandler{approval: approval}
}

type decisionRequest struct {
	Note     string `json:"note"`
	Reason   string `json:"reason"`
	Feedback string `json:"feedback"`
}

func (h *ReviewHandler) Approve(c *gin.Context) {
	proposalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	// the note is optional: an empty body approves without one
	var req decisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	result, err := h.approval.Approve(c.Request.Context(), proposalID, req.Note)
	respondResult(c, result, err)
}

func (h *ReviewHandler) Reject(c *gin.Context) {
	proposalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.approval.Reject(c.Request.Context(), proposalID, req.Reason)
	respondResult(c, result, err)
}

func (h *ReviewHandler) RequestRevision(c *gin.Context) {
	proposalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.approval.RequestRevision(c.Request.Context(), proposalID, req.Feedback)
	respondResult(c, result, err)
}

// OverrideStatus corrects a single record without touching the rest of its team
func (h *ReviewHandler) OverrideStatus(c *gin.Context) {
	proposalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.ProposalStatus `json:"status" binding:"required"`
		Reason string                `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.approval.OverrideStatus(c.Request.Context(), proposalID, req.Status, req.Reason)
	respondResult(c, result, err)
}
