package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/services"
)

type TeamHandler struct {
	teams      *services.TeamService
	reconciler *services.ReconcileService
	proposals  *services.ProposalService
}

func NewTeamHandler(teams *services.TeamService, reconciler *services.ReconcileService, proposals *services.ProposalService) *TeamHandler {
	return &TeamHandler{
		teams:      teams,
		reconciler: reconciler,
		proposals:  proposals,
	}
}

// Reconcile creates the proposals missing for current team members
func (h *TeamHandler) Reconcile(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := h.reconciler.ReconcileTeam(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (h *TeamHandler) ListProposals(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	proposals, err := h.proposals.ListByTeam(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "total": len(proposals)})
}

func (h *TeamHandler) ListMembers(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	members, err := h.teams.Members(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

func (h *TeamHandler) AddMember(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.teams.AddMember(c.Request.Context(), teamID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Member added, run reconcile to create their proposal"})
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}
	memberID, ok := paramID(c, "memberId")
	if !ok {
		return
	}

	if err := h.teams.RemoveMember(c.Request.Context(), teamID, memberID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *TeamHandler) AssignSupervisor(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		SupervisorID uuid.UUID `json:"supervisor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.teams.AssignSupervisor(c.Request.Context(), teamID, req.SupervisorID)
	respondResult(c, result, err)
}
