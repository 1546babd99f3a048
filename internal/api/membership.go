package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"membership-api/internal/models"
	"membership-api/internal/response"
	"membership-api/internal/services"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// ActivePlanResponse is the shape the member app reads to show the current plan.
type ActivePlanResponse struct {
	PlanID   *int    `json:"planId"`
	PlanName *string `json:"planName"`
	Message  string  `json:"message,omitempty"`
}

// MembershipView is a membership as returned by the API.
type MembershipView struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"userId"`
	PlanID    int       `json:"planId"`
	PlanName  string    `json:"planName"`
	StartDate time.Time `json:"startDate"`
	Status    string    `json:"status"`
}

func newMembershipView(m *models.Membership) *MembershipView {
	if m == nil {
		return nil
	}
	return &MembershipView{
		ID:        m.ID,
		UserID:    m.UserID,
		PlanID:    m.PlanID,
		PlanName:  m.PlanName,
		StartDate: m.StartDate,
		Status:    m.Status,
	}
}

// GetActiveMembership returns the user's active plan
// GET /api/membership/active/:userId
func (h *Handler) GetActiveMembership(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "userId is required")
		return
	}

	membership, err := h.memberships.ActiveMembership(c.Request.Context(), userID)
	if err != nil {
		logging.Errorf("Failed to get active membership for %s: %v", userID, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get active plan")
		return
	}

	if membership == nil {
		c.JSON(http.StatusOK, ActivePlanResponse{Message: "No active plan"})
		return
	}

	c.JSON(http.StatusOK, ActivePlanResponse{
		PlanID:   &membership.PlanID,
		PlanName: &membership.PlanName,
	})
}

// GetMembershipHistory lists every membership of a user, newest first
// GET /api/membership/history/:userId
func (h *Handler) GetMembershipHistory(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "userId is required")
		return
	}

	memberships, err := h.memberships.History(c.Request.Context(), userID)
	if err != nil {
		logging.Errorf("Failed to get membership history for %s: %v", userID, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get membership history")
		return
	}

	views := make([]*MembershipView, 0, len(memberships))
	for i := range memberships {
		views = append(views, newMembershipView(&memberships[i]))
	}
	response.SuccessJSON(c, views)
}

// ActivateMembershipRequest represents a staff activation request
type ActivateMembershipRequest struct {
	UserID   string `json:"userId" binding:"required"`
	PlanID   int    `json:"planId" binding:"required,min=1"`
	PlanName string `json:"planName"`
}

// ActivateMembershipResponse carries the new membership and the one it replaced.
type ActivateMembershipResponse struct {
	Membership *MembershipView `json:"membership"`
	Previous   *MembershipView `json:"previous,omitempty"`
}

// ActivateMembership switches a user to a plan, expiring the current one
// POST /api/membership/activate
func (h *Handler) ActivateMembership(c *gin.Context) {
	var req ActivateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "userId is required")
		return
	}

	membership, previous, err := h.memberships.Activate(c.Request.Context(), userID, req.PlanID, req.PlanName)
	switch {
	case errors.Is(err, services.ErrPlanNotFound):
		response.ErrorJSON(c, http.StatusNotFound, "Plan not found")
		return
	case err != nil:
		logging.Errorf("Failed to activate plan %d for %s: %v", req.PlanID, userID, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to activate plan")
		return
	}

	response.JSON(c, http.StatusCreated, response.SuccessWithMessage("Plan activated", ActivateMembershipResponse{
		Membership: newMembershipView(membership),
		Previous:   newMembershipView(previous),
	}))
}
