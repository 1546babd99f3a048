package api

import (
	"net/http"
	"strconv"

	"membership-api/internal/models"
	"membership-api/internal/response"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// PlanView is a catalog plan as returned by the API.
type PlanView struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Duration string   `json:"duration"`
	Features []string `json:"features"`
}

func newPlanView(p *models.Plan) PlanView {
	return PlanView{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Duration: p.Duration,
		Features: p.FeatureList(),
	}
}

// ListPlans returns the plan catalog
// GET /api/plans
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.memberships.Plans(c.Request.Context())
	if err != nil {
		logging.Errorf("Failed to list plans: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get plans")
		return
	}

	views := make([]PlanView, 0, len(plans))
	for i := range plans {
		views = append(views, newPlanView(&plans[i]))
	}
	response.SuccessJSON(c, views)
}

// GetPlan returns one plan
// GET /api/plans/:id
func (h *Handler) GetPlan(c *gin.Context) {
	planID, err := strconv.Atoi(c.Param("id"))
	if err != nil || planID < 1 {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid plan id")
		return
	}

	plan, err := h.memberships.Plan(c.Request.Context(), planID)
	if err != nil {
		logging.Errorf("Failed to get plan %d: %v", planID, err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get plan")
		return
	}
	if plan == nil {
		response.ErrorJSON(c, http.StatusNotFound, "Plan not found")
		return
	}

	response.SuccessJSON(c, newPlanView(plan))
}
