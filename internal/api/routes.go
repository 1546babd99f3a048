package api

import (
	"membership-api/internal/middleware"
	"membership-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the HTTP API on top of the application services.
type Handler struct {
	webhooks    *services.WebhookService
	memberships *services.MembershipService
}

func NewHandler(webhooks *services.WebhookService, memberships *services.MembershipService) *Handler {
	return &Handler{webhooks: webhooks, memberships: memberships}
}

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler, adminAPIKey string) {
	r.Use(middleware.RequestID(), middleware.AccessLog())

	// API route group
	api := r.Group("/api")
	{
		// Payment processor callbacks (authenticated by signature, not api key)
		api.POST("/payment/webhook", h.PaymentWebhook)

		plans := api.Group("/plans")
		{
			plans.GET("", h.ListPlans)
			plans.GET("/:id", h.GetPlan)
		}

		membership := api.Group("/membership")
		{
			membership.GET("/active/:userId", h.GetActiveMembership)
			membership.GET("/history/:userId", h.GetMembershipHistory)
		}

		// Staff routes
		admin := api.Group("/membership")
		admin.Use(middleware.AdminAuthMiddleware(adminAPIKey))
		{
			admin.POST("/activate", h.ActivateMembership)
		}
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "membership-api",
		})
	})
}
