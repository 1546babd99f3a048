package main

import (
	"membership-api/internal/api"
	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/services"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logging
	logging.InitLogging(cfg.Mode)

	if !cfg.SignatureCheckEnabled() {
		if cfg.IsRelease() {
			logging.Errorf("PAYMONGO_WEBHOOK_SECRET is not set; payment webhooks are accepted without signature verification")
		} else {
			logging.Warnf("PAYMONGO_WEBHOOK_SECRET is not set; webhook signature verification is disabled")
		}
	}

	// Initialize database
	db, err := database.Open(cfg)
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Redis is optional; without it duplicate deliveries are tracked in process
	redisClient, err := database.OpenRedis(cfg.RedisURL)
	if err != nil {
		logging.Warnf("Redis unavailable, using in-memory delivery guard: %v", err)
		redisClient = nil
	}
	defer database.Close(db, redisClient)

	var guard services.DeliveryGuard
	if redisClient != nil {
		guard = services.NewRedisDeliveryGuard(redisClient, cfg.DeliveryTTL)
	} else {
		memoryGuard := services.NewMemoryDeliveryGuard(cfg.DeliveryTTL)
		defer memoryGuard.Stop()
		guard = memoryGuard
	}

	memberships := database.NewMembershipRepository(db)
	plans := database.NewPlanRepository(db)

	webhooks := services.NewWebhookService(
		services.NewSignatureVerifier(cfg.WebhookSecret, cfg.LiveMode),
		guard,
		services.NewActivationService(memberships, plans, cfg.StoreTimeout),
	)
	if notifier := services.NewMembershipNotifier(cfg.CallbackURL, cfg.CallbackSecret); notifier != nil {
		webhooks.WithNotifier(notifier)
	}

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.New()
	r.Use(gin.Recovery())

	// Setup routes
	handler := api.NewHandler(webhooks, services.NewMembershipService(memberships, plans, cfg.StoreTimeout))
	api.SetupRoutes(r, handler, cfg.AdminAPIKey)

	// Start server
	logging.Infof("Starting server on port %s (live_mode: %t, signature_check: %t)", cfg.Port, cfg.LiveMode, cfg.SignatureCheckEnabled())

	if err := r.Run(":" + cfg.Port); err != nil {
		logging.Logger().Fatal().Err(err).Msg("Failed to start server")
	}
}
