package api

import (
	"errors"
	"net/http"
	"time"

	"membership-api/internal/metrics"
	"membership-api/internal/middleware"
	"membership-api/internal/services"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 1 << 20

// Header names the processor and our proxies have used for the signature.
var signatureHeaders = []string{
	"Paymongo-Signature",
	"X-Paymongo-Signature",
	"X-Webhook-Signature",
}

func signatureHeader(c *gin.Context) string {
	for _, name := range signatureHeaders {
		if v := c.GetHeader(name); v != "" {
			return v
		}
	}
	return ""
}

// PaymentWebhook handles payment processor callbacks
// POST /api/payment/webhook
//
// 200 tells the processor the delivery is done, including ignored events.
// 400 rejects unauthenticated deliveries; 500 asks for a retry.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	startTime := time.Now()
	result := "error"
	defer func() {
		metrics.WebhookRequests.WithLabelValues(result).Inc()
		metrics.WebhookDuration.Observe(time.Since(startTime).Seconds())
	}()

	// Read raw body; the signature covers the exact bytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	body, err := c.GetRawData()
	if err != nil {
		logging.Warnf("Failed to read webhook body: %v", err)
		result = "bad_request"
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.webhooks.HandleDelivery(c.Request.Context(), signatureHeader(c), body)

	var verr *services.VerificationError
	switch {
	case errors.As(err, &verr):
		result = "rejected"
		logging.Logger().Warn().
			Str("event", "webhook_rejected").
			Str("reason", string(verr.Kind)).
			Str("detail", verr.Detail).
			Str("request_id", middleware.GetRequestID(c)).
			Str("client_ip", c.ClientIP()).
			Msg("Payment webhook rejected")
		c.String(http.StatusBadRequest, "Invalid signature")

	case err != nil:
		logging.Logger().Error().
			Err(err).
			Str("user_id", outcome.UserID).
			Int("plan_id", outcome.PlanID).
			Str("request_id", middleware.GetRequestID(c)).
			Msg("Payment webhook processing failed")
		c.String(http.StatusInternalServerError, "Webhook processing failed")

	default:
		result = outcome.Label()
		logging.Infof("Payment webhook handled - result: %s, user_id: %s, plan_id: %d, duration: %v",
			result, outcome.UserID, outcome.PlanID, time.Since(startTime))
		c.String(http.StatusOK, "Webhook received")
	}
}
