package services

import (
	"context"
	"errors"

	"membership-api/pkg/logging"
)

// WebhookService runs an inbound payment webhook through verification,
// duplicate suppression and activation.
type WebhookService struct {
	verifier   *SignatureVerifier
	guard      DeliveryGuard
	activation *ActivationService
	notifier   ActivationNotifier
}

// NewWebhookService wires the pipeline. guard may be nil.
func NewWebhookService(verifier *SignatureVerifier, guard DeliveryGuard, activation *ActivationService) *WebhookService {
	return &WebhookService{verifier: verifier, guard: guard, activation: activation}
}

// WithNotifier reports each new activation to n.
func (s *WebhookService) WithNotifier(n ActivationNotifier) *WebhookService {
	s.notifier = n
	return s
}

// HandleDelivery processes one delivery. A *VerificationError means the request
// must be rejected; ErrStorageUnavailable means it should be retried. Every
// other result is a successful outcome, including ignored events.
func (s *WebhookService) HandleDelivery(ctx context.Context, signatureHeader string, rawBody []byte) (ActivationOutcome, error) {
	if err := s.verifier.Verify(signatureHeader, rawBody); err != nil {
		return ActivationOutcome{}, err
	}

	event, err := ParseWebhookEvent(rawBody)
	if err != nil {
		logging.Warnf("Verified webhook has an unreadable payload: %v", err)
		return ignored(ReasonMalformedPayload), nil
	}

	key := event.DeliveryKey()
	if s.guard != nil {
		first, err := s.guard.Claim(ctx, key)
		switch {
		case err != nil:
			// The store still enforces one active membership, so carry on.
			logging.Warnf("Delivery guard unavailable, processing %s without duplicate check: %v", key, err)
		case !first:
			logging.Infof("Duplicate webhook delivery ignored - key: %s, type: %s", key, event.EventType)
			return ignored(ReasonDuplicateDelivery), nil
		}
	}

	outcome, err := s.activation.HandleEvent(ctx, event)
	if err != nil && errors.Is(err, ErrStorageUnavailable) && s.guard != nil {
		// Let the processor's retry through.
		if releaseErr := s.guard.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			logging.Errorf("Failed to release delivery %s after storage failure: %v", key, releaseErr)
		}
	}
	if err == nil && outcome.Activated && s.notifier != nil {
		s.notifier.NotifyActivated(outcome.Membership)
	}
	return outcome, err
}

// SignatureCheckEnabled reports whether deliveries must be signed.
func (s *WebhookService) SignatureCheckEnabled() bool {
	return s.verifier.Enabled()
}
