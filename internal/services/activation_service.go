package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-api/internal/metrics"
	"membership-api/internal/models"
	"membership-api/pkg/logging"
)

// ErrStorageUnavailable wraps every failure of the membership store,
// including timeouts.
var ErrStorageUnavailable = errors.New("membership storage unavailable")

// MembershipStore is the persistence the activation flow depends on.
type MembershipStore interface {
	FindActiveMembership(ctx context.Context, userID string) (*models.Membership, error)
	// CreateActiveMembership must insert only if the user has no active
	// membership, atomically. It reports whether a row was inserted.
	CreateActiveMembership(ctx context.Context, membership *models.Membership) (bool, error)
}

// PlanCatalog resolves plan ids to catalog entries.
type PlanCatalog interface {
	GetPlan(ctx context.Context, planID int) (*models.Plan, error)
}

// IgnoreReason explains why an event did not change any membership.
type IgnoreReason string

const (
	ReasonNotAPaidEvent     IgnoreReason = "not_a_paid_event"
	ReasonMissingMetadata   IgnoreReason = "missing_metadata"
	ReasonAlreadyActive     IgnoreReason = "already_active"
	ReasonDuplicateDelivery IgnoreReason = "duplicate_delivery"
	ReasonMalformedPayload  IgnoreReason = "malformed_payload"
)

// ActivationOutcome is the result of handling a verified event.
// Either Activated is set, or Reason says why nothing was written.
type ActivationOutcome struct {
	Activated  bool
	Reason     IgnoreReason
	UserID     string
	PlanID     int
	Membership *models.Membership
}

// Label is used for metrics and logs.
func (o ActivationOutcome) Label() string {
	if o.Activated {
		return "activated"
	}
	return string(o.Reason)
}

func ignored(reason IgnoreReason) ActivationOutcome {
	return ActivationOutcome{Reason: reason}
}

// ActivationService turns verified payment events into memberships.
// Per user it moves from no active membership to exactly one, and never back.
type ActivationService struct {
	store   MembershipStore
	plans   PlanCatalog
	timeout time.Duration
	now     func() time.Time
}

// NewActivationService creates the service. Every store call is bounded by timeout.
func NewActivationService(store MembershipStore, plans PlanCatalog, timeout time.Duration) *ActivationService {
	return &ActivationService{
		store:   store,
		plans:   plans,
		timeout: timeout,
		now:     time.Now,
	}
}

// HandleEvent applies a verified event. Only store failures are returned as
// errors; every other non-activation is an ignored outcome.
func (s *ActivationService) HandleEvent(ctx context.Context, event *WebhookEvent) (ActivationOutcome, error) {
	outcome, err := s.handle(ctx, event)
	if err != nil {
		metrics.Activations.WithLabelValues("storage_unavailable").Inc()
		return outcome, err
	}
	metrics.Activations.WithLabelValues(outcome.Label()).Inc()
	return outcome, nil
}

func (s *ActivationService) handle(ctx context.Context, event *WebhookEvent) (ActivationOutcome, error) {
	if !event.IsPaid() {
		logging.Infof("Ignoring webhook event - type: %s, payment_status: %s", event.EventType, event.PaymentStatus)
		return ignored(ReasonNotAPaidEvent), nil
	}

	userID := event.UserID()
	planID, hasPlan := event.PlanID()
	if userID == "" || !hasPlan {
		logging.Infof("Ignoring paid webhook event without usable metadata - type: %s, user_id: %q, plan_id: %q",
			event.EventType, userID, event.metadataValue("planId", "plan_id"))
		return ignored(ReasonMissingMetadata), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	existing, err := s.store.FindActiveMembership(ctx, userID)
	if err != nil {
		return ActivationOutcome{UserID: userID, PlanID: planID}, fmt.Errorf("%w: find active membership for %s: %w", ErrStorageUnavailable, userID, err)
	}
	if existing != nil {
		logging.Infof("Membership already active - user_id: %s, active_plan: %d, event_plan: %d", userID, existing.PlanID, planID)
		return ActivationOutcome{Reason: ReasonAlreadyActive, UserID: userID, PlanID: existing.PlanID, Membership: existing}, nil
	}

	planName, err := s.resolvePlanName(ctx, event, planID)
	if err != nil {
		return ActivationOutcome{UserID: userID, PlanID: planID}, fmt.Errorf("%w: resolve plan %d: %w", ErrStorageUnavailable, planID, err)
	}

	membership := &models.Membership{
		UserID:    userID,
		PlanID:    planID,
		PlanName:  planName,
		StartDate: s.now().UTC(),
	}
	created, err := s.store.CreateActiveMembership(ctx, membership)
	if err != nil {
		return ActivationOutcome{UserID: userID, PlanID: planID}, fmt.Errorf("%w: create membership for %s: %w", ErrStorageUnavailable, userID, err)
	}
	if !created {
		// A concurrent delivery activated the user between the read and the insert.
		logging.Infof("Membership activated concurrently - user_id: %s, plan_id: %d", userID, planID)
		return ActivationOutcome{Reason: ReasonAlreadyActive, UserID: userID, PlanID: planID}, nil
	}

	logging.Infof("Membership activated - user_id: %s, plan_id: %d, plan_name: %s", userID, planID, planName)
	return ActivationOutcome{Activated: true, UserID: userID, PlanID: planID, Membership: membership}, nil
}

// resolvePlanName prefers the name in the event metadata, then the catalog.
func (s *ActivationService) resolvePlanName(ctx context.Context, event *WebhookEvent, planID int) (string, error) {
	if name := event.PlanName(); name != "" {
		return name, nil
	}
	if s.plans == nil {
		return models.FallbackPlanName(planID), nil
	}

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return "", err
	}
	if plan == nil {
		logging.Warnf("Paid event references unknown plan %d, using fallback name", planID)
		return models.FallbackPlanName(planID), nil
	}
	return plan.Name, nil
}
