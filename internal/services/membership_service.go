package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"membership-api/internal/models"
	"membership-api/pkg/logging"
)

// ErrPlanNotFound is returned when an explicit activation names an unknown plan.
var ErrPlanNotFound = errors.New("plan not found")

// MembershipRecords is the store surface used by the membership endpoints.
type MembershipRecords interface {
	FindActiveMembership(ctx context.Context, userID string) (*models.Membership, error)
	ListMemberships(ctx context.Context, userID string) ([]models.Membership, error)
	ReplaceActiveMembership(ctx context.Context, membership *models.Membership) (*models.Membership, error)
}

// PlanLister lists and resolves catalog plans.
type PlanLister interface {
	PlanCatalog
	ListPlans(ctx context.Context) ([]models.Plan, error)
}

// MembershipService answers membership queries and performs explicit
// plan switches requested by staff.
type MembershipService struct {
	records MembershipRecords
	plans   PlanLister
	timeout time.Duration
	now     func() time.Time
}

func NewMembershipService(records MembershipRecords, plans PlanLister, timeout time.Duration) *MembershipService {
	return &MembershipService{records: records, plans: plans, timeout: timeout, now: time.Now}
}

// ActiveMembership returns the user's active membership, or nil.
func (s *MembershipService) ActiveMembership(ctx context.Context, userID string) (*models.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	membership, err := s.records.FindActiveMembership(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return membership, nil
}

// History returns all memberships of a user, newest first.
func (s *MembershipService) History(ctx context.Context, userID string) ([]models.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	memberships, err := s.records.ListMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return memberships, nil
}

// Activate expires the user's current membership, if any, and starts planID now.
// planName overrides the catalog name when set.
func (s *MembershipService) Activate(ctx context.Context, userID string, planID int, planName string) (*models.Membership, *models.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if plan == nil {
		return nil, nil, fmt.Errorf("%w: %d", ErrPlanNotFound, planID)
	}
	if strings.TrimSpace(planName) == "" {
		planName = plan.Name
	}

	membership := &models.Membership{
		UserID:    userID,
		PlanID:    planID,
		PlanName:  planName,
		StartDate: s.now().UTC(),
	}
	previous, err := s.records.ReplaceActiveMembership(ctx, membership)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if previous != nil {
		logging.Infof("Membership switched - user_id: %s, from_plan: %d, to_plan: %d", userID, previous.PlanID, planID)
	} else {
		logging.Infof("Membership activated by staff - user_id: %s, plan_id: %d", userID, planID)
	}
	return membership, previous, nil
}

// Plans returns the plan catalog.
func (s *MembershipService) Plans(ctx context.Context) ([]models.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return plans, nil
}

// Plan returns one catalog plan, or nil.
func (s *MembershipService) Plan(ctx context.Context, planID int) (*models.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return plan, nil
}
