package services

import (
	"context"
	"sort"
	"sync"

	"membership-api/internal/models"
)

// fakeStore is an in-memory MembershipStore and MembershipRecords. Its
// CreateActiveMembership is atomic like the partial unique index.
type fakeStore struct {
	mu          sync.Mutex
	memberships []models.Membership
	nextID      uint
	writes      int

	findErr   error
	createErr error
	// hideActive makes FindActiveMembership miss, simulating a racing reader.
	hideActive bool
}

func (f *fakeStore) FindActiveMembership(ctx context.Context, userID string) (*models.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.hideActive {
		return nil, nil
	}
	for i := range f.memberships {
		if f.memberships[i].UserID == userID && f.memberships[i].IsActive() {
			m := f.memberships[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateActiveMembership(ctx context.Context, membership *models.Membership) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	for _, m := range f.memberships {
		if m.UserID == membership.UserID && m.IsActive() {
			return false, nil
		}
	}
	f.insertLocked(membership)
	return true, nil
}

func (f *fakeStore) ReplaceActiveMembership(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	var previous *models.Membership
	for i := range f.memberships {
		if f.memberships[i].UserID == membership.UserID && f.memberships[i].IsActive() {
			f.memberships[i].Status = models.MembershipStatusExpired
			m := f.memberships[i]
			previous = &m
			f.writes++
		}
	}
	f.insertLocked(membership)
	return previous, nil
}

func (f *fakeStore) ListMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.Membership
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) insertLocked(membership *models.Membership) {
	f.nextID++
	membership.ID = f.nextID
	membership.Status = models.MembershipStatusActive
	f.memberships = append(f.memberships, *membership)
	f.writes++
}

func (f *fakeStore) activeFor(userID string) []models.Membership {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Membership
	for _, m := range f.memberships {
		if m.UserID == userID && m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

type fakeCatalog struct {
	plans []models.Plan
	err   error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{plans: models.DefaultPlans()}
}

func (c *fakeCatalog) GetPlan(_ context.Context, planID int) (*models.Plan, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, p := range c.plans {
		if p.ID == planID {
			plan := p
			return &plan, nil
		}
	}
	return nil, nil
}

func (c *fakeCatalog) ListPlans(_ context.Context) ([]models.Plan, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.plans, nil
}
