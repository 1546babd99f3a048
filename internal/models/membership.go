package models

import (
	"time"
)

// Membership status values
const (
	MembershipStatusActive  = "active"
	MembershipStatusExpired = "expired"
)

// Membership is a user's subscription to a gym plan.
// Rows are never deleted: a superseded membership is marked expired and kept for history.
type Membership struct {
	BaseModel

	// The partial unique index is what keeps a user at one active membership
	// even when webhook deliveries race each other.
	UserID string `json:"userId" gorm:"not null;size:191;index;uniqueIndex:idx_membership_active_user,where:status = 'active'"`

	PlanID    int       `json:"planId" gorm:"not null"`
	PlanName  string    `json:"planName" gorm:"not null;size:100"`
	StartDate time.Time `json:"startDate" gorm:"not null;index"`
	Status    string    `json:"status" gorm:"not null;size:20;index"`
}

// IsActive reports whether the membership is the user's current one.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}
