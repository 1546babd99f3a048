package models

import (
	"fmt"
	"strings"
)

// Plan is a purchasable membership plan. ID is the numeric identifier the
// checkout flow passes to the payment processor in event metadata.
type Plan struct {
	ID       int     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name     string  `json:"name" gorm:"not null;size:100"`
	Price    float64 `json:"price" gorm:"not null"`
	Duration string  `json:"duration" gorm:"not null;size:30"` // e.g. "day", "month", "3 months"
	Features string  `json:"-" gorm:"type:text"`               // newline separated
}

// FeatureList splits the stored features into a slice.
func (p *Plan) FeatureList() []string {
	if strings.TrimSpace(p.Features) == "" {
		return []string{}
	}
	return strings.Split(p.Features, "\n")
}

// FallbackPlanName is used when a plan id has no catalog entry.
func FallbackPlanName(planID int) string {
	return fmt.Sprintf("Plan %d", planID)
}

// DefaultPlans seeds an empty catalog.
func DefaultPlans() []Plan {
	return []Plan{
		{ID: 1, Name: "Day Pass", Price: 100, Duration: "day", Features: "Full gym access for one day"},
		{ID: 2, Name: "Monthly Plan", Price: 1500, Duration: "month", Features: "Unlimited gym access\nLocker access"},
		{ID: 3, Name: "Quarterly Plan", Price: 4000, Duration: "3 months", Features: "Unlimited gym access\nLocker access\nOne personal training session"},
	}
}
