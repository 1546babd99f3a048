package database

import (
	"context"
	"errors"

	"membership-api/internal/models"

	"gorm.io/gorm"
)

// PlanRepository reads the plan catalog.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetPlan returns the plan with the given id, or nil when it does not exist.
func (r *PlanRepository) GetPlan(ctx context.Context, planID int) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).Order("id ASC").Find(&plans).Error
	return plans, err
}
