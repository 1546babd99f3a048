package database

import (
	"context"
	"errors"
	"fmt"

	"membership-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository persists memberships with GORM.
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a repository over an open database handle.
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// FindActiveMembership returns the user's active membership, or nil when there is none.
func (r *MembershipRepository) FindActiveMembership(ctx context.Context, userID string) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.MembershipStatusActive).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

// CreateActiveMembership inserts an active membership unless the user already
// has one. The check and the insert are a single statement guarded by the
// partial unique index, so concurrent callers cannot both succeed.
// created is false when an active membership already existed.
func (r *MembershipRepository) CreateActiveMembership(ctx context.Context, membership *models.Membership) (bool, error) {
	membership.Status = models.MembershipStatusActive

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(membership)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReplaceActiveMembership expires the user's current membership and activates
// a new one in the same transaction.
func (r *MembershipRepository) ReplaceActiveMembership(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	var previous *models.Membership

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Membership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", membership.UserID, models.MembershipStatusActive).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).Update("status", models.MembershipStatusExpired).Error; err != nil {
				return fmt.Errorf("failed to expire membership %d: %w", existing.ID, err)
			}
			existing.Status = models.MembershipStatusExpired
			previous = &existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		membership.Status = models.MembershipStatusActive
		return tx.Create(membership).Error
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// ListMemberships returns every membership of a user, newest first.
func (r *MembershipRepository) ListMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Order("id DESC").
		Find(&memberships).Error
	return memberships, err
}
