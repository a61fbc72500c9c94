package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/subscription/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

// NewRepository builds the gorm-backed subscription repository.
func NewRepository() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repositoryImpl) FindByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).Where("org_id = ?", orgID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repositoryImpl) CompareAndSwapStatus(ctx context.Context, db *gorm.DB, sub *domain.Subscription, expected domain.SubscriptionStatus) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ? AND status = ?", sub.ID, expected).
		Updates(map[string]any{
			"status":          sub.Status,
			"end_date":        sub.EndDate,
			"next_billing_at": sub.NextBillingAt,
			"updated_at":      sub.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
