package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/payment/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

// NewRepository builds the gorm-backed payment repository.
func NewRepository() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repositoryImpl) InsertRefund(ctx context.Context, db *gorm.DB, refund *domain.PaymentRefund) error {
	return db.WithContext(ctx).Create(refund).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var p domain.Payment
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *repositoryImpl) ListRefunds(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.PaymentRefund, error) {
	var refunds []domain.PaymentRefund
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&refunds).Error
	return refunds, err
}

func (r *repositoryImpl) CompareAndSwapStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target domain.PaymentStatus, completedAt *time.Time, updatedAt time.Time) (bool, error) {
	fields := map[string]any{
		"status":     target,
		"updated_at": updatedAt,
	}
	if completedAt != nil {
		fields["completed_at"] = completedAt
	}
	res := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repositoryImpl) ApplyRefund(ctx context.Context, db *gorm.DB, id snowflake.ID, prevRefunded, newRefunded int64, status domain.PaymentStatus, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND refunded_amount = ?", id, prevRefunded).
		Updates(map[string]any{
			"refunded_amount": newRefunded,
			"status":          status,
			"updated_at":      updatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repositoryImpl) SumSettled(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = ? AND status IN ?",
			invoiceID, settledStatuses()).
		Scan(&total).Error
	return total, err
}

func (r *repositoryImpl) CountSettled(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("invoice_id = ? AND status IN ?", invoiceID, settledStatuses()).
		Count(&count).Error
	return count, err
}

func settledStatuses() []domain.PaymentStatus {
	return []domain.PaymentStatus{
		domain.PaymentStatusCompleted,
		domain.PaymentStatusPartialRefund,
		domain.PaymentStatusRefunded,
	}
}
