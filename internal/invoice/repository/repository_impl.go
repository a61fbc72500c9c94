package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kilatlabs/nusabill/internal/invoice/domain"
	pkgdb "github.com/kilatlabs/nusabill/pkg/db"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

// NewRepository builds the gorm-backed invoice repository.
func NewRepository() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Create(inv).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repositoryImpl) ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Preload("Items").
		Where("org_id = ?", orgID).
		Order("id DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *repositoryImpl) FindLiveForPeriod(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, periodStart time.Time) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).
		Where("subscription_id = ? AND period_start = ? AND status NOT IN ?",
			subscriptionID, periodStart,
			[]domain.InvoiceStatus{domain.InvoiceStatusFailed, domain.InvoiceStatusCancelled}).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repositoryImpl) NextNumber(ctx context.Context, db *gorm.DB, orgID snowflake.ID, year int) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.InvoiceCounter{}).
		Where("org_id = ? AND year = ?", orgID, year).
		Update("seq", gorm.Expr("seq + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		err := db.WithContext(ctx).Create(&domain.InvoiceCounter{OrgID: orgID, Year: year, Seq: 1}).Error
		if err == nil {
			return 1, nil
		}
		if !pkgdb.IsDuplicateKeyErr(err) {
			return 0, err
		}
		// Another allocator created the row first; fall through to read.
		res = db.WithContext(ctx).
			Model(&domain.InvoiceCounter{}).
			Where("org_id = ? AND year = ?", orgID, year).
			Update("seq", gorm.Expr("seq + 1"))
		if res.Error != nil {
			return 0, res.Error
		}
	}

	var counter domain.InvoiceCounter
	err := db.WithContext(ctx).
		Where("org_id = ? AND year = ?", orgID, year).
		First(&counter).Error
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *repositoryImpl) CompareAndSwapStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target domain.InvoiceStatus, paidAt *time.Time, updatedAt time.Time) (bool, error) {
	fields := map[string]any{
		"status":     target,
		"updated_at": updatedAt,
	}
	if paidAt != nil {
		fields["paid_at"] = paidAt
	}
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
