// Package postgres implements the domain.DonationRepository interface on GORM.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harambee/harambee-donations/internal/domain"
)

// Open connects to Postgres and prepares the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := db.AutoMigrate(&domain.Donation{}); err != nil {
		return nil, err
	}
	return db, nil
}

// Repository is the GORM-backed donation store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on an open GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new donation. The unique index on merchant_reference
// makes a duplicate insert fail here rather than silently succeed.
func (r *Repository) Create(ctx context.Context, d *domain.Donation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// SetTrackingID attaches the gateway tracking id. The guard on
// order_tracking_id keeps an assigned id immutable: a second call matches
// nothing and reports ErrDonationNotFound.
func (r *Repository) SetTrackingID(ctx context.Context, id uint, trackingID string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ? AND order_tracking_id IS NULL", id).
		Update("order_tracking_id", trackingID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

// UpdateStatus overwrites the status fields of the record matching the
// tracking id. Nil method/code clear the columns; the provider string is
// stored verbatim, terminal or not.
func (r *Repository) UpdateStatus(ctx context.Context, trackingID, status string, method, confirmationCode *string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("order_tracking_id = ?", trackingID).
		Updates(map[string]any{
			"payment_status":    status,
			"payment_method":    method,
			"confirmation_code": confirmationCode,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.Donation, error) {
	var d domain.Donation
	err := r.db.WithContext(ctx).First(&d, id).Error
	return &d, translateNotFound(err)
}

func (r *Repository) FindByReference(ctx context.Context, reference string) (*domain.Donation, error) {
	var d domain.Donation
	err := r.db.WithContext(ctx).Where("merchant_reference = ?", reference).First(&d).Error
	return &d, translateNotFound(err)
}

func (r *Repository) FindByTrackingID(ctx context.Context, trackingID string) (*domain.Donation, error) {
	var d domain.Donation
	err := r.db.WithContext(ctx).Where("order_tracking_id = ?", trackingID).First(&d).Error
	return &d, translateNotFound(err)
}

// List returns donations newest first, optionally filtered by raw status.
func (r *Repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Donation, error) {
	q := r.db.WithContext(ctx).Model(&domain.Donation{})
	if filter.Status != "" {
		q = q.Where("payment_status = ?", filter.Status)
	}
	var donations []domain.Donation
	err := q.Order("created_at DESC").Find(&donations).Error
	return donations, err
}

// Stats aggregates the admin dashboard numbers. Sums cover COMPLETED records
// only; the month-to-date sum starts at midnight on the first of the current
// month.
func (r *Repository) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{TotalAmount: decimal.Zero, ThisMonth: decimal.Zero}

	if err := r.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("payment_status = ?", "COMPLETED").
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	stats.TotalDonations = stats.Completed

	if err := r.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("payment_status = ?", "PENDING").
		Count(&stats.Pending).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("payment_status = ?", "FAILED").
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("payment_status = ?", "COMPLETED").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalAmount).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if err := r.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("payment_status = ? AND created_at >= ?", "COMPLETED", startOfMonth).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.ThisMonth).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrDonationNotFound
	}
	return err
}
