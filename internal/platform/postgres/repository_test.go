package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harambee/harambee-donations/internal/domain"
)

var donationColumns = []string{
	"id", "donor_name", "donor_email", "donor_phone", "donor_id_number",
	"amount", "currency", "merchant_reference", "order_tracking_id",
	"payment_status", "payment_method", "confirmation_code",
	"created_at", "updated_at",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewRepository(db), mock
}

func donationRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(donationColumns).AddRow(
		1, "Jane Doe", "jane@x.com", "0712345678", "12345678",
		"500.00", "KES", "DON_1700000000_1234", "trk-42",
		"PENDING", nil, nil, now, now,
	)
}

func TestFindByReferenceNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns))

	_, err := repo.FindByReference(context.Background(), "DON_missing")
	assert.True(t, errors.Is(err, domain.ErrDonationNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTrackingID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "donations"`).
		WillReturnRows(donationRow())

	d, err := repo.FindByTrackingID(context.Background(), "trk-42")
	require.NoError(t, err)
	assert.Equal(t, uint(1), d.ID)
	assert.Equal(t, "DON_1700000000_1234", d.MerchantReference)
	require.NotNil(t, d.OrderTrackingID)
	assert.Equal(t, "trk-42", *d.OrderTrackingID)
	assert.Equal(t, "500.00", d.Amount.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetTrackingIDAlreadyAssigned(t *testing.T) {
	repo, mock := newMockRepository(t)

	// the update only matches rows without a tracking id
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetTrackingID(context.Background(), 1, "trk-second")
	assert.True(t, errors.Is(err, domain.ErrDonationNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	method := "MpesaKE"
	code := "ABC123"
	rows, err := repo.UpdateStatus(context.Background(), "trk-42", "COMPLETED", &method, &code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownTrackingID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	rows, err := repo.UpdateStatus(context.Background(), "trk-missing", "COMPLETED", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersByStatus(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "donations" WHERE payment_status = .+ ORDER BY created_at DESC`).
		WillReturnRows(donationRow())

	donations, err := repo.List(context.Background(), domain.ListFilter{Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, donations, 1)
	assert.Equal(t, "PENDING", donations[0].PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
