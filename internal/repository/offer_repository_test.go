package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/b2b-admin-api/internal/models"
)

func offerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "supplier_id", "product_id", "price", "currency", "min_order_qty", "lead_time_days", "status", "reviewed_by", "reviewed_at", "review_note", "created_at", "updated_at", "supplier_name", "product_name", "product_sku"}).
		AddRow("o1", "s1", "p1", 12.5, "USD", 10, 7, models.OfferStatusPending, nil, nil, nil, time.Now(), time.Now(), "Acme Supply", "Steel Bolt", "SKU-1")
}

func TestOfferRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferRepository(db)

	status := models.OfferStatusPending
	mock.ExpectQuery("SELECT o.id, o.supplier_id").
		WithArgs(status).
		WillReturnRows(offerRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	offers, total, err := repo.List(context.Background(), models.OfferFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, offers, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepositoryReviewTransitionsPendingOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE supplier_offers").
		WithArgs("o1", models.OfferStatusApproved, "admin-1", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.Review(context.Background(), "o1", models.OfferStatusApproved, "admin-1", nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepositoryReviewAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferRepository(db)

	now := time.Now().UTC()
	note := "duplicate pricing"
	mock.ExpectExec("UPDATE supplier_offers").
		WithArgs("o1", models.OfferStatusRejected, "admin-1", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.Review(context.Background(), "o1", models.OfferStatusRejected, "admin-1", &note, now)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferRepository(db)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(models.OfferStatusApproved, 4).
			AddRow(models.OfferStatusPending, 2))

	entries, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.OfferStatusApproved, entries[0].Status)
	assert.Equal(t, 4, entries[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
