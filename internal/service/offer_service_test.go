package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

type mockOfferRepo struct {
	offers    map[string]*models.SupplierOfferDetail
	listCalls int
}

func (m *mockOfferRepo) List(ctx context.Context, filter models.OfferFilter) ([]models.SupplierOfferDetail, int, error) {
	m.listCalls++
	var out []models.SupplierOfferDetail
	for _, o := range m.offers {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOfferRepo) FindByID(ctx context.Context, id string) (*models.SupplierOfferDetail, error) {
	if o, ok := m.offers[id]; ok {
		copy := *o
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOfferRepo) Review(ctx context.Context, id string, status models.OfferStatus, reviewerID string, note *string, reviewedAt time.Time) (int64, error) {
	offer, ok := m.offers[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	if offer.Status != models.OfferStatusPending {
		return 0, nil
	}
	offer.Status = status
	offer.ReviewedBy = &reviewerID
	offer.ReviewedAt = &reviewedAt
	offer.ReviewNote = note
	return 1, nil
}

func seedOffer(id string, status models.OfferStatus) *models.SupplierOfferDetail {
	return &models.SupplierOfferDetail{
		SupplierOffer: models.SupplierOffer{
			ID: id, SupplierID: "s1", ProductID: "p1", Price: 10, Currency: "USD",
			MinOrderQty: 5, LeadTimeDays: 3, Status: status,
		},
		SupplierName: "Acme Supply",
		ProductName:  "Steel Bolt",
		ProductSKU:   "SKU-1",
	}
}

func newOfferService(repo *mockOfferRepo, cacheRepo *memoryCacheRepo) (*OfferService, *mockAuditRecorder) {
	audit := &mockAuditRecorder{}
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	}
	return NewOfferService(repo, audit, cache, validator.New(), zap.NewNop(), time.Minute), audit
}

func TestOfferServiceApprove(t *testing.T) {
	repo := &mockOfferRepo{offers: map[string]*models.SupplierOfferDetail{"o1": seedOffer("o1", models.OfferStatusPending)}}
	svc, audit := newOfferService(repo, nil)

	offer, err := svc.Approve(context.Background(), "o1", "admin-1", ReviewOfferRequest{Note: "good pricing"})
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusApproved, offer.Status)
	require.NotNil(t, offer.ReviewedBy)
	assert.Equal(t, "admin-1", *offer.ReviewedBy)
	require.NotNil(t, offer.ReviewNote)
	assert.Equal(t, "good pricing", *offer.ReviewNote)
	assert.NotNil(t, offer.ReviewedAt)
	assert.NotEmpty(t, audit.logs)
}

func TestOfferServiceRejectRecordsNote(t *testing.T) {
	repo := &mockOfferRepo{offers: map[string]*models.SupplierOfferDetail{"o1": seedOffer("o1", models.OfferStatusPending)}}
	svc, _ := newOfferService(repo, nil)

	offer, err := svc.Reject(context.Background(), "o1", "admin-1", ReviewOfferRequest{Note: "pricing too high"})
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, offer.Status)
	require.NotNil(t, offer.ReviewNote)
	assert.Equal(t, "pricing too high", *offer.ReviewNote)
}

func TestOfferServiceReviewExactlyOnce(t *testing.T) {
	repo := &mockOfferRepo{offers: map[string]*models.SupplierOfferDetail{"o1": seedOffer("o1", models.OfferStatusPending)}}
	svc, _ := newOfferService(repo, nil)

	_, err := svc.Approve(context.Background(), "o1", "admin-1", ReviewOfferRequest{})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), "o1", "admin-2", ReviewOfferRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrOfferReviewed.Code, appErr.Code)

	// The first decision stays untouched.
	offer, err := svc.Get(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusApproved, offer.Status)
	assert.Equal(t, "admin-1", *offer.ReviewedBy)
}

func TestOfferServiceReviewInvalidatesCache(t *testing.T) {
	repo := &mockOfferRepo{offers: map[string]*models.SupplierOfferDetail{"o1": seedOffer("o1", models.OfferStatusPending)}}
	cacheRepo := newMemoryCacheRepo()
	svc, _ := newOfferService(repo, cacheRepo)

	_, hit, err := svc.List(context.Background(), models.OfferFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotEmpty(t, cacheRepo.data)

	// The funnel and dashboard aggregates count offers by status, so a review
	// must drop them along with the offer lists.
	require.NoError(t, cacheRepo.Set(context.Background(), analyticsSummaryCacheKey, "stale", time.Minute))
	require.NoError(t, cacheRepo.Set(context.Background(), analyticsBreakdownCacheKey, "stale", time.Minute))
	require.NoError(t, cacheRepo.Set(context.Background(), dashboardCacheKey, "stale", time.Minute))

	_, err = svc.Approve(context.Background(), "o1", "admin-1", ReviewOfferRequest{})
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.data)
}

func TestOfferServiceListServedFromCache(t *testing.T) {
	repo := &mockOfferRepo{offers: map[string]*models.SupplierOfferDetail{"o1": seedOffer("o1", models.OfferStatusPending)}}
	cacheRepo := newMemoryCacheRepo()
	svc, _ := newOfferService(repo, cacheRepo)

	filter := models.OfferFilter{Page: 1, PageSize: 20}
	_, _, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	_, hit, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.listCalls)
}

func TestOfferServiceGetMissing(t *testing.T) {
	repo := &mockOfferRepo{offers: map[string]*models.SupplierOfferDetail{}}
	svc, _ := newOfferService(repo, nil)
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offer not found")
}
