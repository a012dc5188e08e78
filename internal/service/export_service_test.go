package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/storage"
)

type mockExportJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
}

func newMockExportJobRepo() *mockExportJobRepo {
	return &mockExportJobRepo{jobs: make(map[string]*models.ExportJob)}
}

func (m *mockExportJobRepo) Create(_ context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *job
	m.jobs[job.ID] = &copy
	return nil
}

func (m *mockExportJobRepo) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *job
	return &copy, nil
}

func (m *mockExportJobRepo) MarkRunning(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ExportStatusRunning
	}
	return nil
}

func (m *mockExportJobRepo) MarkCompleted(_ context.Context, id, filePath, token string, expiresAt, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ExportStatusCompleted
		job.FilePath = &filePath
		job.Token = &token
		job.ExpiresAt = &expiresAt
		job.CompletedAt = &completedAt
	}
	return nil
}

func (m *mockExportJobRepo) MarkFailed(_ context.Context, id, message string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ExportStatusFailed
		job.Error = &message
		job.CompletedAt = &completedAt
	}
	return nil
}

func (m *mockExportJobRepo) DeleteExpired(_ context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0)
	for id, job := range m.jobs {
		if job.ExpiresAt != nil && job.ExpiresAt.Before(now) {
			if job.FilePath != nil {
				paths = append(paths, *job.FilePath)
			}
			delete(m.jobs, id)
		}
	}
	return paths, nil
}

func (m *mockExportJobRepo) get(id string) models.ExportJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[id]
}

type staticProductSource struct {
	products []models.MasterProductDetail
}

func (s *staticProductSource) List(_ context.Context, filter models.ProductFilter) ([]models.MasterProductDetail, int, error) {
	if filter.Page > 1 {
		return nil, len(s.products), nil
	}
	return s.products, len(s.products), nil
}

type staticOfferSource struct {
	offers []models.SupplierOfferDetail
}

func (s *staticOfferSource) List(_ context.Context, filter models.OfferFilter) ([]models.SupplierOfferDetail, int, error) {
	if filter.Page > 1 {
		return nil, len(s.offers), nil
	}
	return s.offers, len(s.offers), nil
}

func newExportTestService(t *testing.T) (*ExportService, *mockExportJobRepo, *storage.LocalStorage) {
	t.Helper()
	repo := newMockExportJobRepo()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	categoryName := "Fasteners"
	products := &staticProductSource{products: []models.MasterProductDetail{
		{
			MasterProduct: models.MasterProduct{SKU: "SKU-1", Name: "Hex Bolt", Unit: "box", IsApproved: true, CreatedAt: time.Now()},
			CategoryName:  &categoryName,
			OfferCount:    3,
		},
	}}
	offers := &staticOfferSource{offers: []models.SupplierOfferDetail{
		{
			SupplierOffer: models.SupplierOffer{Price: 12.5, Currency: "USD", MinOrderQty: 10, LeadTimeDays: 7, Status: models.OfferStatusPending, CreatedAt: time.Now()},
			SupplierName:  "Acme Supply",
			ProductName:   "Hex Bolt",
			ProductSKU:    "SKU-1",
		},
	}}

	svc := NewExportService(ExportServiceParams{
		Jobs:         repo,
		Products:     products,
		Offers:       offers,
		Store:        store,
		Signer:       storage.NewSignedURLSigner("test-secret", time.Hour),
		Logger:       zap.NewNop(),
		SignedURLTTL: time.Hour,
		Workers:      1,
		Retries:      1,
	})
	return svc, repo, store
}

func TestExportServiceEnqueueValidatesTypeAndFormat(t *testing.T) {
	svc, _, _ := newExportTestService(t)

	_, err := svc.Enqueue(context.Background(), models.ExportType("INVOICES"), models.ExportFormatCSV, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Enqueue(context.Background(), models.ExportTypeProducts, models.ExportFormat("XLSX"), "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueRequiresRunningQueue(t *testing.T) {
	svc, repo, _ := newExportTestService(t)

	_, err := svc.Enqueue(context.Background(), models.ExportTypeProducts, models.ExportFormatCSV, "user-1")
	require.Error(t, err)

	// The persisted record is marked failed so it never shows as stuck.
	require.Len(t, repo.jobs, 1)
	for id := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, repo.get(id).Status)
	}
}

func TestExportServiceStatusOwnership(t *testing.T) {
	svc, repo, _ := newExportTestService(t)
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		ID:          "job-1",
		Type:        models.ExportTypeProducts,
		Format:      models.ExportFormatCSV,
		Status:      models.ExportStatusQueued,
		RequestedBy: "user-1",
	}))

	job, err := svc.Status(context.Background(), "job-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)

	_, err = svc.Status(context.Background(), "job-1", "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Status(context.Background(), "missing", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceProductCSVEndToEnd(t *testing.T) {
	svc, repo, store := newExportTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	job, err := svc.Enqueue(ctx, models.ExportTypeProducts, models.ExportFormatCSV, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	require.Eventually(t, func() bool {
		return repo.get(job.ID).Status == models.ExportStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	completed := repo.get(job.ID)
	require.NotNil(t, completed.Token)
	require.NotNil(t, completed.FilePath)

	path, name, err := svc.Download(ctx, *completed.Token)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".csv"))
	assert.Equal(t, store.Path(*completed.FilePath), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "SKU")
	assert.Contains(t, string(content), "Hex Bolt")
}

func TestExportServiceOfferPDFEndToEnd(t *testing.T) {
	svc, repo, _ := newExportTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	job, err := svc.Enqueue(ctx, models.ExportTypeOffers, models.ExportFormatPDF, "user-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.get(job.ID).Status == models.ExportStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	completed := repo.get(job.ID)
	require.NotNil(t, completed.Token)

	path, name, err := svc.Download(ctx, *completed.Token)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportServiceDownloadRejectsBadToken(t *testing.T) {
	svc, _, _ := newExportTestService(t)

	_, _, err := svc.Download(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportServiceCleanupRemovesExpiredFiles(t *testing.T) {
	svc, repo, store := newExportTestService(t)

	relPath := "exports/PRODUCTS/old.csv"
	_, err := store.Save(relPath, []byte("stale"))
	require.NoError(t, err)

	expired := time.Now().Add(-time.Hour)
	completed := time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.Create(context.Background(), &models.ExportJob{
		ID:          "job-old",
		Type:        models.ExportTypeProducts,
		Format:      models.ExportFormatCSV,
		Status:      models.ExportStatusCompleted,
		FilePath:    &relPath,
		ExpiresAt:   &expired,
		RequestedBy: "user-1",
		CompletedAt: &completed,
	}))

	svc.Cleanup(context.Background())

	_, err = os.Stat(store.Path(relPath))
	assert.True(t, os.IsNotExist(err))
	repo.mu.Lock()
	assert.Empty(t, repo.jobs)
	repo.mu.Unlock()
}
