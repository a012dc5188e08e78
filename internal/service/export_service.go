package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/export"
	"github.com/noah-isme/b2b-admin-api/pkg/jobs"
	"github.com/noah-isme/b2b-admin-api/pkg/storage"
)

// exportPageSize is the page size used when draining rows for an export.
const exportPageSize = 100

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath, token string, expiresAt, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string, completedAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}

type exportProductSource interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.MasterProductDetail, int, error)
}

type exportOfferSource interface {
	List(ctx context.Context, filter models.OfferFilter) ([]models.SupplierOfferDetail, int, error)
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Jobs     exportJobRepository
	Products exportProductSource
	Offers   exportOfferSource
	Store    *storage.LocalStorage
	Signer   *storage.SignedURLSigner
	Logger   *zap.Logger

	SignedURLTTL time.Duration
	Workers      int
	Retries      int
}

// ExportService renders catalog and offer exports asynchronously through a
// worker queue and serves results via signed download tokens.
type ExportService struct {
	repo     exportJobRepository
	products exportProductSource
	offers   exportOfferSource
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	queue    *jobs.Queue
	urlTTL   time.Duration
}

// NewExportService constructs the export service and its queue. Call Start to
// begin processing.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.SignedURLTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &ExportService{
		repo:     params.Jobs,
		products: params.Products,
		offers:   params.Offers,
		store:    params.Store,
		signer:   params.Signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		urlTTL:   ttl,
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    params.Workers,
		MaxRetries: params.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a new export job and schedules it.
func (s *ExportService) Enqueue(ctx context.Context, exportType models.ExportType, format models.ExportFormat, requestedBy string) (*models.ExportJob, error) {
	switch exportType {
	case models.ExportTypeProducts, models.ExportTypeOffers:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export type")
	}
	switch format {
	case models.ExportFormatCSV, models.ExportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export format")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Type:        exportType,
		Format:      format,
		Status:      models.ExportStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(exportType)}); err != nil {
		s.failJob(ctx, job.ID, "queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Status returns a job, restricted to the user who requested it.
func (s *ExportService) Status(ctx context.Context, id, userID string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.RequestedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	return job, nil
}

// Download validates a signed token and returns the file path plus a download name.
func (s *ExportService) Download(ctx context.Context, token string) (string, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "export file unavailable")
	}
	name := fmt.Sprintf("%s-%s%s", job.Type, job.ID[:8], fileExtension(job.Format))
	return s.store.Path(relPath), name, nil
}

// Cleanup removes expired export jobs and their files.
func (s *ExportService) Cleanup(ctx context.Context) {
	paths, err := s.repo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	for _, path := range paths {
		if err := s.store.Delete(path); err != nil {
			s.logger.Warn("failed to delete export file", zap.String("path", path), zap.Error(err))
		}
	}
	if len(paths) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(paths)))
	}
}

// RunCleanupLoop periodically invokes Cleanup until the context is cancelled.
func (s *ExportService) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup(ctx)
		}
	}
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}
	if record.Status != models.ExportStatusQueued {
		return nil
	}
	if err := s.repo.MarkRunning(ctx, record.ID); err != nil {
		return fmt.Errorf("mark export running: %w", err)
	}

	dataset, title, err := s.buildDataset(ctx, record.Type)
	if err != nil {
		s.failJob(ctx, record.ID, err.Error())
		return err
	}

	var payload []byte
	switch record.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unknown export format %s", record.Format)
	}
	if err != nil {
		s.failJob(ctx, record.ID, err.Error())
		return err
	}

	relPath := fmt.Sprintf("exports/%s/%s%s", record.Type, record.ID, fileExtension(record.Format))
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.failJob(ctx, record.ID, err.Error())
		return err
	}

	token, expiresAt, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		s.failJob(ctx, record.ID, err.Error())
		return err
	}

	if err := s.repo.MarkCompleted(ctx, record.ID, relPath, token, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	s.logger.Info("export completed",
		zap.String("job_id", record.ID),
		zap.String("type", string(record.Type)),
		zap.String("format", string(record.Format)))
	return nil
}

func (s *ExportService) buildDataset(ctx context.Context, exportType models.ExportType) (export.Dataset, string, error) {
	switch exportType {
	case models.ExportTypeProducts:
		return s.productDataset(ctx)
	case models.ExportTypeOffers:
		return s.offerDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unknown export type %s", exportType)
	}
}

func (s *ExportService) productDataset(ctx context.Context) (export.Dataset, string, error) {
	dataset := export.Dataset{
		Headers: []string{"SKU", "Name", "Category", "Unit", "Approved", "Offers", "Created"},
	}
	for page := 1; ; page++ {
		products, total, err := s.products.List(ctx, models.ProductFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("list products page %d: %w", page, err)
		}
		for _, p := range products {
			category := ""
			if p.CategoryName != nil {
				category = *p.CategoryName
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"SKU":      p.SKU,
				"Name":     p.Name,
				"Category": category,
				"Unit":     p.Unit,
				"Approved": strconv.FormatBool(p.IsApproved),
				"Offers":   strconv.Itoa(p.OfferCount),
				"Created":  p.CreatedAt.Format("2006-01-02"),
			})
		}
		if len(dataset.Rows) >= total || len(products) == 0 {
			break
		}
	}
	return dataset, "Master Products", nil
}

func (s *ExportService) offerDataset(ctx context.Context) (export.Dataset, string, error) {
	dataset := export.Dataset{
		Headers: []string{"Supplier", "Product", "SKU", "Price", "Currency", "MOQ", "Lead Time", "Status", "Created"},
	}
	for page := 1; ; page++ {
		offers, total, err := s.offers.List(ctx, models.OfferFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("list offers page %d: %w", page, err)
		}
		for _, o := range offers {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Supplier":  o.SupplierName,
				"Product":   o.ProductName,
				"SKU":       o.ProductSKU,
				"Price":     strconv.FormatFloat(o.Price, 'f', 2, 64),
				"Currency":  o.Currency,
				"MOQ":       strconv.Itoa(o.MinOrderQty),
				"Lead Time": strconv.Itoa(o.LeadTimeDays),
				"Status":    string(o.Status),
				"Created":   o.CreatedAt.Format("2006-01-02"),
			})
		}
		if len(dataset.Rows) >= total || len(offers) == 0 {
			break
		}
	}
	return dataset, "Supplier Offers", nil
}

func (s *ExportService) failJob(ctx context.Context, id, message string) {
	if err := s.repo.MarkFailed(ctx, id, message, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to mark export failed", zap.String("job_id", id), zap.Error(err))
	}
}

func fileExtension(format models.ExportFormat) string {
	if format == models.ExportFormatPDF {
		return ".pdf"
	}
	return ".csv"
}
