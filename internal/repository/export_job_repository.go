package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/b2b-admin-api/internal/models"
)

// ExportJobRepository tracks asynchronous export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs an ExportJobRepository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a new export job in QUEUED state.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	const query = `INSERT INTO export_jobs (id, type, format, status, file_path, token, expires_at, error, requested_by, created_at, completed_at)
        VALUES (:id, :type, :format, :status, :file_path, :token, :expires_at, :error, :requested_by, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID fetches an export job by ID.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, type, format, status, file_path, token, expires_at, error, requested_by, created_at, completed_at FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning transitions a job to RUNNING.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusRunning); err != nil {
		return fmt.Errorf("mark export running: %w", err)
	}
	return nil
}

// MarkCompleted records the rendered file path, download token, and expiry.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath, token string, expiresAt, completedAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, token = $4, expires_at = $5, completed_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusCompleted, filePath, token, expiresAt, completedAt); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

// MarkFailed records a failure message.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, message string, completedAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, message, completedAt); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}

// DeleteExpired removes jobs whose download window has passed and returns their file paths.
func (r *ExportJobRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	const query = `DELETE FROM export_jobs WHERE expires_at IS NOT NULL AND expires_at < $1 RETURNING file_path`
	var paths []string
	rows, err := r.db.QueryxContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("delete expired exports: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path *string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan expired export: %w", err)
		}
		if path != nil {
			paths = append(paths, *path)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired exports: %w", err)
	}
	return paths, nil
}
