package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/EmerzonBasa/crld/internal/database"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{pool: db.Pool}
}

const documentColumns = `id, company_id, category_id, author_name, description,
	file_name, file_path, file_size, file_type, doc_year, doc_month, scanned_date,
	storage_location, page_count, uploaded_by, uploaded_at,
	is_deleted, deleted_at, deleted_by`

func scanDocumentRow(scanner rowScanner) (*models.Document, error) {
	var doc models.Document

	err := scanner.Scan(
		&doc.ID, &doc.CompanyID, &doc.CategoryID, &doc.AuthorName, &doc.Description,
		&doc.FileName, &doc.FilePath, &doc.FileSize, &doc.FileType, &doc.Year, &doc.Month,
		&doc.ScannedDate, &doc.StorageLocation, &doc.PageCount, &doc.UploadedBy, &doc.UploadedAt,
		&doc.Deleted, &doc.DeletedAt, &doc.DeletedBy,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &doc, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*models.Document, error) {
	defer rows.Close()

	docs := make([]*models.Document, 0)

	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	return scanDocumentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	doc.ID = uuid.New().String()
	doc.UploadedAt = time.Now()

	query := `
		INSERT INTO documents (id, company_id, category_id, author_name, description,
			file_name, file_path, file_size, file_type, doc_year, doc_month, scanned_date,
			storage_location, page_count, uploaded_by, uploaded_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, FALSE)
		RETURNING ` + documentColumns

	return scanDocumentRow(r.pool.QueryRow(ctx, query,
		doc.ID, doc.CompanyID, doc.CategoryID, doc.AuthorName, doc.Description,
		doc.FileName, doc.FilePath, doc.FileSize, doc.FileType, doc.Year, doc.Month,
		doc.ScannedDate, doc.StorageLocation, doc.PageCount, doc.UploadedBy, doc.UploadedAt,
	))
}

// MarkDeleted moves an active document to the deleted state. The guard on
// is_deleted makes a second delete report the state conflict instead of
// silently restamping deleted_at.
func (r *DocumentRepository) MarkDeleted(ctx context.Context, id, actor string, at time.Time) error {
	query := `
		UPDATE documents
		SET is_deleted = TRUE, deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND is_deleted = FALSE`

	result, err := r.pool.Exec(ctx, query, at, actor, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return r.stateError(ctx, id)
	}
	return nil
}

// Restore moves a deleted document back to active and clears the deletion
// markers.
func (r *DocumentRepository) Restore(ctx context.Context, id string) error {
	query := `
		UPDATE documents
		SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE id = $1 AND is_deleted = TRUE`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return r.stateError(ctx, id)
	}
	return nil
}

// HardDelete removes the row for a document already in the deleted state and
// returns its file path so the caller can remove the file afterwards. A
// missing row is not an error; found reports whether anything was purged.
func (r *DocumentRepository) HardDelete(ctx context.Context, id string) (filePath string, found bool, err error) {
	query := `DELETE FROM documents WHERE id = $1 AND is_deleted = TRUE RETURNING file_path`

	err = r.pool.QueryRow(ctx, query, id).Scan(&filePath)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, database.MapPostgresError(err)
	}
	return filePath, true, nil
}

// stateError distinguishes a missing document from one in the wrong state
// after a guarded update matched no rows.
func (r *DocumentRepository) stateError(ctx context.Context, id string) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrWrongState
}

// ListActive returns non-deleted documents matching the filter, newest first.
func (r *DocumentRepository) ListActive(ctx context.Context, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE is_deleted = FALSE`
	args := make([]interface{}, 0, 7)

	if filter.CompanyID != 0 {
		args = append(args, filter.CompanyID)
		query += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND doc_year = $%d", len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND doc_month = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (file_name ILIKE $%d OR description ILIKE $%d OR author_name ILIKE $%d)",
			len(args), len(args), len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY uploaded_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	return scanDocumentRows(rows)
}

// ListDeleted returns documents in the deleted state, most recently deleted
// first.
func (r *DocumentRepository) ListDeleted(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE is_deleted = TRUE
		ORDER BY deleted_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted documents: %w", err)
	}

	return scanDocumentRows(rows)
}

// RecentUploads returns the newest active documents for the dashboard.
func (r *DocumentRepository) RecentUploads(ctx context.Context, limit int) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE is_deleted = FALSE
		ORDER BY uploaded_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent uploads: %w", err)
	}

	return scanDocumentRows(rows)
}

// Stats aggregates counts over active documents only.
func (r *DocumentRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(file_size), 0), COALESCE(SUM(page_count), 0)
		FROM documents WHERE is_deleted = FALSE`

	var stats models.DashboardStats
	err := r.pool.QueryRow(ctx, query).Scan(&stats.TotalDocuments, &stats.TotalBytes, &stats.TotalPages)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &stats, nil
}

// FilePathExists reports whether any document row, active or deleted,
// references the given stored file path.
func (r *DocumentRepository) FilePathExists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE file_path = $1)`, path,
	).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

// DistinctYears returns the years present among active documents, newest
// first, for the filter dropdown.
func (r *DocumentRepository) DistinctYears(ctx context.Context) ([]int, error) {
	query := `SELECT DISTINCT doc_year FROM documents WHERE is_deleted = FALSE AND doc_year > 0 ORDER BY doc_year DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query years: %w", err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		years = append(years, year)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return years, nil
}
