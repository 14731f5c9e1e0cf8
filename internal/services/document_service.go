package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/storage"
)

// DocumentRepository defines the interface for document data access
type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	Insert(ctx context.Context, doc *models.Document) (*models.Document, error)
	MarkDeleted(ctx context.Context, id, actor string, at time.Time) error
	Restore(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) (filePath string, found bool, err error)
	ListActive(ctx context.Context, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error)
	ListDeleted(ctx context.Context, limit, offset int) ([]*models.Document, error)
	RecentUploads(ctx context.Context, limit int) ([]*models.Document, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
	DistinctYears(ctx context.Context) ([]int, error)
	FilePathExists(ctx context.Context, path string) (bool, error)
}

// LookupRepository defines the interface for the company/category reference tables
type LookupRepository interface {
	ListCompanies(ctx context.Context) ([]*models.Company, error)
	GetCompany(ctx context.Context, id int) (*models.Company, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
}

// DocumentService owns the document lifecycle: upload, soft delete, restore,
// and purge. It is the only component that touches the file store.
type DocumentService struct {
	repo        DocumentRepository
	lookups     LookupRepository
	store       storage.FileStore
	audit       *AuditService
	maxFileSize int64
	logger      *slog.Logger
	countPages  func(path string) int
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(repo DocumentRepository, lookups LookupRepository, store storage.FileStore, audit *AuditService, maxFileSize int64, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		repo:        repo,
		lookups:     lookups,
		store:       store,
		audit:       audit,
		maxFileSize: maxFileSize,
		logger:      logger,
		countPages:  storage.CountPDFPages,
	}
}

// UploadFile is one file in an upload batch.
type UploadFile struct {
	OriginalName string
	Content      io.Reader
}

// UploadMetadata is the shared metadata for every file in a batch.
type UploadMetadata struct {
	CompanyID       int
	CategoryID      int
	AuthorName      string
	Description     string
	Year            int
	Month           int
	ScannedDate     *time.Time
	StorageLocation string
}

// SkippedFile explains why a file in the batch was not stored.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResult reports the outcome of an upload batch. A batch succeeds
// partially: bad files are skipped, good ones are stored.
type UploadResult struct {
	Uploaded []*models.Document `json:"uploaded"`
	Skipped  []SkippedFile      `json:"skipped"`
}

func hasPDFExtension(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	return strings.EqualFold(name[i:], ".pdf")
}

// Upload stores a batch of PDF files under shared metadata. Non-PDF and
// oversized files are skipped with a per-file reason; one activity entry is
// recorded for the whole batch.
func (s *DocumentService) Upload(ctx context.Context, sess *models.Session, meta UploadMetadata, files []UploadFile, origin string) (*UploadResult, error) {
	if err := auth.RequireCapability(sess, models.CapUpload); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, models.ErrBadRequest
	}

	if _, err := s.lookups.GetCompany(ctx, meta.CompanyID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to check company", slog.Int("company_id", meta.CompanyID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if _, err := s.lookups.GetCategory(ctx, meta.CategoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to check category", slog.Int("category_id", meta.CategoryID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	result := &UploadResult{
		Uploaded: make([]*models.Document, 0, len(files)),
		Skipped:  make([]SkippedFile, 0),
	}

	for _, file := range files {
		if !hasPDFExtension(file.OriginalName) {
			result.Skipped = append(result.Skipped, SkippedFile{Name: file.OriginalName, Reason: "only PDF files are accepted"})
			continue
		}

		stored, err := s.store.Save(file.OriginalName, file.Content, s.maxFileSize)
		if err != nil {
			if errors.Is(err, models.ErrFileTooLarge) {
				result.Skipped = append(result.Skipped, SkippedFile{Name: file.OriginalName, Reason: "file exceeds the size limit"})
				continue
			}
			s.logger.Error("failed to store file", slog.String("file", file.OriginalName), slog.Any("error", err))
			result.Skipped = append(result.Skipped, SkippedFile{Name: file.OriginalName, Reason: "storage failure"})
			continue
		}

		doc := &models.Document{
			CompanyID:       meta.CompanyID,
			CategoryID:      meta.CategoryID,
			AuthorName:      meta.AuthorName,
			Description:     meta.Description,
			FileName:        stored.Name,
			FilePath:        stored.Path,
			FileSize:        stored.Size,
			FileType:        "application/pdf",
			Year:            meta.Year,
			Month:           meta.Month,
			ScannedDate:     meta.ScannedDate,
			StorageLocation: meta.StorageLocation,
			PageCount:       s.countPages(stored.Path),
			UploadedBy:      sess.UserID,
		}

		inserted, err := s.repo.Insert(ctx, doc)
		if err != nil {
			// Roll the file back so no orphan is left on disk.
			if rmErr := s.store.Remove(stored.Path); rmErr != nil {
				s.logger.Error("failed to remove orphaned file", slog.String("path", stored.Path), slog.Any("error", rmErr))
			}
			s.logger.Error("failed to insert document", slog.String("file", file.OriginalName), slog.Any("error", err))
			result.Skipped = append(result.Skipped, SkippedFile{Name: file.OriginalName, Reason: "storage failure"})
			continue
		}

		result.Uploaded = append(result.Uploaded, inserted)
	}

	if len(result.Uploaded) > 0 {
		s.audit.RecordActivity(ctx, sess.UserID, models.ActivityUpload,
			fmt.Sprintf("uploaded %d document(s)", len(result.Uploaded)), origin)
		s.logger.Info("upload batch stored",
			slog.String("user_id", sess.UserID),
			slog.Int("uploaded", len(result.Uploaded)),
			slog.Int("skipped", len(result.Skipped)))
	}

	return result, nil
}

// Delete soft-deletes an active document. The file stays on disk so a
// restore brings the document back intact.
func (s *DocumentService) Delete(ctx context.Context, sess *models.Session, id, origin string) error {
	if err := auth.RequireCapability(sess, models.CapDelete); err != nil {
		return err
	}

	if err := s.repo.MarkDeleted(ctx, id, sess.UserID, time.Now()); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrWrongState):
			return err
		default:
			s.logger.Error("failed to delete document", slog.String("document_id", id), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.audit.RecordActivity(ctx, sess.UserID, models.ActivityDelete, fmt.Sprintf("deleted document %s", id), origin)
	s.audit.RecordDocumentAccess(ctx, id, sess.UserID, models.AccessDelete, origin)
	s.logger.Info("document deleted", slog.String("document_id", id), slog.String("user_id", sess.UserID))
	return nil
}

// Restore moves a deleted document back to active.
func (s *DocumentService) Restore(ctx context.Context, sess *models.Session, id, origin string) error {
	if err := auth.RequireCapability(sess, models.CapDelete); err != nil {
		return err
	}

	if err := s.repo.Restore(ctx, id); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrWrongState):
			return err
		default:
			s.logger.Error("failed to restore document", slog.String("document_id", id), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.audit.RecordActivity(ctx, sess.UserID, models.ActivityRestore, fmt.Sprintf("restored document %s", id), origin)
	s.audit.RecordDocumentAccess(ctx, id, sess.UserID, models.AccessRestore, origin)
	s.logger.Info("document restored", slog.String("document_id", id), slog.String("user_id", sess.UserID))
	return nil
}

// PermanentDelete purges a deleted document: best-effort file removal first,
// then the row. A missing file is fine and a removal failure is logged but
// does not fail the purge; purging an already-purged id succeeds as a no-op.
func (s *DocumentService) PermanentDelete(ctx context.Context, sess *models.Session, id, origin string) error {
	if err := auth.RequireCapability(sess, models.CapDelete); err != nil {
		return err
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Already purged.
			return nil
		}
		s.logger.Error("failed to get document for purge", slog.String("document_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !doc.Deleted {
		return models.ErrWrongState
	}

	if err := s.store.Remove(doc.FilePath); err != nil {
		s.logger.Error("failed to remove purged file", slog.String("path", doc.FilePath), slog.Any("error", err))
	}

	_, found, err := s.repo.HardDelete(ctx, id)
	if err != nil {
		s.logger.Error("failed to purge document", slog.String("document_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !found {
		// Raced with another purge.
		return nil
	}

	s.audit.RecordActivity(ctx, sess.UserID, models.ActivityPermanentDelete, fmt.Sprintf("permanently deleted document %s", id), origin)
	s.logger.Info("document purged", slog.String("document_id", id), slog.String("user_id", sess.UserID))
	return nil
}

// ListActive returns active documents matching the filter.
func (s *DocumentService) ListActive(ctx context.Context, sess *models.Session, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error) {
	if err := auth.RequireCapability(sess, models.CapView); err != nil {
		return nil, err
	}

	docs, err := s.repo.ListActive(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list documents", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return docs, nil
}

// ListDeleted returns the recycle bin. Restore and purge both need the
// delete capability, so the bin requires it too.
func (s *DocumentService) ListDeleted(ctx context.Context, sess *models.Session, limit, offset int) ([]*models.Document, error) {
	if err := auth.RequireCapability(sess, models.CapDelete); err != nil {
		return nil, err
	}

	docs, err := s.repo.ListDeleted(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list deleted documents", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return docs, nil
}

// OpenFile returns the document and a reader over its stored file, recording
// the access. action must be AccessView or AccessPrint; printing needs the
// print capability on top of view.
func (s *DocumentService) OpenFile(ctx context.Context, sess *models.Session, id, action, origin string) (*models.Document, io.ReadCloser, error) {
	if err := auth.RequireCapability(sess, models.CapView); err != nil {
		return nil, nil, err
	}
	if action == models.AccessPrint {
		if err := auth.RequireCapability(sess, models.CapPrint); err != nil {
			return nil, nil, err
		}
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrNotFound
		}
		s.logger.Error("failed to get document", slog.String("document_id", id), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}
	if doc.Deleted {
		return nil, nil, models.ErrNotFound
	}

	rc, err := s.store.Open(doc.FilePath)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Error("document file missing from store", slog.String("document_id", id), slog.String("path", doc.FilePath))
			return nil, nil, models.ErrStorage
		}
		s.logger.Error("failed to open document file", slog.String("document_id", id), slog.Any("error", err))
		return nil, nil, models.ErrStorage
	}

	s.audit.RecordDocumentAccess(ctx, doc.ID, sess.UserID, action, origin)
	return doc, rc, nil
}

// Dashboard aggregates the landing page data.
type Dashboard struct {
	Stats         *models.DashboardStats `json:"stats"`
	RecentUploads []*models.Document     `json:"recent_uploads"`
	Years         []int                  `json:"years"`
}

// GetDashboard returns stats, recent uploads, and the year filter values.
func (s *DocumentService) GetDashboard(ctx context.Context, sess *models.Session) (*Dashboard, error) {
	if err := auth.RequireCapability(sess, models.CapView); err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to get document stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	recent, err := s.repo.RecentUploads(ctx, 10)
	if err != nil {
		s.logger.Error("failed to get recent uploads", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	years, err := s.repo.DistinctYears(ctx)
	if err != nil {
		s.logger.Error("failed to get document years", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &Dashboard{Stats: stats, RecentUploads: recent, Years: years}, nil
}

// ListCompanies returns the active companies for the upload and filter forms.
func (s *DocumentService) ListCompanies(ctx context.Context, sess *models.Session) ([]*models.Company, error) {
	if err := auth.RequireCapability(sess, models.CapView); err != nil {
		return nil, err
	}

	companies, err := s.lookups.ListCompanies(ctx)
	if err != nil {
		s.logger.Error("failed to list companies", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return companies, nil
}

// ListCategories returns the document categories.
func (s *DocumentService) ListCategories(ctx context.Context, sess *models.Session) ([]*models.Category, error) {
	if err := auth.RequireCapability(sess, models.CapView); err != nil {
		return nil, err
	}

	categories, err := s.lookups.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return categories, nil
}

// orphanGrace is how old a stored file must be before the sweep will touch
// it. Files younger than this may belong to an upload still in flight.
const orphanGrace = time.Hour

// SweepOrphanedFiles removes stored files that no document row references.
// Orphans appear when a purge's file removal fails, or when an insert
// rollback cannot delete the file it just wrote.
func (s *DocumentService) SweepOrphanedFiles(ctx context.Context) (int, error) {
	files, err := s.store.List()
	if err != nil {
		s.logger.Error("failed to list stored files", slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	removed := 0
	for _, f := range files {
		if time.Since(f.ModTime) < orphanGrace {
			continue
		}

		exists, err := s.repo.FilePathExists(ctx, f.Path)
		if err != nil {
			s.logger.Error("failed to check file reference",
				slog.String("path", f.Path), slog.Any("error", err))
			continue
		}
		if exists {
			continue
		}

		if err := s.store.Remove(f.Path); err != nil {
			s.logger.Error("failed to remove orphaned file",
				slog.String("path", f.Path), slog.Any("error", err))
			continue
		}
		removed++
		s.logger.Info("orphaned file removed", slog.String("path", f.Path))
	}
	return removed, nil
}
