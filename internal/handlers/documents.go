package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/services"
	pkghttp "github.com/EmerzonBasa/crld/pkg/http"
	"github.com/go-chi/chi/v5"
)

// DocumentServiceInterface defines the interface for document business logic
type DocumentServiceInterface interface {
	Upload(ctx context.Context, sess *models.Session, meta services.UploadMetadata, files []services.UploadFile, origin string) (*services.UploadResult, error)
	Delete(ctx context.Context, sess *models.Session, id, origin string) error
	Restore(ctx context.Context, sess *models.Session, id, origin string) error
	PermanentDelete(ctx context.Context, sess *models.Session, id, origin string) error
	ListActive(ctx context.Context, sess *models.Session, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error)
	ListDeleted(ctx context.Context, sess *models.Session, limit, offset int) ([]*models.Document, error)
	OpenFile(ctx context.Context, sess *models.Session, id, action, origin string) (*models.Document, io.ReadCloser, error)
	GetDashboard(ctx context.Context, sess *models.Session) (*services.Dashboard, error)
	ListCompanies(ctx context.Context, sess *models.Session) ([]*models.Company, error)
	ListCategories(ctx context.Context, sess *models.Session) ([]*models.Category, error)
}

// DocumentHandler handles document lifecycle HTTP requests
type DocumentHandler struct {
	service  DocumentServiceInterface
	ipConfig *pkghttp.IPConfig

	// multipart memory threshold; file parts beyond this spill to temp files
	maxMemory int64
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentServiceInterface, ipConfig *pkghttp.IPConfig) *DocumentHandler {
	return &DocumentHandler{
		service:   service,
		ipConfig:  ipConfig,
		maxMemory: 32 << 20,
	}
}

// DocumentResponse represents a document in HTTP responses
type DocumentResponse struct {
	ID              string     `json:"id"`
	CompanyID       int        `json:"company_id"`
	CategoryID      int        `json:"category_id"`
	AuthorName      string     `json:"author_name"`
	Description     string     `json:"description"`
	FileName        string     `json:"file_name"`
	FileSize        int64      `json:"file_size"`
	Year            int        `json:"year"`
	Month           int        `json:"month"`
	ScannedDate     *time.Time `json:"scanned_date,omitempty"`
	StorageLocation string     `json:"storage_location,omitempty"`
	PageCount       int        `json:"page_count"`
	UploadedBy      string     `json:"uploaded_by"`
	UploadedAt      time.Time  `json:"uploaded_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	DeletedBy       *string    `json:"deleted_by,omitempty"`
}

func documentToResponse(doc *models.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:              doc.ID,
		CompanyID:       doc.CompanyID,
		CategoryID:      doc.CategoryID,
		AuthorName:      doc.AuthorName,
		Description:     doc.Description,
		FileName:        doc.FileName,
		FileSize:        doc.FileSize,
		Year:            doc.Year,
		Month:           doc.Month,
		ScannedDate:     doc.ScannedDate,
		StorageLocation: doc.StorageLocation,
		PageCount:       doc.PageCount,
		UploadedBy:      doc.UploadedBy,
		UploadedAt:      doc.UploadedAt,
		DeletedAt:       doc.DeletedAt,
		DeletedBy:       doc.DeletedBy,
	}
}

func documentsToResponses(docs []*models.Document) []*DocumentResponse {
	responses := make([]*DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, documentToResponse(doc))
	}
	return responses
}

// writeDocumentError maps service errors onto HTTP responses shared by the
// lifecycle endpoints.
func writeDocumentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Document not found")
	case errors.Is(err, models.ErrWrongState):
		pkghttp.WriteConflict(w, "Document is not in the required state")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrStorage):
		pkghttp.WriteInternalError(w, "Storage failure")
	default:
		pkghttp.WriteInternalError(w, "An error occurred")
	}
}

// parsePagination reads limit/offset query params with sane bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// Upload handles a multipart batch of PDF files sharing one metadata set.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	companyID, err := strconv.Atoi(r.FormValue("company_id"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "company_id must be an integer")
		return
	}
	categoryID, err := strconv.Atoi(r.FormValue("category_id"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "category_id must be an integer")
		return
	}

	meta := services.UploadMetadata{
		CompanyID:       companyID,
		CategoryID:      categoryID,
		AuthorName:      r.FormValue("author_name"),
		Description:     r.FormValue("description"),
		StorageLocation: r.FormValue("storage_location"),
	}
	if v, err := strconv.Atoi(r.FormValue("year")); err == nil {
		meta.Year = v
	}
	if v, err := strconv.Atoi(r.FormValue("month")); err == nil && v >= 1 && v <= 12 {
		meta.Month = v
	}
	if v := r.FormValue("scanned_date"); v != "" {
		scanned, err := time.Parse("2006-01-02", v)
		if err != nil {
			pkghttp.WriteBadRequest(w, "scanned_date must be YYYY-MM-DD")
			return
		}
		meta.ScannedDate = &scanned
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		pkghttp.WriteBadRequest(w, "At least one file is required")
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	opened := make([]io.Closer, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			pkghttp.WriteBadRequest(w, fmt.Sprintf("Could not read file %q", fh.Filename))
			return
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{OriginalName: fh.Filename, Content: f})
	}

	result, err := h.service.Upload(r.Context(), sess, meta, files, origin)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	resp := struct {
		Uploaded []*DocumentResponse    `json:"uploaded"`
		Skipped  []services.SkippedFile `json:"skipped"`
	}{
		Uploaded: documentsToResponses(result.Uploaded),
		Skipped:  result.Skipped,
	}

	status := http.StatusCreated
	if len(result.Uploaded) == 0 {
		status = http.StatusUnprocessableEntity
	}
	pkghttp.WriteJSON(w, status, resp)
}

// List returns active documents, optionally filtered by company, category,
// year, month, or a free-text search.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	limit, offset := parsePagination(r)

	q := r.URL.Query()
	filter := models.DocumentFilter{Search: q.Get("search")}
	if v, err := strconv.Atoi(q.Get("company_id")); err == nil {
		filter.CompanyID = v
	}
	if v, err := strconv.Atoi(q.Get("category_id")); err == nil {
		filter.CategoryID = v
	}
	if v, err := strconv.Atoi(q.Get("year")); err == nil {
		filter.Year = v
	}
	if v, err := strconv.Atoi(q.Get("month")); err == nil {
		filter.Month = v
	}

	docs, err := h.service.ListActive(r.Context(), sess, filter, limit, offset)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"documents": documentsToResponses(docs)})
}

// RecycleBin returns soft-deleted documents.
func (h *DocumentHandler) RecycleBin(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	limit, offset := parsePagination(r)

	docs, err := h.service.ListDeleted(r.Context(), sess, limit, offset)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"documents": documentsToResponses(docs)})
}

// File streams the stored PDF. ?action=print records a print access instead
// of a view and requires the print capability.
func (h *DocumentHandler) File(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)
	id := chi.URLParam(r, "id")

	action := models.AccessView
	if r.URL.Query().Get("action") == "print" {
		action = models.AccessPrint
	}

	doc, rc, err := h.service.OpenFile(r.Context(), sess, id, action, origin)
	if err != nil {
		writeDocumentError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	io.Copy(w, rc)
}

// Delete soft-deletes a document.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), sess, id, origin); err != nil {
		writeDocumentError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

// Restore moves a deleted document back to active.
func (h *DocumentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)
	id := chi.URLParam(r, "id")

	if err := h.service.Restore(r.Context(), sess, id, origin); err != nil {
		writeDocumentError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "document restored"})
}

// PermanentDelete purges a deleted document. Purging an id that is already
// gone succeeds with no content.
func (h *DocumentHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)
	id := chi.URLParam(r, "id")

	if err := h.service.PermanentDelete(r.Context(), sess, id, origin); err != nil {
		writeDocumentError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Dashboard returns totals, recent uploads, and filter years.
func (h *DocumentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)

	dash, err := h.service.GetDashboard(r.Context(), sess)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, struct {
		Stats         *models.DashboardStats `json:"stats"`
		RecentUploads []*DocumentResponse    `json:"recent_uploads"`
		Years         []int                  `json:"years"`
	}{
		Stats:         dash.Stats,
		RecentUploads: documentsToResponses(dash.RecentUploads),
		Years:         dash.Years,
	})
}

// Companies returns the active companies lookup.
func (h *DocumentHandler) Companies(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)

	companies, err := h.service.ListCompanies(r.Context(), sess)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	resp := make([]map[string]interface{}, 0, len(companies))
	for _, c := range companies {
		resp = append(resp, map[string]interface{}{"id": c.ID, "name": c.Name})
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"companies": resp})
}

// Categories returns the document categories lookup.
func (h *DocumentHandler) Categories(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)

	categories, err := h.service.ListCategories(r.Context(), sess)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	resp := make([]map[string]interface{}, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, map[string]interface{}{"id": c.ID, "name": c.Name, "path": c.Path})
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": resp})
}
