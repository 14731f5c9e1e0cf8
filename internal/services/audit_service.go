package services

import (
	"context"
	"log/slog"

	"github.com/EmerzonBasa/crld/internal/models"
	pkglogger "github.com/EmerzonBasa/crld/pkg/logger"
)

// ActivityLogRepository defines the interface for user activity persistence
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *models.ActivityLogEntry) error
	List(ctx context.Context, limit, offset int) ([]*models.ActivityLogEntry, error)
}

// AccessLogRepository defines the interface for document access persistence
type AccessLogRepository interface {
	Append(ctx context.Context, entry *models.AccessLogEntry) error
	ListByDocument(ctx context.Context, documentID string, limit, offset int) ([]*models.AccessLogEntry, error)
}

// AuditService records user activity and document access trails. Write
// failures are logged and swallowed; an audit problem must never fail the
// operation being audited.
type AuditService struct {
	activityRepo ActivityLogRepository
	accessRepo   AccessLogRepository
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
}

// NewAuditService creates a new AuditService
func NewAuditService(activityRepo ActivityLogRepository, accessRepo AccessLogRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuditService {
	return &AuditService{
		activityRepo: activityRepo,
		accessRepo:   accessRepo,
		logger:       logger,
		auditLogger:  auditLogger,
	}
}

// RecordActivity appends a user activity entry.
func (s *AuditService) RecordActivity(ctx context.Context, userID, kind, description, origin string) {
	entry := &models.ActivityLogEntry{
		UserID:      userID,
		Kind:        kind,
		Description: description,
		Origin:      origin,
	}

	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.auditLogger.LogAuditWriteFailure("user_activity_log", userID, err)
	}
}

// RecordDocumentAccess appends a document access entry.
func (s *AuditService) RecordDocumentAccess(ctx context.Context, documentID, userID, action, origin string) {
	entry := &models.AccessLogEntry{
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
		Origin:     origin,
	}

	if err := s.accessRepo.Append(ctx, entry); err != nil {
		s.auditLogger.LogAuditWriteFailure("document_access_log", userID, err)
	}
}

// ListActivity returns the newest activity entries for review screens.
func (s *AuditService) ListActivity(ctx context.Context, limit, offset int) ([]*models.ActivityLogEntry, error) {
	entries, err := s.activityRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list activity log", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

// ListDocumentAccess returns the access trail for a document.
func (s *AuditService) ListDocumentAccess(ctx context.Context, documentID string, limit, offset int) ([]*models.AccessLogEntry, error) {
	entries, err := s.accessRepo.ListByDocument(ctx, documentID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list access log", slog.String("document_id", documentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}
