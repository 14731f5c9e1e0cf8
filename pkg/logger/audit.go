package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security-relevant event emitted on the operational
// log channel. This channel supplements the durable audit tables; it is also
// where failures to write those tables are reported, since audit-write
// failures must never roll back the user-visible operation.
type AuditEvent struct {
	EventType     string
	UserID        string
	Origin        string
	Success       bool
	FailureReason string
}

// AuditLogger provides operational audit logging
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Origin != "" {
		attrs = append(attrs, slog.String("origin", event.Origin))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogAuditWriteFailure reports a failed durable audit write. The triggering
// operation has already succeeded from the caller's perspective.
func (al *AuditLogger) LogAuditWriteFailure(table, userID string, err error) {
	al.logger.LogAttrs(context.Background(), slog.LevelError, "audit_write_failed",
		slog.String("audit_type", "durability"),
		slog.String("table", table),
		slog.String("user_id", userID),
		slog.Any("error", err),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// LogAccountAction logs general account actions
func (al *AuditLogger) LogAccountAction(eventType, userID, origin string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", eventType),
		slog.String("user_id", userID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if origin != "" {
		attrs = append(attrs, slog.String("origin", origin))
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
