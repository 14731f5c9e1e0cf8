package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/EmerzonBasa/crld/internal/services"
)

// CleanupManager periodically sweeps the file store for orphaned files.
// OTP challenge rows are part of the audit trail and are never touched.
type CleanupManager struct {
	documents *services.DocumentService
	logger    *slog.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(documents *services.DocumentService, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		documents: documents,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := cm.documents.SweepOrphanedFiles(cleanupCtx); err != nil {
		cm.logger.Error("orphaned file sweep failed", slog.Any("error", err))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
