package history

import (
	"context"
	"time"

	"github.com/synthgen/backend/internal/storage"
	"go.uber.org/zap"
)

// RunRetention deletes runs older than maxAge every interval until ctx is done.
// When files is set, uploaded source files past the same age go with them.
// A non-positive maxAge disables it.
func RunRetention(ctx context.Context, store Store, files storage.Store, maxAge, interval time.Duration, logger *zap.Logger) error {
	if maxAge <= 0 {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep(ctx, store, files, time.Now().Add(-maxAge), logger)
		}
	}
}

func sweep(ctx context.Context, store Store, files storage.Store, cutoff time.Time, logger *zap.Logger) {
	if _, err := store.DeleteOlderThan(ctx, cutoff); err != nil {
		logger.Warn("run retention sweep failed", zap.Error(err))
	}
	if files == nil {
		return
	}
	n, err := files.DeleteOlderThan(cutoff)
	if err != nil {
		logger.Warn("upload retention sweep failed", zap.Error(err))
	}
	if n > 0 {
		logger.Info("expired uploads removed", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
}
