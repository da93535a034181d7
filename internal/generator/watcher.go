package generator

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ProfileWatcher reloads a Registry when profile files in a directory change.
type ProfileWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	registry    *Registry
	dir         string
	logger      *zap.Logger
	debounceDur time.Duration
	pending     bool
	lastEvent   time.Time
	reloads     int
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewProfileWatcher creates a watcher for dir. Call Start to begin watching.
func NewProfileWatcher(dir string, registry *Registry, logger *zap.Logger) (*ProfileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProfileWatcher{
		watcher:     watcher,
		registry:    registry,
		dir:         dir,
		logger:      logger.Named("profiles"),
		debounceDur: 250 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start loads the directory once and then watches it in a goroutine until ctx
// is cancelled or Stop is called.
func (pw *ProfileWatcher) Start(ctx context.Context) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.running {
		return nil
	}

	if err := os.MkdirAll(pw.dir, 0755); err != nil {
		return err
	}
	if err := pw.watcher.Add(pw.dir); err != nil {
		return err
	}
	// Stop waits on doneCh, so running is only set once run is about to start.
	pw.running = true
	pw.logger.Info("watching profile directory", zap.String("dir", pw.dir))

	n, err := pw.registry.LoadDir(pw.dir)
	pw.reloaded(n, err)

	go pw.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (pw *ProfileWatcher) Stop() {
	pw.mu.Lock()
	if !pw.running {
		pw.mu.Unlock()
		_ = pw.watcher.Close()
		return
	}
	pw.running = false
	pw.mu.Unlock()

	close(pw.stopCh)
	<-pw.doneCh

	if err := pw.watcher.Close(); err != nil {
		pw.logger.Error("closing watcher", zap.Error(err))
	}
}

// Reloads returns how many times the registry was rebuilt.
func (pw *ProfileWatcher) Reloads() int {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.reloads
}

func (pw *ProfileWatcher) run(ctx context.Context) {
	defer close(pw.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pw.stopCh:
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if !isProfileFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			pw.logger.Debug("profile change", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			pw.mu.Lock()
			pw.pending = true
			pw.lastEvent = time.Now()
			pw.mu.Unlock()
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Error("watch error", zap.Error(err))
		case <-ticker.C:
			pw.mu.Lock()
			settled := pw.pending && time.Since(pw.lastEvent) >= pw.debounceDur
			if settled {
				pw.pending = false
			}
			pw.mu.Unlock()
			if settled {
				pw.reload()
			}
		}
	}
}

func (pw *ProfileWatcher) reload() {
	n, err := pw.registry.LoadDir(pw.dir)

	pw.mu.Lock()
	pw.reloaded(n, err)
	pw.mu.Unlock()
}

// reloaded records a finished load. Callers hold pw.mu.
func (pw *ProfileWatcher) reloaded(n int, err error) {
	if err != nil {
		pw.logger.Warn("some profiles failed to load", zap.Error(err))
	}
	pw.reloads++
	pw.logger.Info("profiles loaded", zap.Int("files", n), zap.Int("total", len(pw.registry.List())))
}
