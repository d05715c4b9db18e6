package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"folio/internal/config"
	"folio/internal/storage/sqlite"
	"folio/internal/taskstore"
)

// app holds the resources shared by every command that touches task data.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sqlite.Store
	tasks    *taskstore.Store
	lockFile *flock.Flock
}

// openApp takes the data directory lock, opens the database and loads the
// task collection.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.acquireLock(); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.DBPath(), logger)
	if err != nil {
		a.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	tasks, err := taskstore.Open(ctx, db, taskstore.WithSlot(cfg.Slot), taskstore.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	a.tasks = tasks
	return a, nil
}

func (a *app) acquireLock() error {
	a.lockFile = flock.New(a.cfg.LockPath())

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another folio instance is using %s", a.cfg.DataDir)
	}
	return nil
}

func (a *app) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close releases the database and the lock.
func (a *app) Close() error {
	var closeErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	a.releaseLock()
	return closeErr
}
