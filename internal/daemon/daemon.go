package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"muzzman/internal/config"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/modules"
	"muzzman/internal/notifications"
	"muzzman/internal/store"
)

// Daemon holds all location, element and module state and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *modules.Registry
	notifier notifications.Service
	version  string

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	runs     sync.WaitGroup
	notifies sync.WaitGroup

	mu              sync.Mutex
	modules         []*module
	moduleByID      map[ids.ModuleID]*module
	locations       map[ids.LocationID]*location
	elements        map[ids.ElementID]*element
	defaultLocation ids.LocationID
}

// New constructs a daemon. A nil store disables persistence.
func New(cfg *config.Config, st *store.Store, registry *modules.Registry, logger *slog.Logger, version string) (*Daemon, error) {
	if cfg == nil || registry == nil {
		return nil, errors.New("daemon requires config and module registry")
	}
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      st,
		registry:   registry,
		notifier:   notifications.NewService(cfg),
		version:    version,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
		moduleByID: make(map[ids.ModuleID]*module),
		locations:  make(map[ids.LocationID]*location),
		elements:   make(map[ids.ElementID]*element),
	}, nil
}

// Start acquires the daemon lock, restores persisted state, ensures the
// default location exists and autoloads module manifests.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another muzzman daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.restore(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("restore state: %w", err)
	}
	if err := d.ensureDefaultLocation(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return err
	}
	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()
	if d.cfg.Daemon.AutoloadModules {
		d.autoload(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("muzzman daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("modules", d.ModulesLen()),
		logging.String(logging.FieldEventType, "daemon_started"))
	return nil
}

// Stop cancels running elements and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.runs.Wait()
	d.notifies.Wait()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("muzzman daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool { return d.running.Load() }

// Ping returns the daemon pid and version.
func (d *Daemon) Ping() (int, string) {
	return os.Getpid(), d.version
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"))
	}
}

// runContext is the parent context for element runs. Callers hold d.mu.
func (d *Daemon) runContext() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}
