package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"musicus/internal/config"
	"musicus/internal/importer"
	"musicus/internal/library"
	"musicus/internal/logging"
	"musicus/internal/staging"
)

// staleStagingAge is how long a rip directory may sit untouched before the
// watcher removes it on startup.
const staleStagingAge = 24 * time.Hour

// Options wires the daemon's collaborators. NewSource defaults to a disc
// source built from the config; WaitReady defaults to polling the drive.
type Options struct {
	Catalog     library.Catalog
	Logger      *slog.Logger
	NewSource   SourceFactory
	WaitReady   func(ctx context.Context, device string) error
	OnDetection func(Detection)
	Now         func() time.Time
}

// Daemon watches one drive and identifies inserted discs.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	detector *detector
	monitor  *netlinkMonitor
	notify   func(Detection)

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc

	mu   sync.Mutex
	last *Detection
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Device        string
	Monitoring    bool
	LockFilePath  string
	LastDetection *Detection
}

// New constructs a daemon. The lock file lives in the log directory.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil || opts.Catalog == nil {
		return nil, errors.New("daemon requires config and catalog")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "watch")

	newSource := opts.NewSource
	if newSource == nil {
		newSource = func(device string) (importer.Source, error) {
			discOpts := importer.DiscOptionsFromConfig(cfg)
			discOpts.Device = device
			discOpts.Eject = false
			discOpts.Logger = logger
			return importer.NewDiscSource(discOpts)
		}
	}
	waitReady := opts.WaitReady
	if waitReady == nil {
		waitReady = defaultWaitReady
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	lockDir := cfg.Paths.LogDir
	if lockDir == "" {
		lockDir = cfg.Paths.StagingDir
	}
	lockPath := filepath.Join(lockDir, "musicus-watch.lock")

	d := &Daemon{
		cfg:    cfg,
		logger: logger,
		detector: &detector{
			catalog:   opts.Catalog,
			logger:    logger,
			newSource: newSource,
			waitReady: waitReady,
			now:       now,
		},
		notify:   opts.OnDetection,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.monitor = newNetlinkMonitor(cfg.Disc.Device, cfg.WatchDebounce(), logger, d.Detect, d.detector.busy.Load)
	return d, nil
}

// Start acquires the single-instance lock, sweeps stale rip directories and
// begins listening for discs.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another musicus watcher is already running")
	}

	if result := staging.CleanStale(ctx, d.cfg.Paths.StagingDir, staleStagingAge, d.logger); len(result.Removed) > 0 {
		d.logger.Info("removed rip directories from interrupted imports",
			logging.String(logging.FieldEventType, "staging_swept"),
			logging.Int("count", len(result.Removed)),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.monitor.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start monitor: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("musicus watcher started",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String("device", d.cfg.Disc.Device),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop stops listening and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.monitor.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release watch lock", "watch_unlock_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
		)
	}
	d.running.Store(false)
	d.logger.Info("musicus watcher stopped", logging.String(logging.FieldEventType, "watch_stopped"))
}

// Close stops the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Detect identifies the disc in device. The netlink monitor calls it on
// insertion; "musicus watch --once" calls it directly.
func (d *Daemon) Detect(ctx context.Context, device string) (*Detection, error) {
	detection, err := d.detector.Detect(ctx, device)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.last = detection
	d.mu.Unlock()
	if d.notify != nil {
		d.notify(*detection)
	}
	return detection, nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	last := d.last
	d.mu.Unlock()
	return Status{
		Running:       d.running.Load(),
		Device:        d.cfg.Disc.Device,
		Monitoring:    d.monitor.Running(),
		LockFilePath:  d.lockPath,
		LastDetection: last,
	}
}
