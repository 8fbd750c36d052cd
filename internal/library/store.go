package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"musicus/internal/config"
	"musicus/internal/logging"
)

// Store persists the music library in SQLite.
//
// Every Update* call runs in one transaction with foreign key checks deferred
// to commit: the entity's row and everything it owns are replaced wholesale,
// and referenced entities missing from the database are created from the
// payload first. Delete* calls issue a single DELETE and leave refusal to the
// foreign keys, so deleting a work that still has recordings fails.
type Store struct {
	db     *sqlx.DB
	path   string
	logger *slog.Logger
	now    func() time.Time

	// writeMu serializes write transactions within the process.
	writeMu sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a logger; the store logs under the "library" component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "library")
	}
}

// WithClock replaces the time source used for last_used and last_played.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the library database named by the config.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.DatabasePath, opts...)
}

// OpenPath initializes or connects to the library database at path.
func OpenPath(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("open library: empty database path")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection enforces foreign keys.
	// Immediate transactions take the write lock at BEGIN, where busy_timeout
	// and retryOnBusy apply, instead of failing later on a read-to-write upgrade.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// withTx runs fn in a write transaction with deferred foreign keys. Writers
// from the same Store run one at a time. Only the BEGIN is retried on
// SQLITE_BUSY; once fn has written anything a failure rolls back and is
// returned to the caller.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	ctx = ensureContext(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	var tx *sqlx.Tx
	if err := retryOnBusy(ctx, func() error {
		var err error
		tx, err = s.db.BeginTxx(ctx, nil)
		return err
	}); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Resets automatically at commit or rollback.
	if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
		return fmt.Errorf("defer foreign keys: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// withReadTx runs fn against one snapshot so a hydrated entity never mixes
// rows from before and after a concurrent update.
func (s *Store) withReadTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(tx)
}

func (s *Store) deleteByID(ctx context.Context, kind Kind, id string) error {
	ctx = ensureContext(ctx)
	if err := requireID(kind, id); err != nil {
		return err
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM "+kind.table()+" WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.logger.Debug("entity deleted",
		logging.String(logging.FieldEventType, "entity_deleted"),
		logging.String("kind", string(kind)),
		logging.String("id", id),
	)
	return nil
}

func (s *Store) logUpdated(kind Kind, id string) {
	s.logger.Debug("entity updated",
		logging.String(logging.FieldEventType, "entity_updated"),
		logging.String("kind", string(kind)),
		logging.String("id", id),
	)
}

func (s *Store) timestamp() string {
	return formatTime(s.now())
}
