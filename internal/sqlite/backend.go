// Package sqlite implements the durable catalog store on SQLite.
//
// One Backend owns the connection. The attribute dictionary, source
// registry, product store and price ledger are thin accessors over it and
// share its write lock, so a sync run is a single writer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// DatabaseFile is the file name of the SQLite database inside DataDir.
const DatabaseFile = "catalog.db"

// InMemory as DataDir opens a private in-memory database.
const InMemory = ":memory:"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var tracer = otel.Tracer("github.com/mesh-intelligence/catalog/internal/sqlite")

// Backend holds the database handle and the store accessors.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger
	now      func() time.Time

	attributes *AttributeDictionary
	sources    *SourceRegistry
	products   *ProductStore
	ledger     *PriceLedger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock replaces time.Now for every timestamp the store writes.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "sqlite")
	b.attributes = &AttributeDictionary{backend: b}
	b.sources = &SourceRegistry{backend: b}
	b.products = &ProductStore{backend: b}
	b.ledger = &PriceLedger{backend: b}
	return b
}

// Attach opens the database named by config and creates any missing tables.
// Existing data is kept. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := openDB(config)
	if err != nil {
		return &types.StorageError{Op: "open", Err: err}
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return &types.StorageError{Op: "schema", Err: err}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Info("backend attached", "backend", config.Backend, "data_dir", config.DataDir)
	return nil
}

// Detach closes the database. Detach is idempotent; afterwards every store
// operation returns ErrBackendDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return &types.StorageError{Op: "close", Err: err}
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Info("backend detached")
	return nil
}

// Attributes returns the attribute dictionary.
func (b *Backend) Attributes() *AttributeDictionary { return b.attributes }

// Sources returns the source registry.
func (b *Backend) Sources() *SourceRegistry { return b.sources }

// Products returns the product store.
func (b *Backend) Products() *ProductStore { return b.products }

// Ledger returns the price history ledger.
func (b *Backend) Ledger() *PriceLedger { return b.ledger }

// openDB opens the configured driver. SQLite gets a single connection so
// that an in-memory database is shared by every query and writes are
// serialized at the driver.
func openDB(config types.Config) (*sql.DB, error) {
	if config.Backend == types.BackendLibSQL {
		db, err := sql.Open("libsql", config.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening libsql: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("pinging libsql: %w", err)
		}
		return db, nil
	}

	dsn := InMemory
	if config.DataDir != InMemory {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, DatabaseFile)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if dsn != InMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

func applySchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// write runs fn in a transaction while holding the write lock.
func (b *Backend) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrBackendDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Op: op, Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: op, Err: err}
	}
	return nil
}

// read runs fn against the database while holding the read lock.
func (b *Backend) read(fn func(q querier) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	return fn(b.db)
}

func (b *Backend) timestamp() string {
	return formatTime(b.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
