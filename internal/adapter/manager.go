package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onyx-go/dbkit/internal/errors"
	"github.com/onyx-go/dbkit/internal/pool"
)

// Connection is the physical connection handle handed out by Manager,
// implementing pool.Manager[*Connection]'s C type parameter.
type Connection struct {
	ID        string
	Conn      *sql.Conn
	createdAt time.Time
}

// Manager is the pool.Manager[*Connection] implementation backing a single
// dialect, built on a *sql.DB that database/sql itself pools internally —
// this adapter hands out *sql.Conn checkouts from it so dbkit's own pool
// (internal/pool) governs the externally visible concurrency limit, per
// §3.1's "the toolkit's pool, not database/sql's, is authoritative".
type Manager struct {
	pool.NoopHooks[*Connection]

	db     *sql.DB
	cfg    Config
}

// NewManager opens db via database/sql using cfg's dialect and DSN, and
// verifies it with a ping before returning.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	db, err := sql.Open(cfg.Dialect.driverName(), cfg.DSN)
	if err != nil {
		return nil, errors.NewConnFailed(fmt.Sprintf("open %s", cfg.Dialect), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewConnFailed(fmt.Sprintf("ping %s", cfg.Dialect), err)
	}
	return &Manager{db: db, cfg: cfg}, nil
}

// Connect checks out a fresh *sql.Conn from the underlying *sql.DB.
func (m *Manager) Connect(ctx context.Context) (*Connection, error) {
	c, err := m.db.Conn(ctx)
	if err != nil {
		return nil, errors.NewConnFailed("checkout connection", err)
	}
	return &Connection{ID: uuid.NewString(), Conn: c, createdAt: time.Now()}, nil
}

// IsValid runs database/sql's own PingContext as the cheap health probe.
func (m *Manager) IsValid(ctx context.Context, c *Connection) bool {
	return c.Conn.PingContext(ctx) == nil
}

// HasExpired reports whether c has lived past the dialect's configured
// MaxLifetime.
func (m *Manager) HasExpired(c *Connection) bool {
	if m.cfg.MaxLifetime <= 0 {
		return false
	}
	return time.Since(c.createdAt) > m.cfg.MaxLifetime
}

// Reset runs "SELECT 1" on c as a round-trip check. It does not roll back
// an open transaction or clear session settings such as the search path.
func (m *Manager) Reset(ctx context.Context, c *Connection) error {
	_, err := c.Conn.ExecContext(ctx, "SELECT 1")
	return err
}

// Close releases c back to database/sql's own internal pool (which owns the
// real socket lifecycle).
func (m *Manager) Close(c *Connection) error {
	return c.Conn.Close()
}

// DB exposes the underlying *sql.DB for callers (notably the SQLExecutor
// below) that need to run statements outside a single pooled checkout.
func (m *Manager) DB() *sql.DB { return m.db }

// Shutdown closes the underlying *sql.DB entirely; call after draining the
// dbkit pool built on this Manager.
func (m *Manager) Shutdown() error { return m.db.Close() }
