package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/onyx-go/dbkit/internal/errors"
	"github.com/onyx-go/dbkit/internal/logging"
)

// entry is one ManagedConnection: an adapter connection plus its pool-side
// metadata (§3).
type entry[C any] struct {
	conn       C
	id         uint64
	createdAt  time.Time
	lastUsedAt time.Time
	useCount   int64
	diagID     string // logging-only, not part of pool identity
}

func (e *entry[C]) age() time.Duration      { return time.Since(e.createdAt) }
func (e *entry[C]) idleFor() time.Duration  { return time.Since(e.lastUsedAt) }

// expired reports the expiration predicate of §4.E:
// age > max_lifetime || idle_time > idle_timeout || manager.HasExpired(c).
func (e *entry[C]) expired(cfg Config, mgr Manager[C]) bool {
	if cfg.MaxLifetime > 0 && e.age() > cfg.MaxLifetime {
		return true
	}
	if cfg.IdleTimeout > 0 && e.idleFor() > cfg.IdleTimeout {
		return true
	}
	return mgr.HasExpired(e.conn)
}

// Pool is the bounded, concurrent connection pool of §4.E, parameterized
// over the adapter connection type C via the Manager[C] contract.
type Pool[C any] struct {
	cfg     Config
	manager Manager[C]
	logger  logging.Logger
	metrics Metrics

	sem chan struct{} // counting semaphore: cap == MaxConnections

	mu   sync.Mutex // guards idle only, never held across a suspension point
	idle []*entry[C]

	nextID atomic.Uint64
	closed atomic.Bool

	maintStop chan struct{}
	maintDone chan struct{}
}

// Handle is a checked-out connection. Callers MUST call Release when done;
// Go has no drop-time hook, so Release plays the role §9 assigns to
// "an explicit release call" when the target language lacks one.
type Handle[C any] struct {
	pool     *Pool[C]
	entry    *entry[C]
	released atomic.Bool
}

// Conn returns the underlying adapter connection. Its ownership must not
// be retained past Release.
func (h *Handle[C]) Conn() C { return h.entry.conn }

// New constructs a Pool against manager, eagerly creating MinConnections
// connections and starting the background maintenance loop.
func New[C any](ctx context.Context, cfg Config, manager Manager[C], logger logging.Logger) (*Pool[C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	p := &Pool[C]{
		cfg:       cfg,
		manager:   manager,
		logger:    logger,
		sem:       make(chan struct{}, cfg.MaxConnections),
		maintStop: make(chan struct{}),
		maintDone: make(chan struct{}),
	}

	for i := 0; i < cfg.MinConnections; i++ {
		p.sem <- struct{}{} // cfg.Validate() guarantees MinConnections <= cap(sem)
		e, err := p.createEntry(ctx)
		<-p.sem
		if err != nil {
			logger.Warn("pool: failed to pre-create connection", map[string]interface{}{"error": err.Error()})
			continue
		}
		p.mu.Lock()
		p.idle = append(p.idle, e)
		p.mu.Unlock()
	}
	p.metrics.CurrentIdle.Store(int64(len(p.idle)))

	go p.runMaintenance()
	return p, nil
}

func (p *Pool[C]) createEntry(ctx context.Context) (*entry[C], error) {
	conn, err := p.manager.Connect(ctx)
	if err != nil {
		return nil, errors.NewConnFailed("connect", err)
	}
	now := time.Now()
	e := &entry[C]{
		conn:       conn,
		id:         p.nextID.Add(1),
		createdAt:  now,
		lastUsedAt: now,
		diagID:     uuid.NewString(),
	}
	p.metrics.ConnectionsCreated.Add(1)
	return e, nil
}

func (p *Pool[C]) closeEntry(e *entry[C]) {
	if err := p.manager.Close(e.conn); err != nil {
		p.logger.Warn("pool: error closing connection", map[string]interface{}{"id": e.id, "error": err.Error()})
	}
	p.metrics.ConnectionsClosed.Add(1)
}

// Acquire obtains a permit (bounded by cfg.AcquireTimeout, further bounded
// by ctx), then pops-or-creates a validated connection per §4.E.
func (p *Pool[C]) Acquire(ctx context.Context) (*Handle[C], error) {
	if p.closed.Load() {
		return nil, errors.NewPoolClosed()
	}

	p.metrics.AcquiresTotal.Add(1)
	start := time.Now()

	acquireCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	select {
	case p.sem <- struct{}{}:
	case <-acquireCtx.Done():
		p.metrics.AcquiresTimeout.Add(1)
		return nil, errors.NewPoolTimeout(p.cfg.AcquireTimeout)
	}

	for {
		if p.closed.Load() {
			<-p.sem
			return nil, errors.NewPoolClosed()
		}

		e, ok := p.popIdle()
		if !ok {
			newEntry, err := p.createEntry(ctx)
			if err != nil {
				<-p.sem
				return nil, err
			}
			e = newEntry
		} else if p.cfg.TestOnCheckout {
			p.metrics.ValidationsTotal.Add(1)
			if !p.manager.IsValid(ctx, e.conn) {
				p.metrics.ValidationsFailed.Add(1)
				p.closeEntry(e)
				continue
			}
		}

		if err := p.manager.OnAcquire(ctx, e.conn); err != nil {
			p.logger.Warn("pool: on_acquire failed, closing connection", map[string]interface{}{"id": e.id, "error": err.Error()})
			p.closeEntry(e)
			continue
		}

		e.lastUsedAt = time.Now()
		e.useCount++
		p.metrics.CurrentInUse.Add(1)
		p.metrics.AcquiresSuccess.Add(1)
		p.metrics.recordWait(time.Since(start).Microseconds())
		return &Handle[C]{pool: p, entry: e}, nil
	}
}

func (p *Pool[C]) popIdle() (*entry[C], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) == 0 {
		return nil, false
	}
	e := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]
	p.metrics.CurrentIdle.Store(int64(len(p.idle)))
	return e, true
}

func (p *Pool[C]) pushIdle(e *entry[C]) {
	p.mu.Lock()
	p.idle = append(p.idle, e)
	p.metrics.CurrentIdle.Store(int64(len(p.idle)))
	p.mu.Unlock()
}

// Release runs the checkin path of §4.E: if the pool is closed, close the
// connection; else optionally validate, reset, and run the release hook,
// closing on any failure; otherwise the connection returns to the idle
// queue. The permit is released only once this completes, matching the
// spec's "permit released when drop completes".
//
// Release spawns its work in a background goroutine and returns
// immediately, mirroring §4.E's drop-time behavior in a language without
// drop hooks (§9).
func (h *Handle[C]) Release(ctx context.Context) {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	p := h.pool
	e := h.entry
	go func() {
		defer func() { <-p.sem; p.metrics.Releases.Add(1); p.metrics.CurrentInUse.Add(-1) }()

		if p.closed.Load() {
			p.closeEntry(e)
			return
		}
		if p.cfg.TestOnCheckin {
			p.metrics.ValidationsTotal.Add(1)
			if !p.manager.IsValid(ctx, e.conn) {
				p.metrics.ValidationsFailed.Add(1)
				p.closeEntry(e)
				return
			}
		}
		if err := p.manager.Reset(ctx, e.conn); err != nil {
			p.closeEntry(e)
			return
		}
		if err := p.manager.OnRelease(ctx, e.conn); err != nil {
			p.closeEntry(e)
			return
		}
		p.pushIdle(e)
	}()
}

// Close idempotently drains the idle queue, closing every entry, and
// causes future Acquire calls to fail with PoolClosed.
func (p *Pool[C]) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.maintStop)
	<-p.maintDone

	p.mu.Lock()
	drained := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, e := range drained {
		p.closeEntry(e)
	}
	p.metrics.CurrentIdle.Store(0)
}

// Status returns the lightweight observability snapshot of §6.
func (p *Pool[C]) Status() Status {
	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	return Status{
		IdleConnections:  idle,
		InUseConnections: int(p.metrics.CurrentInUse.Load()),
		MaxConnections:   p.cfg.MaxConnections,
		IsClosed:         p.closed.Load(),
	}
}

// MetricsSnapshot returns a point-in-time read of the pool's counters.
func (p *Pool[C]) MetricsSnapshot() MetricsSnapshot { return p.metrics.Snapshot() }

// runMaintenance is the periodic background task of §4.E: partition idle
// entries into expired/to-check under the lock with no awaits, then close
// and validate outside the lock, re-push survivors, and replenish up to
// MinConnections. A panic here is recovered and logged so it never takes
// down the process (§7).
func (p *Pool[C]) runMaintenance() {
	defer close(p.maintDone)
	ticker := time.NewTicker(p.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.maintStop:
			return
		case <-ticker.C:
			p.runMaintenanceOnceSafely()
		}
	}
}

func (p *Pool[C]) runMaintenanceOnceSafely() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pool: maintenance panic recovered", map[string]interface{}{"panic": r})
		}
	}()
	p.maintainOnce(context.Background())
}

func (p *Pool[C]) maintainOnce(ctx context.Context) {
	p.mu.Lock()
	var expired, toCheck []*entry[C]
	for _, e := range p.idle {
		if e.expired(p.cfg, p.manager) {
			expired = append(expired, e)
		} else {
			toCheck = append(toCheck, e)
		}
	}
	p.idle = nil
	p.mu.Unlock()

	for _, e := range expired {
		p.closeEntry(e)
	}

	var survivors []*entry[C]
	for _, e := range toCheck {
		p.metrics.ValidationsTotal.Add(1)
		if p.manager.IsValid(ctx, e.conn) {
			survivors = append(survivors, e)
		} else {
			p.metrics.ValidationsFailed.Add(1)
			p.closeEntry(e)
		}
	}

	p.mu.Lock()
	p.idle = append(p.idle, survivors...)
	current := len(p.idle)
	p.metrics.CurrentIdle.Store(int64(current))
	p.mu.Unlock()

	for i := current; i < p.cfg.MinConnections; i++ {
		select {
		case p.sem <- struct{}{}:
		default:
			return // at max concurrency, can't replenish right now
		}
		e, err := p.createEntry(ctx)
		<-p.sem
		if err != nil {
			p.logger.Warn("pool: maintenance replenish failed", map[string]interface{}{"error": err.Error()})
			return
		}
		p.pushIdle(e)
	}
}
