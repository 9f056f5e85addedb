package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onyx-go/dbkit/internal/errors"
)

// fakeConn is a trivial connection type for testing the pool against an
// in-memory Manager.
type fakeConn struct {
	id int64
}

type fakeManager struct {
	NoopHooks[*fakeConn]
	counter      atomic.Int64
	validateFunc func(*fakeConn) bool
	closed       atomic.Int64
}

func (m *fakeManager) Connect(ctx context.Context) (*fakeConn, error) {
	return &fakeConn{id: m.counter.Add(1)}, nil
}
func (m *fakeManager) IsValid(ctx context.Context, c *fakeConn) bool {
	if m.validateFunc != nil {
		return m.validateFunc(c)
	}
	return true
}
func (m *fakeManager) HasExpired(c *fakeConn) bool { return false }
func (m *fakeManager) Reset(ctx context.Context, c *fakeConn) error { return nil }
func (m *fakeManager) Close(c *fakeConn) error {
	m.closed.Add(1)
	return nil
}

func newTestPool(t *testing.T, cfg Config, mgr *fakeManager) *Pool[*fakeConn] {
	t.Helper()
	p, err := New(context.Background(), cfg, mgr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestPoolCapacityBoundsConcurrentLiveHandles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConnections = 0
	cfg.MaxConnections = 2
	cfg.AcquireTimeout = 200 * time.Millisecond
	mgr := &fakeManager{}
	p := newTestPool(t, cfg, mgr)

	h1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	h2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	// A third acquire must time out: max_connections=2 are both live.
	_, err = p.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected PoolTimeout, got nil")
	}
	var connErr *errors.ConnectionError
	if !errors.As(err, &connErr) || connErr.Kind != errors.ConnPoolTimeout {
		t.Fatalf("expected ConnPoolTimeout, got %v", err)
	}

	h1.Release(context.Background())
	h2.Release(context.Background())
}

func TestPoolTimeoutMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConnections = 0
	cfg.MaxConnections = 1
	cfg.AcquireTimeout = 50 * time.Millisecond
	mgr := &fakeManager{}
	p := newTestPool(t, cfg, mgr)

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	start := time.Now()
	_, err = p.Acquire(context.Background())
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("acquire took too long: %v", elapsed)
	}

	snap := p.MetricsSnapshot()
	if snap.AcquiresTimeout != 1 {
		t.Errorf("expected AcquiresTimeout=1, got %d", snap.AcquiresTimeout)
	}

	h.Release(context.Background())
}

func TestPoolLivenessNoLeakedPermits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConnections = 0
	cfg.MaxConnections = 3
	cfg.AcquireTimeout = time.Second
	mgr := &fakeManager{}
	p := newTestPool(t, cfg, mgr)

	var handles []*Handle[*fakeConn]
	for i := 0; i < 3; i++ {
		h, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		h.Release(context.Background())
	}

	// Wait for the async release goroutines to complete and push the
	// permits back; poll rather than sleep a fixed guess.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Status().IdleConnections == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Status().IdleConnections; got != 3 {
		t.Fatalf("expected 3 idle connections after release, got %d", got)
	}

	// All 3 permits must be available again — acquiring 3 more should not
	// block.
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := p.Acquire(context.Background())
			errs[i] = err
			if h != nil {
				h.Release(context.Background())
			}
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("acquire %d after release: %v", i, err)
		}
	}
}

func TestPoolCloseIsIdempotentAndRejectsAcquire(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConnections = 1
	cfg.MaxConnections = 2
	mgr := &fakeManager{}
	p, err := New(context.Background(), cfg, mgr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p.Close()
	p.Close() // idempotent

	_, err = p.Acquire(context.Background())
	if !errors.Is(err, errors.ErrPoolClosed) {
		t.Errorf("expected PoolClosed after Close, got %v", err)
	}
	if mgr.closed.Load() == 0 {
		t.Errorf("expected idle connections to be closed on Close")
	}
}

func TestPoolValidationFailureOnCheckoutRebuildsConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConnections = 1
	cfg.MaxConnections = 1
	cfg.TestOnCheckout = true
	var failNext atomic.Bool
	failNext.Store(true)
	mgr := &fakeManager{validateFunc: func(c *fakeConn) bool { return !failNext.Load() }}
	p := newTestPool(t, cfg, mgr)

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if mgr.closed.Load() != 1 {
		t.Errorf("expected the invalid idle connection to be closed, closed count=%d", mgr.closed.Load())
	}
	h.Release(context.Background())
}
