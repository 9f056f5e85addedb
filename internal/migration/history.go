package migration

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/onyx-go/dbkit/internal/errors"
)

// Lock is the opaque token returned by History.AcquireLock and required by
// ReleaseLock, standing in for the distributed-style lock of §4.H.
type Lock struct {
	Token string
}

// History is the migration history collaborator of §4.H: recording
// applied/rolled-back migrations and providing exclusive access via a
// lock. A database-backed implementation must serialize by a row or
// session-level lock (§5); the in-memory implementation below uses a
// reader-writer lock and a single held-flag.
type History interface {
	Initialize(ctx context.Context) error
	GetApplied(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	IsApplied(ctx context.Context, id string) (bool, error)
	RecordApplied(ctx context.Context, rec Record) error
	RecordRollback(ctx context.Context, id string) error
	LastApplied(ctx context.Context) (Record, bool, error)
	AcquireLock(ctx context.Context) (Lock, error)
	ReleaseLock(ctx context.Context, lock Lock) error
}

// MemoryHistory is the in-memory History implementation of §5: a
// reader-writer lock guards the record map, and at most one migration
// lock holder is allowed at a time with no blocking on re-acquisition.
type MemoryHistory struct {
	mu      sync.RWMutex
	records map[string]Record

	lockMu sync.Mutex
	held   bool
	token  string
	seq    int
}

// NewMemoryHistory returns an empty, ready-to-use MemoryHistory.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{records: make(map[string]Record)}
}

func (h *MemoryHistory) Initialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.records == nil {
		h.records = make(map[string]Record)
	}
	return nil
}

func (h *MemoryHistory) GetApplied(ctx context.Context) ([]Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Record, 0, len(h.records))
	for _, r := range h.records {
		if r.Status == StatusApplied {
			out = append(out, r)
		}
	}
	return out, nil
}

func (h *MemoryHistory) Get(ctx context.Context, id string) (Record, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.records[id]
	return r, ok, nil
}

func (h *MemoryHistory) IsApplied(ctx context.Context, id string) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.records[id]
	return ok && r.Status == StatusApplied, nil
}

func (h *MemoryHistory) RecordApplied(ctx context.Context, rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec.Status = StatusApplied
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now()
	}
	h.records[rec.ID] = rec
	return nil
}

func (h *MemoryHistory) RecordRollback(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.records[id]
	if !ok {
		r = Record{ID: id}
	}
	r.Status = StatusRolledBack
	h.records[id] = r
	return nil
}

// RecordFailed marks a migration Failed with the given error message; not
// part of the History interface proper (callers use it via the concrete
// type from the executor), matching §3's Running->Failed transition.
func (h *MemoryHistory) RecordFailed(ctx context.Context, rec Record, errMsg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec.Status = StatusFailed
	rec.ErrorMessage = errMsg
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now()
	}
	h.records[rec.ID] = rec
	return nil
}

func (h *MemoryHistory) LastApplied(ctx context.Context) (Record, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var best Record
	found := false
	for _, r := range h.records {
		if r.Status != StatusApplied {
			continue
		}
		if !found || r.AppliedAt.After(best.AppliedAt) {
			best = r
			found = true
		}
	}
	return best, found, nil
}

// AcquireLock returns an error immediately (no blocking) if the lock is
// already held, per §5.
func (h *MemoryHistory) AcquireLock(ctx context.Context) (Lock, error) {
	h.lockMu.Lock()
	defer h.lockMu.Unlock()
	if h.held {
		return Lock{}, errors.ErrLockHeld
	}
	h.seq++
	h.held = true
	h.token = generateLockToken(h.seq)
	return Lock{Token: h.token}, nil
}

func (h *MemoryHistory) ReleaseLock(ctx context.Context, lock Lock) error {
	h.lockMu.Lock()
	defer h.lockMu.Unlock()
	if !h.held || lock.Token != h.token {
		return nil // already released, or a stale token: idempotent
	}
	h.held = false
	h.token = ""
	return nil
}

func generateLockToken(seq int) string {
	return time.Now().UTC().Format("20060102150405") + "-" + strconv.Itoa(seq)
}
