package pool

import "sync/atomic"

// Metrics holds the pool's atomic counters per §4.E. All updates use
// Relaxed-equivalent atomic operations; exact cross-field consistency is
// not required (§5 "eventually consistent").
type Metrics struct {
	ConnectionsCreated atomic.Int64
	ConnectionsClosed  atomic.Int64

	AcquiresTotal   atomic.Int64
	AcquiresSuccess atomic.Int64
	AcquiresTimeout atomic.Int64
	Releases        atomic.Int64

	ValidationsTotal  atomic.Int64
	ValidationsFailed atomic.Int64

	CurrentIdle  atomic.Int64
	CurrentInUse atomic.Int64

	TotalAcquireWaitMicros atomic.Int64
	MaxAcquireWaitMicros   atomic.Int64
}

func (m *Metrics) recordWait(micros int64) {
	m.TotalAcquireWaitMicros.Add(micros)
	for {
		cur := m.MaxAcquireWaitMicros.Load()
		if micros <= cur || m.MaxAcquireWaitMicros.CompareAndSwap(cur, micros) {
			return
		}
	}
}

// MetricsSnapshot is a point-in-time read of Metrics plus its derived
// figures (average wait, utilization, success rate), per §4.E/§6.
type MetricsSnapshot struct {
	ConnectionsCreated int64
	ConnectionsClosed  int64

	AcquiresTotal   int64
	AcquiresSuccess int64
	AcquiresTimeout int64
	Releases        int64

	ValidationsTotal  int64
	ValidationsFailed int64

	CurrentIdle  int64
	CurrentInUse int64

	TotalAcquireWaitMicros int64
	MaxAcquireWaitMicros   int64

	AverageAcquireWaitMicros float64
	Utilization              float64
	SuccessRate              float64
}

// Snapshot reads every counter and computes the derived fields.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		ConnectionsCreated:     m.ConnectionsCreated.Load(),
		ConnectionsClosed:      m.ConnectionsClosed.Load(),
		AcquiresTotal:          m.AcquiresTotal.Load(),
		AcquiresSuccess:        m.AcquiresSuccess.Load(),
		AcquiresTimeout:        m.AcquiresTimeout.Load(),
		Releases:               m.Releases.Load(),
		ValidationsTotal:       m.ValidationsTotal.Load(),
		ValidationsFailed:      m.ValidationsFailed.Load(),
		CurrentIdle:            m.CurrentIdle.Load(),
		CurrentInUse:           m.CurrentInUse.Load(),
		TotalAcquireWaitMicros: m.TotalAcquireWaitMicros.Load(),
		MaxAcquireWaitMicros:   m.MaxAcquireWaitMicros.Load(),
	}
	if s.AcquiresSuccess > 0 {
		s.AverageAcquireWaitMicros = float64(s.TotalAcquireWaitMicros) / float64(s.AcquiresSuccess)
	}
	if total := s.CurrentIdle + s.CurrentInUse; total > 0 {
		s.Utilization = float64(s.CurrentInUse) / float64(total)
	}
	if s.AcquiresTotal > 0 {
		s.SuccessRate = float64(s.AcquiresSuccess) / float64(s.AcquiresTotal)
	}
	return s
}

// Status is the lightweight observability snapshot of §6.
type Status struct {
	IdleConnections int
	InUseConnections int
	MaxConnections  int
	IsClosed        bool
}
