package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cipherchat/internal/domain"
)

// bucketIdleTTL is how long an identity's bucket survives without failures.
const bucketIdleTTL = 10 * time.Minute

// Monitor forwards events to the next sink and watches failure events per
// identity. When an identity exhausts its failure budget a single
// SUSPICIOUS_ACTIVITY event is emitted; the flag clears once the bucket
// admits a failure again.
type Monitor struct {
	next  domain.EventSink
	limit rate.Limit
	burst int
	log   *zap.Logger
	now   func() time.Time

	mu      sync.Mutex
	buckets map[domain.Username]*failureBucket
	seen    uint64
}

type failureBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	flagged  bool
}

// NewMonitor wraps next. limit is failures per second allowed per identity
// and burst the bucket size; a non-positive value disables detection.
func NewMonitor(next domain.EventSink, limit float64, burst int, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		next:    next,
		limit:   rate.Limit(limit),
		burst:   burst,
		log:     logger.Named("monitor"),
		now:     time.Now,
		buckets: make(map[domain.Username]*failureBucket),
	}
}

// SetClock replaces the time source; tests use it to step the bucket.
func (m *Monitor) SetClock(now func() time.Time) { m.now = now }

// Emit forwards ev and, for failure events, updates the identity's bucket.
func (m *Monitor) Emit(ctx context.Context, ev domain.SecurityEvent) error {
	err := m.next.Emit(ctx, ev)
	if !ev.EventType.IsFailure() || ev.Identity == "" || m.limit <= 0 || m.burst <= 0 {
		return err
	}

	now := m.now()
	if !m.record(ev.Identity, now) {
		return err
	}
	m.log.Warn("repeated security failures", zap.String("identity", string(ev.Identity)))
	alert := domain.SecurityEvent{
		Timestamp: domain.TimestampFromTime(now),
		EventType: domain.EventSuspiciousActivity,
		Details:   fmt.Sprintf("Multiple failed attempts detected (last: %s)", ev.EventType),
		Identity:  ev.Identity,
	}
	if aerr := m.next.Emit(ctx, alert); err == nil {
		err = aerr
	}
	return err
}

// record spends one token for id and reports whether the bucket has just
// run dry.
func (m *Monitor) record(id domain.Username, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[id]
	if !ok {
		b = &failureBucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.buckets[id] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	raise := !allowed && !b.flagged
	b.flagged = !allowed

	m.seen++
	if m.seen%512 == 0 {
		cutoff := now.Add(-bucketIdleTTL)
		for k, v := range m.buckets {
			if v.lastSeen.Before(cutoff) {
				delete(m.buckets, k)
			}
		}
	}
	return raise
}

// Compile-time assertion that Monitor implements domain.EventSink.
var _ domain.EventSink = (*Monitor)(nil)
