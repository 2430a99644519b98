package audit

import (
	"context"
	"sync"

	"cipherchat/internal/domain"
)

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Emit implements domain.EventSink.
func (r *Recorder) Emit(_ context.Context, ev domain.SecurityEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// Events returns recorded events in emit order, filtered by type and
// identity. Empty filter values match everything.
func (r *Recorder) Events(eventType domain.EventType, identity domain.Username) []domain.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SecurityEvent
	for _, ev := range r.events {
		if eventType != "" && ev.EventType != eventType {
			continue
		}
		if identity != "" && ev.Identity != identity {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Count returns the number of recorded events of eventType.
func (r *Recorder) Count(eventType domain.EventType) int {
	return len(r.Events(eventType, ""))
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

var _ domain.EventSink = (*Recorder)(nil)
