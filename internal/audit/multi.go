package audit

import (
	"context"
	"errors"

	"cipherchat/internal/domain"
)

// Multi delivers every event to each sink in order. A failing sink does not
// stop delivery to the rest; their errors are joined.
type Multi []domain.EventSink

// Emit implements domain.EventSink.
func (m Multi) Emit(ctx context.Context, ev domain.SecurityEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard domain.EventSink = Multi(nil)

var _ domain.EventSink = Multi(nil)
