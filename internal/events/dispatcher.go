// Package events dispatches in-process domain events inside one unit of work,
// before anything is committed.
package events

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/outbox"
	"go.uber.org/zap"
)

// SaveFunc persists one tracked aggregate inside the unit-of-work transaction.
type SaveFunc func(ctx context.Context, tx *sqlx.Tx) error

// Work is the slice of the unit of work visible to domain-event handlers:
// they may track more aggregates and stage outbox rows, never touch the
// database directly.
type Work interface {
	Track(agg domain.Aggregate, save SaveFunc)
	Tracked() []domain.Aggregate
	outbox.Stager
}

// Handler reacts to one domain event. Any error aborts the whole unit of
// work; nothing partial is persisted.
type Handler func(ctx context.Context, w Work, ev domain.DomainEvent) error

// maxPasses bounds the fixed-point loop against a handler cycle that keeps
// raising events forever.
const maxPasses = 100

// Dispatcher routes domain events to registered handlers, synchronously and
// in registration order.
type Dispatcher struct {
	handlers map[string][]Handler
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Register appends a handler for the given event name.
func (d *Dispatcher) Register(eventName string, h Handler) {
	d.handlers[eventName] = append(d.handlers[eventName], h)
}

// DispatchAll drains every tracked aggregate's buffer to a fixed point. Each
// pass collects all pending events into one ordered batch (clearing the
// buffers first, so events raised by handlers land in the next pass and
// nothing runs twice), then invokes the handlers. The loop ends when no
// tracked aggregate has pending events.
//
// Events drained from one aggregate keep their recorded order; ordering
// across aggregates in the same pass is unspecified.
func (d *Dispatcher) DispatchAll(ctx context.Context, w Work) error {
	for pass := 0; pass < maxPasses; pass++ {
		var batch []domain.DomainEvent
		for _, agg := range w.Tracked() {
			if agg.HasPending() {
				batch = append(batch, agg.Drain()...)
			}
		}
		if len(batch) == 0 {
			return nil
		}
		for _, ev := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, h := range d.handlers[ev.EventName()] {
				if err := h(ctx, w, ev); err != nil {
					return fmt.Errorf("handle %s: %w", ev.EventName(), err)
				}
			}
			d.log.Debug("domain event handled", zap.String("event", ev.EventName()))
		}
	}
	return fmt.Errorf("domain event dispatch did not settle after %d passes", maxPasses)
}
