package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/metrics"
	"go.uber.org/zap"
)

// Publisher hands a decoded integration event to the notification transport.
// At-least-once: a crash after publish but before MarkProcessed re-delivers.
type Publisher interface {
	Publish(ctx context.Context, ev integration.Event) error
}

// Config tunes one dispatcher instance.
type Config struct {
	BatchSize        int           // rows per run, default 50
	BackoffBase      time.Duration // first retry delay, default 30s
	BackoffMaxDoubls int           // cap on exponential doubling, default 6
}

// Dispatcher drains due outbox rows and publishes them. Rows are processed
// independently and concurrently; one poison row throttles itself via
// fail_count/next_processing_at and never delays its neighbors.
type Dispatcher struct {
	store     Store
	publisher Publisher
	registry  *integration.Registry
	cfg       Config
	log       *zap.Logger
	now       func() time.Time
}

func NewDispatcher(store Store, publisher Publisher, registry *integration.Registry, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 30 * time.Second
	}
	if cfg.BackoffMaxDoubls <= 0 {
		cfg.BackoffMaxDoubls = 6
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		registry:  registry,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// RunBatch performs one dispatch pass. Errors stay per-row and never
// propagate to the scheduler.
func (d *Dispatcher) RunBatch(ctx context.Context) {
	recs, err := d.store.FetchPending(ctx, d.cfg.BatchSize)
	if err != nil {
		d.log.Warn("outbox: fetch pending failed", zap.Error(err))
		return
	}
	if len(recs) == 0 {
		return
	}
	d.log.Debug("outbox: dispatching batch", zap.Int("count", len(recs)))

	var wg sync.WaitGroup
	for _, rec := range recs {
		if ctx.Err() != nil {
			break // unpublished rows stay eligible for the next tick
		}
		wg.Add(1)
		go func(rec Record) {
			defer wg.Done()
			d.process(ctx, rec)
		}(rec)
	}
	wg.Wait()
}

func (d *Dispatcher) process(ctx context.Context, rec Record) {
	ev, err := d.registry.Decode(rec.Type, rec.Data)
	if err != nil {
		// Unknown type or undecodable payload will never succeed on retry.
		// Park the row (processed_at stays NULL) for manual intervention.
		if markErr := d.store.MarkTerminal(ctx, rec.ID, err.Error()); markErr != nil {
			d.log.Warn("outbox: mark terminal failed", zap.String("id", rec.ID), zap.Error(markErr))
			return
		}
		metrics.OutboxEventsTotal.WithLabelValues("terminal").Inc()
		d.log.Error("outbox: unresolvable record",
			zap.String("id", rec.ID),
			zap.String("type", rec.Type),
			zap.Error(err),
		)
		return
	}

	if err := d.publisher.Publish(ctx, ev); err != nil {
		if errors.Is(err, context.Canceled) {
			return // row stays eligible, not a failure
		}
		next := d.now().UTC().Add(d.backoff(rec.FailCount))
		if markErr := d.store.MarkFailed(ctx, rec.ID, err.Error(), next); markErr != nil {
			d.log.Warn("outbox: mark failed failed", zap.String("id", rec.ID), zap.Error(markErr))
			return
		}
		metrics.OutboxEventsTotal.WithLabelValues("retry").Inc()
		d.log.Warn("outbox: publish failed",
			zap.String("id", rec.ID),
			zap.String("type", rec.Type),
			zap.Int("fail_count", rec.FailCount+1),
			zap.Time("next_attempt", next),
			zap.Error(err),
		)
		return
	}

	if err := d.store.MarkProcessed(ctx, rec.ID); err != nil {
		// Published but not marked: the row is re-delivered next tick.
		// Acceptable under at-least-once.
		d.log.Warn("outbox: mark processed failed", zap.String("id", rec.ID), zap.Error(err))
		return
	}
	metrics.OutboxEventsTotal.WithLabelValues("published").Inc()
}

// backoff grows exponentially with the row's fail count, capped so a poison
// message keeps retrying at a bounded cadence instead of drifting forever.
func (d *Dispatcher) backoff(failCount int) time.Duration {
	n := failCount
	if n > d.cfg.BackoffMaxDoubls {
		n = d.cfg.BackoffMaxDoubls
	}
	return d.cfg.BackoffBase << uint(n)
}
