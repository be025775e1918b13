package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/skrasekmichael/teamup/internal/metrics"
	"github.com/skrasekmichael/teamup/internal/repository"
	"go.uber.org/zap"
)

// Reporter sinks the notification topic into the ClickHouse reports table.
// It commits the Kafka offset only after a successful insert; re-delivered
// duplicates are acceptable in an append-only reporting store.
type Reporter struct {
	consumer *Consumer
	reports  repository.ReportsRepository
	log      *zap.Logger
}

func NewReporter(consumer *Consumer, reports repository.ReportsRepository, log *zap.Logger) *Reporter {
	return &Reporter{consumer: consumer, reports: reports, log: log}
}

// Run blocks until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) error {
	if err := r.reports.EnsureSchema(ctx); err != nil {
		return err
	}

	for {
		m, err := r.consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Warn("reporter: fetch failed", zap.Error(err))
			time.Sleep(200 * time.Millisecond)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil || env.ID == "" {
			// poison message: commit and skip
			r.log.Warn("reporter: bad envelope", zap.Error(err))
			_ = r.consumer.Commit(ctx, m)
			continue
		}

		row := repository.NotificationRow{
			ID:        env.ID,
			Type:      env.Type,
			Payload:   string(env.Data),
			CreatedAt: env.OccurredAt,
		}
		if err := r.reports.Insert(ctx, row); err != nil {
			// leave the offset uncommitted; the message is retried
			r.log.Warn("reporter: insert failed", zap.String("id", env.ID), zap.Error(err))
			continue
		}
		metrics.NotificationsStoredTotal.Inc()

		if err := r.consumer.Commit(ctx, m); err != nil {
			r.log.Warn("reporter: commit failed", zap.Error(err))
		}
	}
}
