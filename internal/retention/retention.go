// Package retention removes rows whose grace period has passed: delivered
// outbox entries, stale invitations, and abandoned unverified accounts.
package retention

import (
	"context"
	"time"

	"github.com/skrasekmichael/teamup/internal/metrics"
	"github.com/skrasekmichael/teamup/internal/outbox"
	"github.com/skrasekmichael/teamup/internal/repository"
	"go.uber.org/zap"
)

type Config struct {
	OutboxWindow  time.Duration // keep processed outbox rows this long
	InvitationTTL time.Duration // unaccepted invitations expire after this
	ActivationTTL time.Duration // pending accounts are dropped after this
}

// Job is idempotent and safe to run concurrently with the outbox dispatcher:
// it only deletes already-processed or independently-expired rows.
type Job struct {
	store       outbox.Store
	invitations repository.InvitationsRepository
	users       repository.UsersRepository
	cfg         Config
	log         *zap.Logger
	now         func() time.Time
}

func NewJob(store outbox.Store, invitations repository.InvitationsRepository, users repository.UsersRepository, cfg Config, log *zap.Logger) *Job {
	return &Job{
		store:       store,
		invitations: invitations,
		users:       users,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// Run performs one cleanup pass. Each table is handled independently; a
// failure on one does not stop the others.
func (j *Job) Run(ctx context.Context) {
	now := j.now().UTC()

	if j.cfg.OutboxWindow > 0 {
		n, err := j.store.DeleteProcessedBefore(ctx, now.Add(-j.cfg.OutboxWindow))
		j.report("outbox", n, err)
	}
	if j.cfg.InvitationTTL > 0 {
		n, err := j.invitations.DeleteCreatedBefore(ctx, now.Add(-j.cfg.InvitationTTL))
		j.report("invitations", n, err)
	}
	if j.cfg.ActivationTTL > 0 {
		n, err := j.users.DeletePendingBefore(ctx, now.Add(-j.cfg.ActivationTTL))
		j.report("users", n, err)
	}
}

func (j *Job) report(table string, n int64, err error) {
	if err != nil {
		j.log.Warn("retention: delete failed", zap.String("table", table), zap.Error(err))
		return
	}
	if n > 0 {
		metrics.RetentionDeletedTotal.WithLabelValues(table).Add(float64(n))
		j.log.Info("retention: rows removed", zap.String("table", table), zap.Int64("count", n))
	}
}
