package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/skrasekmichael/teamup/internal/config"
	"github.com/skrasekmichael/teamup/internal/db"
	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/logger"
	"github.com/skrasekmichael/teamup/internal/metrics"
	"github.com/skrasekmichael/teamup/internal/notify"
	"github.com/skrasekmichael/teamup/internal/outbox"
	"github.com/skrasekmichael/teamup/internal/repository"
	"github.com/skrasekmichael/teamup/internal/retention"
	"github.com/skrasekmichael/teamup/internal/scheduler"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run outbox relay and retention jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.LogLevel)
		log := logger.Log

		metrics.MustRegister(prometheus.DefaultRegisterer)

		dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer dbx.Close()

		store := repository.NewOutboxStore(dbx)
		invitationsRepo := repository.NewInvitationsRepository(dbx)
		usersRepo := repository.NewUsersRepository(dbx)

		producer := notify.NewProducer(notify.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close()

		relay := outbox.NewDispatcher(store, producer, integration.DefaultRegistry(), outbox.Config{
			BatchSize:        cfg.Outbox.BatchSize,
			BackoffBase:      cfg.Outbox.BackoffBase,
			BackoffMaxDoubls: cfg.Outbox.BackoffMaxDoubl,
		}, log)

		cleanup := retention.NewJob(store, invitationsRepo, usersRepo, retention.Config{
			OutboxWindow:  cfg.Retention.OutboxWindow,
			InvitationTTL: cfg.Retention.InvitationTTL,
			ActivationTTL: cfg.Retention.ActivationTTL,
		}, log)

		pollInterval := cfg.Outbox.PollInterval
		if pollInterval <= 0 {
			pollInterval = 5 * time.Second
		}
		retentionInterval := cfg.Retention.Interval
		if retentionInterval <= 0 {
			retentionInterval = time.Hour
		}

		sched := scheduler.New(log)
		sched.Add("outbox-relay", pollInterval, relay.RunBatch, scheduler.NonConcurrent())
		sched.Add("retention", retentionInterval, cleanup.Run, scheduler.NonConcurrent())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Sugar().Infow("relay worker started",
			"poll_interval", pollInterval, "batch_size", cfg.Outbox.BatchSize)

		sched.Run(ctx)
		return nil
	},
}
