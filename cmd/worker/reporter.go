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
	"github.com/skrasekmichael/teamup/internal/logger"
	"github.com/skrasekmichael/teamup/internal/metrics"
	"github.com/skrasekmichael/teamup/internal/notify"
	"github.com/skrasekmichael/teamup/internal/repository"
)

var reporterCmd = &cobra.Command{
	Use:   "reporter",
	Short: "Consume notification events into ClickHouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.LogLevel)
		log := logger.Log

		metrics.MustRegister(prometheus.DefaultRegisterer)

		chDB, err := db.NewClickHouseConnection(db.ClickHouseOpts{
			DSN:             cfg.ClickHouse.DSN,
			MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
			MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
			PingTimeout:     cfg.ClickHouse.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() { _ = chDB.Close() }()

		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "teamup-reporter"
		}
		consumer := notify.NewConsumer(notify.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        groupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer consumer.Close()

		reporter := notify.NewReporter(consumer, repository.NewReportsRepository(chDB), log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Sugar().Infow("reporter started", "topic", cfg.Kafka.Topic, "group", groupID)

		return reporter.Run(ctx)
	},
}
