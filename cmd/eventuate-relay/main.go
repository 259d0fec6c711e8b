// Command eventuate-relay drains unpublished outbox rows onto the broker.
// It is a change-data-capture relay deployed separately from the core
// library: the core library never publishes to the broker itself.
package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregx/eventuate"
	"github.com/coregx/eventuate/adapters/relica"
	"github.com/coregx/eventuate/internal/broker"
	"github.com/coregx/eventuate/retry"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := eventuate.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	db, err := sql.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	store := relica.NewOutboxStore(db, cfg.DatabaseDriver)

	// The in-process broker is this module's stand-in transport; swap in
	// a real Kafka client's producer here for a production deployment.
	b := broker.New(0, 0)

	metrics, err := newRelayMetrics(nil)
	if err != nil {
		log.WithError(err).Fatal("failed to register relay metrics")
	}

	relayer := newRelayer(store, b, retry.DefaultStrategy(), log, cfg.RelayBatchSize, metrics)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.WithField("poll_interval", cfg.RelayPollInterval).Info("starting outbox relay")
	relayer.Run(ctx, cfg.RelayPollInterval)
	log.Info("relay stopped")
}

// relayer polls the outbox for unpublished rows and publishes them onto
// the broker, retrying transient publish failures with exponential
// backoff per the retry strategy. Modeled on a ticker-driven dispatch
// loop with batch-processing semantics.
type relayer struct {
	store     *relica.OutboxStore
	broker    *broker.Broker
	strategy  retry.Strategy
	logger    *logrus.Logger
	batchSize int
	metrics   relayMetrics
}

func newRelayer(store *relica.OutboxStore, b *broker.Broker, strategy retry.Strategy, logger *logrus.Logger, batchSize int, metrics relayMetrics) *relayer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &relayer{store: store, broker: b, strategy: strategy, logger: logger, batchSize: batchSize, metrics: metrics}
}

func (r *relayer) Run(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.relayOnce(ctx)
		}
	}
}

func (r *relayer) relayOnce(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r.metrics.dispatchLatency != nil {
			r.metrics.dispatchLatency.Record(ctx, time.Since(start).Seconds())
		}
	}()

	rows, err := r.store.ListUnpublished(ctx, r.batchSize)
	if err != nil {
		r.logger.WithError(err).Error("failed to list unpublished outbox rows")
		return
	}
	if len(rows) == 0 {
		return
	}

	published := make([]string, 0, len(rows))
	for _, row := range rows {
		value, err := eventuate.MarshalMessageForRelay(row)
		if err != nil {
			r.logger.WithError(err).WithField("id", row.ID).Error("failed to encode outbox row, skipping")
			continue
		}
		if err := r.publishWithRetry(ctx, row.Destination, row.PartitionKey, value); err != nil {
			r.logger.WithError(err).WithField("id", row.ID).Error("exhausted retries publishing outbox row")
			if r.metrics.failed != nil {
				r.metrics.failed.Add(ctx, 1)
			}
			continue
		}
		if r.metrics.published != nil {
			r.metrics.published.Add(ctx, 1)
		}
		published = append(published, row.ID)
	}

	if len(published) == 0 {
		return
	}
	if err := r.store.MarkPublished(ctx, published); err != nil {
		r.logger.WithError(err).Error("failed to mark outbox rows published")
	}
}

func (r *relayer) publishWithRetry(ctx context.Context, destination, partitionKey string, value []byte) error {
	var lastErr error
	for attempt := 0; r.strategy.IsRetryable(attempt) && !r.strategy.IsExhausted(attempt); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.strategy.CalculateRetryDelay(attempt)):
			}
		}
		if err := r.publish(destination, partitionKey, value); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (r *relayer) publish(destination, partitionKey string, value []byte) error {
	r.broker.Publish(destination, partitionKey, value)
	return nil
}
