// Package eventuate provides a transactional outbox and partitioned-broker
// messaging framework for Go services: producers record outbound events in
// the same database transaction that mutates business state, a
// change-data-capture relay drains the outbox onto a Kafka-style
// partitioned broker, and subscribers consume, deduplicate via a
// database-backed inbox, and dispatch to typed handlers.
//
// # Features
//
//   - Transactional outbox: Send writes inside the caller's ambient
//     transaction, so a message is never lost without the business write
//     also rolling back.
//   - Database-backed inbox deduplication: at-least-once broker delivery
//     becomes at-most-once handling via a primary-key gate.
//   - Per-partition swimlane dispatch: FIFO order within a partition,
//     parallelism across partitions.
//   - Composable decorator chain: duplicate-detection, transaction
//     scoping, interceptor hooks, and typed-event dispatch, in that order.
//   - Options Pattern for the Producer, DomainEventPublisher and
//     SubscriptionManager constructors.
//   - Multi-database support: MySQL, PostgreSQL, SQLite via Relica
//     adapters.
//   - Embedded migrations for the outbox/inbox schema.
//
// # Quick Start
//
// Apply the embedded migrations, then wire a Producer against a relica
// outbox adapter:
//
//	db, _ := sql.Open("mysql", dsn)
//	goose.SetBaseFS(eventuate.MigrationFiles)
//	if err := goose.Up(db, "migrations"); err != nil {
//	    log.Fatal(err)
//	}
//
//	store := relica.NewOutboxStore(db, "mysql")
//	producer, _ := eventuate.NewProducer(store, eventuate.WithProducerLogger(logger))
//
//	events, _ := eventuate.NewDomainEventPublisher(producer)
//	err := events.Publish(ctx, "Order", orderID, OrderPlaced{...})
//
// On the receiving side:
//
//	registry := eventuate.NewHandlerRegistry()
//	registry.Register("Order", "OrderPlaced", handler)
//
//	manager, _ := eventuate.NewSubscriptionManager(broker, inboxStore, uow, registry)
//	sub, _ := manager.Subscribe(ctx, "billing-service", []string{"Order"})
//	defer manager.Close(ctx)
//
// # Architecture
//
// Send path: caller -> DomainEventPublisher -> Producer -> outbox table
// (same DB transaction as the business write) -> [external CDC relay] ->
// broker topic.
//
// Receive path: broker topic -> broker consumer -> swimlane dispatcher
// (keyed by partition) -> decorator chain -> handler.
//
//	┌──────────────────────────────┐
//	│  DomainEventPublisher         │
//	└─────────────┬──────────────────┘
//	              │
//	┌─────────────▼──────────────────┐
//	│  Producer (Send)               │
//	└─────────────┬──────────────────┘
//	              │
//	┌─────────────▼──────────────────┐
//	│  OutboxStore (message table)   │
//	└─────────────┬──────────────────┘
//	              │  cmd/eventuate-relay
//	┌─────────────▼──────────────────┐
//	│  Broker (partitioned topic)    │
//	└─────────────┬──────────────────┘
//	              │
//	┌─────────────▼──────────────────┐
//	│  subscriptionConsumer          │
//	└─────────────┬──────────────────┘
//	              │
//	┌─────────────▼──────────────────┐
//	│  swimlaneDispatcher (per part.)│
//	└─────────────┬──────────────────┘
//	              │
//	┌─────────────▼──────────────────┐
//	│  decorator chain -> EventHandler│
//	└─────────────────────────────────┘
//
// # Database Schema
//
// Two tables, created via embedded migrations:
//
//	message             - outbox rows awaiting relay
//	received_messages   - inbox rows gating duplicate handling
//
// Supports MySQL, PostgreSQL, and SQLite via Relica adapters.
//
// # Examples
//
// The repository ships no examples/ directory. The in-process broker in
// internal/broker lets the send/relay/receive path run in one process,
// as cmd/eventuate-relay does.
package eventuate
