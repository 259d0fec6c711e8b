package eventuate

import (
	"context"
	"time"
)

// OutboxRecord is the row shape of the message table. It carries an
// envelope plus the bookkeeping columns the relay uses to decide what
// still needs publishing.
type OutboxRecord struct {
	ID            string
	Destination   string
	PartitionKey  string
	Payload       string
	Headers       Headers
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// OutboxStore persists outbox rows inside the caller's transaction and lets
// the relay discover and retire unpublished ones. Implementations must
// participate in whatever transaction ctx carries, so the outbox insert
// commits atomically with the caller's own state change.
type OutboxStore interface {
	// Insert writes a new outbox row. Must be called within the business
	// transaction that also persists the aggregate state change.
	Insert(ctx context.Context, rec OutboxRecord) error

	// ListUnpublished returns up to limit rows not yet marked published,
	// ordered by CreatedAt ascending (oldest first) to preserve the
	// producer's emission order once relayed.
	ListUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)

	// MarkPublished marks the given ids as published. Already-published
	// ids are left untouched.
	MarkPublished(ctx context.Context, ids []string) error
}

// InboxRecord is the row shape of the received_messages table, used by the
// duplicate-detection decorator on the consumer side.
type InboxRecord struct {
	MessageID      string
	SubscriberID   string
	ReceivedAt     time.Time
}

// InboxStore records which messages a given subscriber has already
// processed, enforcing at-least-once delivery with at-most-once processing.
type InboxStore interface {
	// TryInsert inserts (messageID, subscriberID) and reports whether the
	// insert succeeded. A false return with a nil error means the pair
	// already existed — the caller should treat this as a duplicate and
	// skip handling, not as a failure.
	TryInsert(ctx context.Context, messageID, subscriberID string) (inserted bool, err error)
}
