package eventuate

import "context"

// Record is a single fetched broker record: a channel, a partition number,
// an offset, and an opaque JSON value to be decoded into a Message.
type Record struct {
	Channel   string
	Partition int
	Offset    int64
	Value     []byte
}

// Broker is the transport abstraction a subscription consumes from. It
// models a Kafka-style partitioned log: one consumer group per subscriber,
// group coordination assigns partitions to exactly one member.
type Broker interface {
	// Subscribe opens a BrokerConsumer bound to groupID, reading from
	// channels. groupID is the subscription's subscriberId.
	Subscribe(ctx context.Context, groupID string, channels []string) (BrokerConsumer, error)
}

// BrokerConsumer is one broker session bound to a consumer group.
type BrokerConsumer interface {
	// Poll blocks up to the broker's configured poll interval and returns
	// whatever records are available, possibly none.
	Poll(ctx context.Context) ([]Record, error)

	// CommitOffset advances the committed offset for (channel, partition)
	// to offset+1 (i.e. offset is the last safely processed record).
	CommitOffset(ctx context.Context, channel string, partition int, offset int64) error

	// Close releases the broker session. Idempotent.
	Close() error
}
