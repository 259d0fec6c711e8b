// Package broker provides an in-process, channel-backed implementation of
// eventuate.Broker/BrokerConsumer. No concrete Kafka client library is
// wired by this module (see DESIGN.md) — this package stands in for a
// real partitioned log broker, giving the rest of the framework something
// to run against in single-process deployments such as cmd/eventuate-relay.
package broker

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/coregx/eventuate"
)

const defaultPartitions = 8

// record pairs a fetched value with its assigned offset.
type record struct {
	partition int
	offset    int64
	value     []byte
}

// topic is one channel's partitioned log: a fixed number of append-only
// in-memory partitions, each with its own next-offset counter and a set
// of per-consumer-group committed offsets.
type topic struct {
	mu         sync.Mutex
	partitions [][]record
	nextOffset []int64

	groupOffsets map[string]map[int]int64 // groupID -> partition -> next offset to read
}

func newTopic(partitions int) *topic {
	return &topic{
		partitions:   make([][]record, partitions),
		nextOffset:   make([]int64, partitions),
		groupOffsets: make(map[string]map[int]int64),
	}
}

func (t *topic) partitionFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(t.partitions)
}

func (t *topic) publish(partitionKey string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.partitionFor(partitionKey)
	offset := t.nextOffset[p]
	t.partitions[p] = append(t.partitions[p], record{partition: p, offset: offset, value: value})
	t.nextOffset[p] = offset + 1
}

func (t *topic) poll(groupID string) []record {
	t.mu.Lock()
	defer t.mu.Unlock()

	offsets, ok := t.groupOffsets[groupID]
	if !ok {
		offsets = make(map[int]int64)
		t.groupOffsets[groupID] = offsets
	}

	var out []record
	for p, log := range t.partitions {
		next := offsets[p]
		if int(next) >= len(log) {
			continue
		}
		out = append(out, log[next:]...)
	}
	return out
}

func (t *topic) commit(groupID string, partition int, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	offsets, ok := t.groupOffsets[groupID]
	if !ok {
		offsets = make(map[int]int64)
		t.groupOffsets[groupID] = offsets
	}
	if next := offset + 1; next > offsets[partition] {
		offsets[partition] = next
	}
}

// Broker is an in-process implementation of eventuate.Broker. Every
// Producer.Send→relay→BrokerConsumer.Poll hop in a single process runs
// through the same topic map, making it suitable for single-process round
// trips and for integration tests that don't want a real broker.
type Broker struct {
	mu         sync.Mutex
	topics     map[string]*topic
	partitions int

	pollInterval time.Duration
}

// New creates an in-process Broker with the given number of partitions
// per topic (defaulted to 8 if <= 0) and poll interval (defaulted to
// 100ms if <= 0).
func New(partitions int, pollInterval time.Duration) *Broker {
	if partitions <= 0 {
		partitions = defaultPartitions
	}
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &Broker{topics: make(map[string]*topic), partitions: partitions, pollInterval: pollInterval}
}

func (b *Broker) topicFor(name string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[name]
	if !ok {
		t = newTopic(b.partitions)
		b.topics[name] = t
	}
	return t
}

// Publish appends value to channel's log, routed to a partition by
// hashing partitionKey (empty key always lands on partition 0). This is
// the method the CDC relay calls to move an outbox row onto the broker.
func (b *Broker) Publish(channel, partitionKey string, value []byte) {
	b.topicFor(channel).publish(partitionKey, value)
}

// Subscribe implements eventuate.Broker.Subscribe.
func (b *Broker) Subscribe(ctx context.Context, groupID string, channels []string) (eventuate.BrokerConsumer, error) {
	topics := make(map[string]*topic, len(channels))
	for _, ch := range channels {
		topics[ch] = b.topicFor(ch)
	}
	return &consumer{groupID: groupID, topics: topics, pollInterval: b.pollInterval}, nil
}

// consumer implements eventuate.BrokerConsumer over a fixed set of topics.
type consumer struct {
	groupID      string
	topics       map[string]*topic
	pollInterval time.Duration
	closed       bool
}

func (c *consumer) Poll(ctx context.Context) ([]eventuate.Record, error) {
	for {
		var out []eventuate.Record
		for name, t := range c.topics {
			for _, rec := range t.poll(c.groupID) {
				out = append(out, eventuate.Record{Channel: name, Partition: rec.partition, Offset: rec.offset, Value: rec.value})
			}
		}
		if len(out) > 0 {
			return out, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *consumer) CommitOffset(ctx context.Context, channel string, partition int, offset int64) error {
	t, ok := c.topics[channel]
	if !ok {
		return eventuate.NewError(eventuate.ErrCodeConfiguration, "unknown channel: "+channel)
	}
	t.commit(c.groupID, partition, offset)
	return nil
}

func (c *consumer) Close() error {
	c.closed = true
	return nil
}
