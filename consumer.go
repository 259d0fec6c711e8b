package eventuate

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/eventuate/retry"
)

// consumerState is the per-consumer state machine:
// Created -> Started -> Running -> Stopping -> Stopped.
type consumerState int

const (
	consumerCreated consumerState = iota
	consumerStarted
	consumerRunning
	consumerStopping
	consumerStopped
)

// ShutdownPolicy selects how a subscriptionConsumer's Stop behaves toward
// an in-flight handler.
type ShutdownPolicy int

const (
	// ShutdownWaitForCompletion lets the currently executing handler
	// finish before the worker exits; its offset is committed.
	ShutdownWaitForCompletion ShutdownPolicy = iota
	// ShutdownCancelCurrent signals cancellation to the handler via the
	// context; a cooperating handler aborts and its offset is not
	// committed.
	ShutdownCancelCurrent
)

// subscriptionConsumer is one broker-session fetch loop bound to a single
// subscription. It owns the swimlane set it feeds and tracks, per
// partition, the highest offset safe to commit.
type subscriptionConsumer struct {
	subscriberID string
	channels     []string
	broker       Broker
	chain        messageConsumerFunc
	logger       Logger
	shutdown     ShutdownPolicy
	notifier     NotificationService

	stateMu sync.Mutex
	state   consumerState

	cancel context.CancelFunc
	done   chan struct{}

	lanes *swimlaneSet

	offsetMu     sync.Mutex
	safeOffsets  map[string]map[int]int64
	brokerConn   BrokerConsumer
}

func newSubscriptionConsumer(subscriberID string, channels []string, broker Broker, chain messageConsumerFunc, logger Logger, shutdown ShutdownPolicy, notifier NotificationService) *subscriptionConsumer {
	return &subscriptionConsumer{
		subscriberID: subscriberID,
		channels:     channels,
		broker:       broker,
		chain:        chain,
		logger:       logger,
		shutdown:     shutdown,
		notifier:     notifier,
		state:        consumerCreated,
		safeOffsets:  make(map[string]map[int]int64),
	}
}

// Start transitions Created -> Started -> Running and launches the fetch
// loop. Calling Start more than once returns an error.
func (c *subscriptionConsumer) Start(parent context.Context) error {
	c.stateMu.Lock()
	if c.state != consumerCreated {
		c.stateMu.Unlock()
		return NewError(ErrCodeConfiguration, "consumer already started")
	}
	c.state = consumerStarted
	c.stateMu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.done = make(chan struct{})
	// Swimlanes get their own cancellation root, independent of the fetch
	// loop's context: Stop decides per the shutdown policy whether an
	// in-flight handler should observe cancellation, rather than having
	// it forced on them the instant the fetch loop is torn down.
	c.lanes = newSwimlaneSet(context.Background(), c.logger)

	conn, err := c.broker.Subscribe(ctx, c.subscriberID, c.channels)
	if err != nil {
		cancel()
		c.setState(consumerCreated)
		return NewErrorWithCause(ErrCodeBrokerUnavailable, "failed to subscribe to broker", err)
	}
	c.brokerConn = conn

	c.setState(consumerRunning)
	go c.fetchLoop(ctx)
	return nil
}

func (c *subscriptionConsumer) setState(s consumerState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

func (c *subscriptionConsumer) fetchLoop(ctx context.Context) {
	defer close(c.done)
	backoff := retry.Strategy{BaseDelay: 100 * time.Millisecond, MaxDelay: 30 * time.Second, ExponentialBase: 2}
	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}
		records, err := c.brokerConn.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Errorf("broker poll failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff.CalculateRetryDelay(failures)):
			}
			failures++
			continue
		}
		failures = 0
		for _, rec := range records {
			c.dispatch(ctx, rec)
		}
	}
}

func (c *subscriptionConsumer) dispatch(ctx context.Context, rec Record) {
	consume := c.chain
	msg, err := decodeRecord(rec)
	if err != nil {
		c.logger.Errorf("poison pill on %s[%d]@%d: %v", rec.Channel, rec.Partition, rec.Offset, err)
		// The record still passes through its swimlane, with a no-op in
		// place of the decorator chain, so its offset is acknowledged in
		// partition order without any handler being invoked.
		msg = &Message{}
		consume = func(context.Context, *Message) error { return nil }
	}

	lane := c.lanes.lane(rec.Partition)
	task := swimlaneTask{
		message: msg,
		consume: consume,
		done: func(handleErr error) {
			if handleErr != nil {
				c.logger.Errorf("handler error on %s[%d]@%d: %v", rec.Channel, rec.Partition, rec.Offset, handleErr)
				if err := c.notifier.NotifyHandlerFailure(ctx, msg, handleErr); err != nil {
					c.logger.Warnf("notifier failed while reporting handler failure: %v", err)
				}
				return
			}
			c.advanceOffset(ctx, rec)
		},
	}
	if !lane.Dispatch(task) {
		c.logger.Warnf("dropped message on stopped swimlane %s[%d]", rec.Channel, rec.Partition)
	}
}

// advanceOffset records offset as safe to commit and commits it. The
// committed offset must be the max offset whose completion callback, and
// every lower offset's callback on that partition, have fired successfully;
// within one swimlane's single-writer FIFO processing, the most recently
// succeeded offset already satisfies that.
func (c *subscriptionConsumer) advanceOffset(ctx context.Context, rec Record) {
	c.offsetMu.Lock()
	byPartition, ok := c.safeOffsets[rec.Channel]
	if !ok {
		byPartition = make(map[int]int64)
		c.safeOffsets[rec.Channel] = byPartition
	}
	byPartition[rec.Partition] = rec.Offset
	c.offsetMu.Unlock()

	if err := c.brokerConn.CommitOffset(ctx, rec.Channel, rec.Partition, rec.Offset); err != nil {
		c.logger.Errorf("failed to commit offset %s[%d]@%d: %v", rec.Channel, rec.Partition, rec.Offset, err)
	}
}

// Stop cancels the fetch loop, signals all swimlanes to stop, waits per
// the shutdown policy, then closes the broker session.
func (c *subscriptionConsumer) Stop(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state == consumerStopped || c.state == consumerCreated {
		c.stateMu.Unlock()
		return nil
	}
	c.state = consumerStopping
	c.stateMu.Unlock()

	c.cancel()
	<-c.done

	c.lanes.StopAll(c.shutdown == ShutdownCancelCurrent)

	err := c.brokerConn.Close()
	c.setState(consumerStopped)
	if err != nil {
		return NewErrorWithCause(ErrCodeBrokerUnavailable, "failed to close broker session", err)
	}
	return nil
}

func decodeRecord(rec Record) (*Message, error) {
	msg, err := unmarshalMessage(rec.Value)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodePoisonPill, "failed to decode record value", err)
	}
	return msg, nil
}
