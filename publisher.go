package eventuate

import (
	"context"
	"encoding/json"
	"reflect"
)

// DomainEvent is anything that can be serialized to JSON and published
// through a DomainEventPublisher. EventAlias, when non-empty, overrides
// the Go type name as the EVENT_TYPE header value — useful for keeping
// wire event names stable across refactors.
type DomainEvent interface {
	EventAlias() string
}

// DomainEventPublisher wraps a Producer to publish typed domain events
// addressed by aggregate type and id, routed to a single broker partition
// per aggregate.
type DomainEventPublisher struct {
	producer *Producer
	logger   Logger
}

// DomainEventPublisherOption configures a DomainEventPublisher.
type DomainEventPublisherOption func(*DomainEventPublisher) error

// NewDomainEventPublisher builds a DomainEventPublisher over producer.
func NewDomainEventPublisher(producer *Producer, opts ...DomainEventPublisherOption) (*DomainEventPublisher, error) {
	if producer == nil {
		return nil, NewError(ErrCodeConfiguration, "producer is required")
	}
	p := &DomainEventPublisher{producer: producer, logger: &NoopLogger{}}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// WithDomainEventPublisherLogger overrides the default no-op logger.
func WithDomainEventPublisherLogger(logger Logger) DomainEventPublisherOption {
	return func(p *DomainEventPublisher) error {
		if logger == nil {
			return NewError(ErrCodeConfiguration, "logger must not be nil")
		}
		p.logger = logger
		return nil
	}
}

// Publish attaches EVENT_AGGREGATE_TYPE, EVENT_AGGREGATE_ID,
// PARTITION_ID=aggregateId and EVENT_TYPE to each event, serializes the
// event body to JSON, and sends the envelope with destination=aggregateType.
// All events for the same aggregateId land in the same broker partition via
// PARTITION_ID.
func (p *DomainEventPublisher) Publish(ctx context.Context, aggregateType, aggregateID string, events ...DomainEvent) error {
	if aggregateType == "" {
		return NewError(ErrCodeValidation, "aggregateType must not be empty")
	}
	if aggregateID == "" {
		return NewError(ErrCodeValidation, "aggregateID must not be empty")
	}
	for _, event := range events {
		if err := p.publishOne(ctx, aggregateType, aggregateID, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *DomainEventPublisher) publishOne(ctx context.Context, aggregateType, aggregateID string, event DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return NewErrorWithCause(ErrCodeSerialization, "failed to serialize domain event", err)
	}

	eventType := event.EventAlias()
	if eventType == "" {
		eventType = qualifiedTypeName(event)
	}

	msg := NewMessage(string(body), Headers{
		HeaderEventAggregateType: aggregateType,
		HeaderEventAggregateID:   aggregateID,
		HeaderPartitionID:        aggregateID,
		HeaderEventType:          eventType,
	})

	p.logger.Debugf("publishing domain event type=%s aggregateType=%s aggregateId=%s", eventType, aggregateType, aggregateID)
	return p.producer.Send(ctx, aggregateType, msg)
}

// qualifiedTypeName returns "pkgpath.TypeName" for event's concrete type,
// used as EVENT_TYPE when the event doesn't declare an alias.
func qualifiedTypeName(event DomainEvent) string {
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
