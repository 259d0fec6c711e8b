package eventuate

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Producer turns an outbound Message into an outbox row written inside
// the caller's ambient transaction. Construct one with NewProducer and
// its functional options.
type Producer struct {
	store        OutboxStore
	ids          IDGenerator
	interceptors []Interceptor
	pipeline     *interceptorPipeline
	logger       Logger
	tracer       trace.Tracer
}

// ProducerOption configures a Producer at construction time.
type ProducerOption func(*Producer) error

// NewProducer builds a Producer. store is required; all other dependencies
// fall back to sane defaults (UUIDv7 ids, a no-op logger, no interceptors,
// the global noop tracer).
func NewProducer(store OutboxStore, opts ...ProducerOption) (*Producer, error) {
	if store == nil {
		return nil, NewError(ErrCodeConfiguration, "outbox store is required")
	}
	p := &Producer{
		store:  store,
		ids:    UUIDv7Generator{},
		logger: &NoopLogger{},
		tracer: tracer("producer"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.pipeline = newInterceptorPipeline(p.logger, p.interceptors...)
	return p, nil
}

// WithProducerIDGenerator overrides the default UUIDv7 id generator.
func WithProducerIDGenerator(ids IDGenerator) ProducerOption {
	return func(p *Producer) error {
		if ids == nil {
			return NewError(ErrCodeConfiguration, "id generator must not be nil")
		}
		p.ids = ids
		return nil
	}
}

// WithProducerLogger overrides the default no-op logger.
func WithProducerLogger(logger Logger) ProducerOption {
	return func(p *Producer) error {
		if logger == nil {
			return NewError(ErrCodeConfiguration, "logger must not be nil")
		}
		p.logger = logger
		return nil
	}
}

// WithProducerInterceptors registers interceptors, invoked pre-hooks in the
// order given and post-hooks in reverse.
func WithProducerInterceptors(interceptors ...Interceptor) ProducerOption {
	return func(p *Producer) error {
		p.interceptors = append(p.interceptors, interceptors...)
		return nil
	}
}

// WithProducerTracer overrides the default noop tracer.
func WithProducerTracer(t trace.Tracer) ProducerOption {
	return func(p *Producer) error {
		if t == nil {
			return NewError(ErrCodeConfiguration, "tracer must not be nil")
		}
		p.tracer = t
		return nil
	}
}

// Send allocates an id, stamps reserved headers on a copy of the envelope,
// runs the preSend interceptor hook, persists the outbox row under ctx's
// ambient transaction, then runs the postSend hook. ctx must carry
// whatever transaction the OutboxStore expects to participate in: Send
// never opens or commits one itself.
func (p *Producer) Send(ctx context.Context, destination string, message Message) error {
	ctx, span := p.tracer.Start(ctx, "eventuate.producer.send")
	defer span.End()

	if destination == "" {
		return NewError(ErrCodeValidation, "destination must not be empty")
	}
	if message.Payload == "" {
		return NewError(ErrCodeValidation, "message payload must not be empty")
	}

	id := p.ids.NewID()
	msg := message.
		WithHeader(HeaderID, id).
		WithHeader(HeaderDestination, destination).
		WithHeader(HeaderDate, nowISO8601())
	msg.ID = id

	if err := p.pipeline.preSend(ctx, &msg); err != nil {
		return err
	}

	err := p.store.Insert(ctx, OutboxRecord{
		ID:           msg.ID,
		Destination:  destination,
		PartitionKey: msg.PartitionKey(),
		Payload:      msg.Payload,
		Headers:      msg.Headers,
	})
	if err != nil {
		p.pipeline.postSend(ctx, &msg, err)
		return NewErrorWithCause(ErrCodeDatabase, "failed to insert outbox row", err)
	}

	p.pipeline.postSend(ctx, &msg, nil)
	return nil
}
