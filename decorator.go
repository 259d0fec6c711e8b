package eventuate

import (
	"context"
)

// messageConsumerFunc is the continuation type threaded through the
// decorator chain: it consumes one message and returns an error.
type messageConsumerFunc func(ctx context.Context, msg *Message) error

// decorator wraps a continuation with one pipeline stage. The chain is
// built once per subscription as a fold over a shared decorator slice
// and reused for every message, rather than allocating a bespoke closure
// chain per message.
type decorator func(next messageConsumerFunc) messageConsumerFunc

// buildChain folds decorators over terminal, outermost first: starting
// from a terminal consumer, each decorator becomes the outer layer,
// receiving the next one as a continuation.
func buildChain(terminal messageConsumerFunc, decorators ...decorator) messageConsumerFunc {
	chain := terminal
	for i := len(decorators) - 1; i >= 0; i-- {
		chain = decorators[i](chain)
	}
	return chain
}

// preReceiveDecorator runs the preReceive interceptor hook before the rest
// of the chain.
func preReceiveDecorator(pipeline *interceptorPipeline) decorator {
	return func(next messageConsumerFunc) messageConsumerFunc {
		return func(ctx context.Context, msg *Message) error {
			if err := pipeline.preReceive(ctx, msg); err != nil {
				return err
			}
			return next(ctx, msg)
		}
	}
}

// postReceiveDecorator runs next, then the postReceive hook with next's
// result. Subscribe places it innermost, directly around the terminal
// consumer, so the hook fires only for messages that reach the end of the
// chain: not for duplicates, and not when a pre-hook or handler fails.
func postReceiveDecorator(pipeline *interceptorPipeline) decorator {
	return func(next messageConsumerFunc) messageConsumerFunc {
		return func(ctx context.Context, msg *Message) error {
			err := next(ctx, msg)
			pipeline.postReceive(ctx, msg, err)
			return err
		}
	}
}

// preHandleDecorator runs the preHandle interceptor hook immediately
// before type dispatch.
func preHandleDecorator(pipeline *interceptorPipeline) decorator {
	return func(next messageConsumerFunc) messageConsumerFunc {
		return func(ctx context.Context, msg *Message) error {
			if err := pipeline.preHandle(ctx, msg); err != nil {
				return err
			}
			return next(ctx, msg)
		}
	}
}

// postHandleDecorator runs the postHandle interceptor hook immediately
// after type dispatch.
func postHandleDecorator(pipeline *interceptorPipeline) decorator {
	return func(next messageConsumerFunc) messageConsumerFunc {
		return func(ctx context.Context, msg *Message) error {
			err := next(ctx, msg)
			pipeline.postHandle(ctx, msg, err)
			return err
		}
	}
}

// duplicateDetectionDecorator opens a unit-of-work scoped to this message,
// attempts to claim (message.id,
// subscriberId) in the inbox, and only calls next on success. A
// primary-key conflict is treated as a duplicate and short-circuits
// without invoking next. If next returns an error the unit of work rolls
// back, so the inbox claim is undone and the message can be redelivered.
func duplicateDetectionDecorator(inbox InboxStore, subscriberID string, uow UnitOfWork) decorator {
	return func(next messageConsumerFunc) messageConsumerFunc {
		return func(ctx context.Context, msg *Message) error {
			var handleErr error
			txErr := uow.RunInTransaction(ctx, func(txCtx context.Context) error {
				inserted, err := inbox.TryInsert(txCtx, msg.ID, subscriberID)
				if err != nil {
					return NewErrorWithCause(ErrCodeDatabase, "failed to claim inbox row", err)
				}
				if !inserted {
					// Duplicate: commit the (no-op) transaction, skip next.
					return nil
				}
				handleErr = next(txCtx, msg)
				return handleErr
			})
			if txErr != nil {
				return txErr
			}
			return handleErr
		}
	}
}

// typeDispatchDecorator reads EVENT_TYPE, looks up handlers registered for
// (aggregateType=DESTINATION, eventType), and invokes every match. No
// handler found is not an error.
func typeDispatchDecorator(registry *HandlerRegistry, services ServiceProvider) decorator {
	return func(next messageConsumerFunc) messageConsumerFunc {
		return func(ctx context.Context, msg *Message) error {
			aggregateType := msg.Destination()
			eventType := msg.EventType()

			handlers := registry.Lookup(aggregateType, eventType)
			if len(handlers) == 0 {
				return next(ctx, msg)
			}

			envelope := DomainEventEnvelope{
				Message:       msg,
				AggregateType: aggregateType,
				AggregateID:   msg.Headers[HeaderEventAggregateID],
				EventType:     eventType,
				Payload:       msg.Payload,
			}

			for _, handler := range handlers {
				if err := handler.Handle(ctx, envelope, services); err != nil {
					return NewErrorWithCause(ErrCodeHandler, "handler returned an error", err)
				}
			}
			return next(ctx, msg)
		}
	}
}

// UnitOfWork scopes a function to a single database transaction, used by
// duplicateDetectionDecorator to make the inbox claim and the handler
// invocation commit or roll back together.
type UnitOfWork interface {
	RunInTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
