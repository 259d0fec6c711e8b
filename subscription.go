package eventuate

import (
	"context"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Subscription is a live binding of a subscriberId to a channel set and a
// handler registry. At most one active broker consumer backs a
// Subscription at a time.
type Subscription struct {
	SubscriberID string
	Channels     []string

	consumer *subscriptionConsumer
}

// Validate checks that a subscription has a non-empty subscriberId and a
// non-empty channel set.
func (s Subscription) Validate() error {
	return validation.Errors{
		"subscriberId": validation.Validate(s.SubscriberID, validation.Required),
		"channels":     validation.Validate(s.Channels, validation.Required, validation.Length(1, 0)),
	}.Filter()
}

// Unsubscribe stops this subscription's broker consumer and every
// swimlane it owns.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if s.consumer == nil {
		return nil
	}
	return s.consumer.Stop(ctx)
}

// SubscriptionManager owns the set of active subscriptions for a process.
// It is the entry point for registering and tearing down subscriptions.
type SubscriptionManager struct {
	broker   Broker
	inbox    InboxStore
	uow      UnitOfWork
	registry *HandlerRegistry
	services ServiceProvider
	logger   Logger
	shutdown ShutdownPolicy
	notifier NotificationService

	interceptors []Interceptor

	mu            sync.Mutex
	subscriptions map[string]*Subscription
}

// SubscriptionManagerOption configures a SubscriptionManager.
type SubscriptionManagerOption func(*SubscriptionManager) error

// NewSubscriptionManager builds a SubscriptionManager. broker, inbox, uow,
// and registry are required.
func NewSubscriptionManager(broker Broker, inbox InboxStore, uow UnitOfWork, registry *HandlerRegistry, opts ...SubscriptionManagerOption) (*SubscriptionManager, error) {
	if broker == nil {
		return nil, NewError(ErrCodeConfiguration, "broker is required")
	}
	if inbox == nil {
		return nil, NewError(ErrCodeConfiguration, "inbox store is required")
	}
	if uow == nil {
		return nil, NewError(ErrCodeConfiguration, "unit of work is required")
	}
	if registry == nil {
		return nil, NewError(ErrCodeConfiguration, "handler registry is required")
	}

	m := &SubscriptionManager{
		broker:        broker,
		inbox:         inbox,
		uow:           uow,
		registry:      registry,
		services:      mapServiceProvider{},
		logger:        &NoopLogger{},
		shutdown:      ShutdownWaitForCompletion,
		notifier:      NoOpNotificationService{},
		subscriptions: make(map[string]*Subscription),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WithSubscriptionManagerLogger overrides the default no-op logger.
func WithSubscriptionManagerLogger(logger Logger) SubscriptionManagerOption {
	return func(m *SubscriptionManager) error {
		if logger == nil {
			return NewError(ErrCodeConfiguration, "logger must not be nil")
		}
		m.logger = logger
		return nil
	}
}

// WithSubscriptionManagerInterceptors registers interceptors run by every
// subscription's decorator chain.
func WithSubscriptionManagerInterceptors(interceptors ...Interceptor) SubscriptionManagerOption {
	return func(m *SubscriptionManager) error {
		m.interceptors = append(m.interceptors, interceptors...)
		return nil
	}
}

// WithSubscriptionManagerServices overrides the default empty
// ServiceProvider handed to handlers.
func WithSubscriptionManagerServices(services ServiceProvider) SubscriptionManagerOption {
	return func(m *SubscriptionManager) error {
		if services == nil {
			return NewError(ErrCodeConfiguration, "service provider must not be nil")
		}
		m.services = services
		return nil
	}
}

// WithSubscriptionManagerShutdownPolicy overrides the default
// wait-for-completion shutdown policy.
func WithSubscriptionManagerShutdownPolicy(policy ShutdownPolicy) SubscriptionManagerOption {
	return func(m *SubscriptionManager) error {
		m.shutdown = policy
		return nil
	}
}

// WithSubscriptionManagerNotifications overrides the default no-op
// NotificationService.
func WithSubscriptionManagerNotifications(notifier NotificationService) SubscriptionManagerOption {
	return func(m *SubscriptionManager) error {
		if notifier == nil {
			return NewError(ErrCodeConfiguration, "notification service must not be nil")
		}
		m.notifier = notifier
		return nil
	}
}

// Subscribe builds the fixed-order decorator chain, starts a
// subscriptionConsumer, and registers the resulting Subscription under
// subscriberId.
func (m *SubscriptionManager) Subscribe(ctx context.Context, subscriberID string, channels []string) (*Subscription, error) {
	sub := Subscription{SubscriberID: subscriberID, Channels: channels}
	if err := sub.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid subscription", err)
	}

	m.mu.Lock()
	if _, exists := m.subscriptions[subscriberID]; exists {
		m.mu.Unlock()
		return nil, NewError(ErrCodeConfiguration, "subscriberId already has an active subscription")
	}
	m.mu.Unlock()

	pipeline := newInterceptorPipeline(m.logger, m.interceptors...)
	chain := buildChain(
		m.terminalHandler(),
		preReceiveDecorator(pipeline),
		duplicateDetectionDecorator(m.inbox, subscriberID, m.uow),
		preHandleDecorator(pipeline),
		typeDispatchDecorator(m.registry, m.services),
		postHandleDecorator(pipeline),
		postReceiveDecorator(pipeline),
	)

	consumer := newSubscriptionConsumer(subscriberID, channels, m.broker, chain, m.logger, m.shutdown, m.notifier)
	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}

	result := &Subscription{SubscriberID: subscriberID, Channels: channels, consumer: consumer}
	m.mu.Lock()
	m.subscriptions[subscriberID] = result
	m.mu.Unlock()

	if err := m.notifier.NotifySubscriptionCreated(ctx, *result); err != nil {
		m.logger.Warnf("notifier rejected subscription creation for %s: %v", subscriberID, err)
	}
	return result, nil
}

// terminalHandler is the end of the decorator chain: by the time it runs,
// every decorator has already executed, so it is a no-op.
func (m *SubscriptionManager) terminalHandler() messageConsumerFunc {
	return func(ctx context.Context, msg *Message) error { return nil }
}

// Unsubscribe stops and removes the subscription registered under
// subscriberID. Unknown ids are a no-op.
func (m *SubscriptionManager) Unsubscribe(ctx context.Context, subscriberID string) error {
	m.mu.Lock()
	sub, ok := m.subscriptions[subscriberID]
	if ok {
		delete(m.subscriptions, subscriberID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	err := sub.Unsubscribe(ctx)
	m.notifier.NotifySubscriptionClosed(ctx, *sub)
	return err
}

// Close stops the broker fetch loop and every swimlane for every active
// subscription.
func (m *SubscriptionManager) Close(ctx context.Context) error {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subscriptions))
	for id, sub := range m.subscriptions {
		subs = append(subs, sub)
		delete(m.subscriptions, id)
	}
	m.mu.Unlock()

	var firstErr error
	for _, sub := range subs {
		if err := sub.Unsubscribe(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		m.notifier.NotifySubscriptionClosed(ctx, *sub)
	}
	return firstErr
}
