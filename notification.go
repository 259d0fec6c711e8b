package eventuate

import "context"

// NotificationService is an optional interface for observing delivery
// failures and subscription lifecycle events: handler failures and
// subscription creation/closure, the events the core subsystems raise.
//
// Implementations might send emails, Slack messages, or log to a
// monitoring system.
type NotificationService interface {
	// NotifyHandlerFailure is called when a handler invocation in the
	// decorator chain returns an error for msg.
	NotifyHandlerFailure(ctx context.Context, msg *Message, err error) error

	// NotifySubscriptionCreated is called when Subscribe succeeds.
	NotifySubscriptionCreated(ctx context.Context, sub Subscription) error

	// NotifySubscriptionClosed is called when Unsubscribe or Close stops
	// a subscription.
	NotifySubscriptionClosed(ctx context.Context, sub Subscription) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

func (NoOpNotificationService) NotifyHandlerFailure(context.Context, *Message, error) error {
	return nil
}

func (NoOpNotificationService) NotifySubscriptionCreated(context.Context, Subscription) error {
	return nil
}

func (NoOpNotificationService) NotifySubscriptionClosed(context.Context, Subscription) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs
// notifications through a Logger.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

func (n *LoggingNotificationService) NotifyHandlerFailure(_ context.Context, msg *Message, err error) error {
	n.logger.Warnf("handler failed: message_id=%s destination=%s error=%v", msg.ID, msg.Destination(), err)
	return nil
}

func (n *LoggingNotificationService) NotifySubscriptionCreated(_ context.Context, sub Subscription) error {
	n.logger.Infof("subscription created: subscriber_id=%s channels=%v", sub.SubscriberID, sub.Channels)
	return nil
}

func (n *LoggingNotificationService) NotifySubscriptionClosed(_ context.Context, sub Subscription) error {
	n.logger.Infof("subscription closed: subscriber_id=%s", sub.SubscriberID)
	return nil
}
