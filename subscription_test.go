package eventuate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeBrokerConsumer struct {
	closed bool
}

func (f *fakeBrokerConsumer) Poll(ctx context.Context) ([]Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeBrokerConsumer) CommitOffset(context.Context, string, int, int64) error {
	return nil
}

func (f *fakeBrokerConsumer) Close() error {
	f.closed = true
	return nil
}

type fakeBroker struct {
	subscribeErr error
	consumers    []*fakeBrokerConsumer
}

func (f *fakeBroker) Subscribe(ctx context.Context, groupID string, channels []string) (BrokerConsumer, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	c := &fakeBrokerConsumer{}
	f.consumers = append(f.consumers, c)
	return c, nil
}

func TestSubscriptionManager_Subscribe_Succeeds(t *testing.T) {
	broker := &fakeBroker{}
	mgr, err := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())
	assert.NoError(t, err)

	sub, err := mgr.Subscribe(context.Background(), "sub-1", []string{"Order"})
	assert.NoError(t, err)
	assert.Equal(t, "sub-1", sub.SubscriberID)

	assert.NoError(t, mgr.Close(context.Background()))
}

func TestSubscriptionManager_Subscribe_RejectsDuplicateSubscriberID(t *testing.T) {
	broker := &fakeBroker{}
	mgr, _ := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())

	_, err := mgr.Subscribe(context.Background(), "sub-1", []string{"Order"})
	assert.NoError(t, err)

	_, err = mgr.Subscribe(context.Background(), "sub-1", []string{"Order"})
	assert.Error(t, err)

	mgr.Close(context.Background())
}

func TestSubscriptionManager_Subscribe_ValidatesInput(t *testing.T) {
	broker := &fakeBroker{}
	mgr, _ := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())

	_, err := mgr.Subscribe(context.Background(), "", []string{"Order"})
	assert.Error(t, err)

	_, err = mgr.Subscribe(context.Background(), "sub-1", nil)
	assert.Error(t, err)
}

func TestSubscriptionManager_Unsubscribe_UnknownIDIsNoOp(t *testing.T) {
	broker := &fakeBroker{}
	mgr, _ := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())

	err := mgr.Unsubscribe(context.Background(), "never-subscribed")
	assert.NoError(t, err)
}

func TestSubscriptionManager_Unsubscribe_ClosesBrokerConsumer(t *testing.T) {
	broker := &fakeBroker{}
	mgr, _ := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())

	_, err := mgr.Subscribe(context.Background(), "sub-1", []string{"Order"})
	assert.NoError(t, err)

	err = mgr.Unsubscribe(context.Background(), "sub-1")
	assert.NoError(t, err)

	assert.Len(t, broker.consumers, 1)
	assert.True(t, broker.consumers[0].closed)
}

func TestSubscriptionManager_Close_StopsEverySubscription(t *testing.T) {
	broker := &fakeBroker{}
	mgr, _ := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())

	_, err := mgr.Subscribe(context.Background(), "sub-1", []string{"Order"})
	assert.NoError(t, err)
	_, err = mgr.Subscribe(context.Background(), "sub-2", []string{"Invoice"})
	assert.NoError(t, err)

	assert.NoError(t, mgr.Close(context.Background()))

	for _, c := range broker.consumers {
		assert.True(t, c.closed)
	}
}

func TestSubscriptionManager_Subscribe_PropagatesBrokerError(t *testing.T) {
	broker := &fakeBroker{subscribeErr: ErrShuttingDown}
	mgr, _ := NewSubscriptionManager(broker, newFakeInbox(), &fakeUnitOfWork{}, NewHandlerRegistry())

	_, err := mgr.Subscribe(context.Background(), "sub-1", []string{"Order"})
	assert.Error(t, err)
}
