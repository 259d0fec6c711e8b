package eventuate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeOutboxStore struct {
	rows      []OutboxRecord
	insertErr error
}

func (f *fakeOutboxStore) Insert(_ context.Context, rec OutboxRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeOutboxStore) ListUnpublished(context.Context, int) ([]OutboxRecord, error) {
	return f.rows, nil
}

func (f *fakeOutboxStore) MarkPublished(context.Context, []string) error {
	return nil
}

func TestNewProducer_RequiresStore(t *testing.T) {
	_, err := NewProducer(nil)
	assert.Error(t, err)
}

func TestProducer_Send_InsertsOutboxRow(t *testing.T) {
	store := &fakeOutboxStore{}
	p, err := NewProducer(store)
	assert.NoError(t, err)

	msg := NewMessage(`{"a":1}`, Headers{"custom": "v"})
	err = p.Send(context.Background(), "Order", msg)
	assert.NoError(t, err)

	assert.Len(t, store.rows, 1)
	row := store.rows[0]
	assert.Equal(t, "Order", row.Destination)
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, "v", row.Headers["custom"])
	assert.Equal(t, row.ID, row.Headers[HeaderID])
	assert.Equal(t, "Order", row.Headers[HeaderDestination])
}

func TestProducer_Send_RejectsEmptyDestination(t *testing.T) {
	p, _ := NewProducer(&fakeOutboxStore{})
	err := p.Send(context.Background(), "", NewMessage("payload", nil))
	assert.Error(t, err)
}

func TestProducer_Send_RejectsEmptyPayload(t *testing.T) {
	p, _ := NewProducer(&fakeOutboxStore{})
	err := p.Send(context.Background(), "Order", NewMessage("", nil))
	assert.Error(t, err)
}

func TestProducer_Send_PropagatesStoreError(t *testing.T) {
	store := &fakeOutboxStore{insertErr: errors.New("db down")}
	p, _ := NewProducer(store)

	err := p.Send(context.Background(), "Order", NewMessage("payload", nil))
	assert.Error(t, err)
}

type countingSendInterceptor struct {
	BaseInterceptor
	preSendCalls  int
	postSendCalls int
	lastErr       error
}

func (c *countingSendInterceptor) PreSend(context.Context, *Message) error {
	c.preSendCalls++
	return nil
}

func (c *countingSendInterceptor) PostSend(_ context.Context, _ *Message, err error) {
	c.postSendCalls++
	c.lastErr = err
}

func TestProducer_Send_RunsInterceptors(t *testing.T) {
	store := &fakeOutboxStore{}
	interceptor := &countingSendInterceptor{}
	p, err := NewProducer(store, WithProducerInterceptors(interceptor))
	assert.NoError(t, err)

	err = p.Send(context.Background(), "Order", NewMessage("payload", nil))
	assert.NoError(t, err)
	assert.Equal(t, 1, interceptor.preSendCalls)
	assert.Equal(t, 1, interceptor.postSendCalls)
	assert.NoError(t, interceptor.lastErr)
}

func TestProducer_Send_IDGeneratorOverride(t *testing.T) {
	store := &fakeOutboxStore{}
	p, err := NewProducer(store, WithProducerIDGenerator(fixedIDGenerator{id: "fixed-id"}))
	assert.NoError(t, err)

	err = p.Send(context.Background(), "Order", NewMessage("payload", nil))
	assert.NoError(t, err)
	assert.Equal(t, "fixed-id", store.rows[0].ID)
}

type fixedIDGenerator struct {
	id string
}

func (f fixedIDGenerator) NewID() string { return f.id }
