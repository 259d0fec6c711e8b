package eventuate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapServiceProvider_Lookup(t *testing.T) {
	services := mapServiceProvider{"db": 42}

	v, ok := services.Lookup("db")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = services.Lookup("missing")
	assert.False(t, ok)
}

func TestEventHandlerFunc_Handle(t *testing.T) {
	var called bool
	handler := EventHandlerFunc(func(ctx context.Context, envelope DomainEventEnvelope, services ServiceProvider) error {
		called = true
		return nil
	})

	err := handler.Handle(context.Background(), DomainEventEnvelope{}, mapServiceProvider{})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestHandlerRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewHandlerRegistry()
	h := EventHandlerFunc(func(context.Context, DomainEventEnvelope, ServiceProvider) error { return nil })

	registry.Register("Order", "OrderPlaced", h)

	found := registry.Lookup("Order", "OrderPlaced")
	assert.Len(t, found, 1)

	none := registry.Lookup("Order", "OrderCancelled")
	assert.Empty(t, none)
}

func TestHandlerRegistry_MultipleHandlersSameKey(t *testing.T) {
	registry := NewHandlerRegistry()
	h1 := EventHandlerFunc(func(context.Context, DomainEventEnvelope, ServiceProvider) error { return nil })
	h2 := EventHandlerFunc(func(context.Context, DomainEventEnvelope, ServiceProvider) error { return nil })

	registry.Register("Order", "OrderPlaced", h1)
	registry.Register("Order", "OrderPlaced", h2)

	found := registry.Lookup("Order", "OrderPlaced")
	assert.Len(t, found, 2)
}

func TestHandlerRegistry_DistinctAggregateTypesDoNotCollide(t *testing.T) {
	registry := NewHandlerRegistry()
	h := EventHandlerFunc(func(context.Context, DomainEventEnvelope, ServiceProvider) error { return nil })

	registry.Register("Order", "Created", h)
	registry.Register("Invoice", "Created", h)

	assert.Len(t, registry.Lookup("Order", "Created"), 1)
	assert.Len(t, registry.Lookup("Invoice", "Created"), 1)
}
