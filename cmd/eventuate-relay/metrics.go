package main

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type relayMetrics struct {
	published       metric.Int64Counter
	failed          metric.Int64Counter
	dispatchLatency metric.Float64Histogram
}

func newRelayMetrics(provider metric.MeterProvider) (relayMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter("github.com/coregx/eventuate/cmd/eventuate-relay")

	var (
		m   relayMetrics
		err error
	)

	m.published, err = meter.Int64Counter(
		"eventuate.relay.events.published",
		metric.WithDescription("Number of outbox rows successfully published to the broker"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return relayMetrics{}, fmt.Errorf("create eventuate.relay.events.published counter: %w", err)
	}

	m.failed, err = meter.Int64Counter(
		"eventuate.relay.events.failed",
		metric.WithDescription("Number of outbox rows that exhausted retries without publishing"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return relayMetrics{}, fmt.Errorf("create eventuate.relay.events.failed counter: %w", err)
	}

	m.dispatchLatency, err = meter.Float64Histogram(
		"eventuate.relay.cycle.latency",
		metric.WithDescription("Time taken per relay poll cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return relayMetrics{}, fmt.Errorf("create eventuate.relay.cycle.latency histogram: %w", err)
	}

	return m, nil
}
