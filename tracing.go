package eventuate

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer resolves a named tracer from the global otel TracerProvider. When
// no SDK has been installed, otel's default provider returns a noop tracer,
// so components work without tracing configured, matching LerianStudio's
// tracer.Start(ctx, "outbox.dispatch") convention.
func tracer(name string) trace.Tracer {
	return otel.Tracer("github.com/coregx/eventuate/" + name)
}
