package eventuate

import "github.com/google/uuid"

// IDGenerator allocates a monotonic, globally unique message id, sortable
// lexicographically in creation order.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates ids using RFC 9562 UUIDv7: the leading 48
// bits are a millisecond Unix timestamp, so ids sort lexicographically
// in creation order without a bespoke encoder.
type UUIDv7Generator struct{}

// NewID returns a new UUIDv7 in its canonical 36-character form.
func (UUIDv7Generator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the system clock/random source is
		// unavailable; fall back to a random v4 rather than panicking
		// the caller's business transaction.
		return uuid.New().String()
	}
	return id.String()
}
