package eventuate

import (
	"encoding/json"
	"time"
)

// Reserved header names. These are stamped onto every envelope by the
// producer or publisher and must not be set directly by callers.
const (
	HeaderID                 = "ID"
	HeaderDestination        = "DESTINATION"
	HeaderDate               = "DATE"
	HeaderPartitionID        = "PARTITION_ID"
	HeaderEventType          = "EVENT_TYPE"
	HeaderEventAggregateType = "EVENT_AGGREGATE_TYPE"
	HeaderEventAggregateID   = "EVENT_AGGREGATE_ID"
)

// Headers is a string-to-string header map with unique keys. Insertion
// order is not significant.
type Headers map[string]string

// Clone returns a shallow copy of the header map.
func (h Headers) Clone() Headers {
	if h == nil {
		return Headers{}
	}
	clone := make(Headers, len(h))
	for k, v := range h {
		clone[k] = v
	}
	return clone
}

// Message is the immutable wire envelope: an id, a header map, and an
// opaque UTF-8 payload (typically JSON). Messages are never mutated in
// place — producers and the publisher build a new Message carrying the
// reserved headers before handing it to Send.
type Message struct {
	ID      string
	Headers Headers
	Payload string
}

// NewMessage creates a message envelope with the given payload and headers.
// The caller-supplied headers must not include any reserved header name;
// those are set by Send/Publish.
func NewMessage(payload string, headers Headers) Message {
	return Message{
		Headers: headers.Clone(),
		Payload: payload,
	}
}

// WithHeader returns a copy of the message with header k set to v. The
// original message is left untouched.
func (m Message) WithHeader(k, v string) Message {
	clone := m
	clone.Headers = m.Headers.Clone()
	clone.Headers[k] = v
	return clone
}

// Destination returns the DESTINATION header, or "" if unset.
func (m Message) Destination() string {
	return m.Headers[HeaderDestination]
}

// PartitionKey returns the PARTITION_ID header, or "" if unset. The
// in-process broker routes every message with an empty key to partition
// 0; it does not spread them round-robin.
func (m Message) PartitionKey() string {
	return m.Headers[HeaderPartitionID]
}

// EventType returns the EVENT_TYPE header, or "" if unset.
func (m Message) EventType() string {
	return m.Headers[HeaderEventType]
}

// nowISO8601 returns the current time formatted as ISO-8601, used for
// the DATE reserved header.
func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// wireMessage is the JSON shape a broker record's value decodes into.
type wireMessage struct {
	ID      string  `json:"id"`
	Headers Headers `json:"headers"`
	Payload string  `json:"payload"`
}

// marshalMessage serializes a Message to the wire format relayed onto the
// broker. The outbox itself stores headers and payload as separate columns.
func marshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(wireMessage{ID: msg.ID, Headers: msg.Headers, Payload: msg.Payload})
}

// unmarshalMessage decodes a broker record's value back into a Message.
func unmarshalMessage(data []byte) (*Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return &Message{ID: wire.ID, Headers: wire.Headers, Payload: wire.Payload}, nil
}

// MarshalMessageForRelay re-encodes an outbox row as the wire format a
// BrokerConsumer.Poll record decodes with unmarshalMessage. The CDC relay
// calls this to turn a stored row back into the bytes it publishes.
func MarshalMessageForRelay(rec OutboxRecord) ([]byte, error) {
	msg := Message{ID: rec.ID, Headers: rec.Headers, Payload: rec.Payload}
	return marshalMessage(msg)
}
