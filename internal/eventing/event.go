// Package eventing provides the domain event plumbing shared by all aggregates:
// the event contract, the uncommitted-event buffer embedded in aggregate roots,
// the wire envelope, and the transactional wrapper that turns drained events
// into outbox rows inside the same database transaction as the state change.
package eventing

import (
	"encoding/json"
	"strings"
)

// Event is a domain event produced as a side effect of an aggregate state transition.
type Event interface {
	// EventType returns the canonical type tag (e.g. "membership_application.submitted").
	EventType() string
	// PartitionKey returns the broker partition key. Events sharing a key keep
	// their relative order downstream; aggregates use their id.
	PartitionKey() string
}

// Envelope is the wire shape of a published event: a type tag plus the
// event-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes an event into its envelope JSON.
func Encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event.EventType(), Data: data})
}

// DecodeEnvelope parses envelope JSON and normalizes its type tag.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	env.Type = NormalizeType(env.Type)
	return env, nil
}

// NormalizeType maps legacy hyphenated type tags onto the canonical underscored
// spelling. Older producers emitted both variants of the same tag; normalizing
// at the decoding edge keeps the handler registry free of duplicates.
func NormalizeType(eventType string) string {
	return strings.ReplaceAll(strings.TrimSpace(eventType), "-", "_")
}
