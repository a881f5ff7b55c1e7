package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// payload is the JSON structure written to the outbox and published to Kafka.
type payload struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Category   string            `json:"category"`
	Emitter    string            `json:"emitter"`
	Actor      string            `json:"actor,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// Marshal encodes an event for the outbox and the wire.
func Marshal(e Event) ([]byte, error) {
	p := payload{
		ID:         e.ID.String(),
		Type:       string(e.Type),
		Category:   string(e.Type.Category()),
		Emitter:    e.Emitter.Hex(),
		Attributes: e.Attributes,
		RequestID:  e.RequestID,
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if e.Actor != (common.Address{}) {
		p.Actor = e.Actor.Hex()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return b, nil
}

// Unmarshal decodes an event produced by Marshal.
func Unmarshal(b []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Event{}, fmt.Errorf("unmarshal event payload: %w", err)
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return Event{}, fmt.Errorf("parse event id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse event timestamp: %w", err)
	}
	e := Event{
		ID:         id,
		Type:       Type(p.Type),
		Emitter:    common.HexToAddress(p.Emitter),
		Attributes: p.Attributes,
		RequestID:  p.RequestID,
		Timestamp:  ts,
	}
	if p.Actor != "" {
		e.Actor = common.HexToAddress(p.Actor)
	}
	if e.Attributes == nil {
		e.Attributes = map[string]string{}
	}
	return e, nil
}

// Topic returns the Kafka topic for an event type under the given prefix.
func Topic(prefix string, t Type) string {
	return CategoryTopic(prefix, t.Category())
}

// CategoryTopic returns the Kafka topic carrying category c.
func CategoryTopic(prefix string, c Category) string {
	return prefix + "." + string(c)
}
