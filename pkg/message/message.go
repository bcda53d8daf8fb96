// Package message implements the typed envelope (spec C1/§3/§4.1): a
// Kind, a schema-validated Content, a unique id, and a timestamp.
// Messages are immutable once constructed; the bus and streaming server
// share them by reference.
package message

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the immutable envelope carried by the bus and streamed to
// clients (spec §3 "Message").
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Construct builds a new Message, validating content against the kind's
// registered schema. On failure it returns ErrInvalidMessage wrapping the
// specific violation, and performs no I/O (spec §4.1, §8 universal
// invariant: "construction fails with invalid_message before any I/O").
func Construct(kind Kind, content Content) (*Message, error) {
	if content == nil {
		content = Content{}
	}
	if err := validate(kind, content); err != nil {
		return nil, &ConstructError{Kind: kind, Cause: err}
	}
	return &Message{
		ID:        uuid.New().String(),
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}

// ConstructError wraps a schema violation so callers can distinguish it
// from other errors via errors.Is(err, ErrInvalidMessage). Unwrap exposes
// the underlying cause, so errors.Is(err, ErrUnknownKind) also holds for
// a kind with no registered validator.
type ConstructError struct {
	Kind  Kind
	Cause error
}

func (e *ConstructError) Error() string {
	return "invalid_message: kind " + string(e.Kind) + ": " + e.Cause.Error()
}

func (e *ConstructError) Unwrap() error { return e.Cause }

func (e *ConstructError) Is(target error) bool { return target == ErrInvalidMessage }

// wireMessage is the on-the-wire JSON shape (spec §6): {"type", "content"}
// for frames, with id/timestamp carried alongside for bus consumers that
// need them. Field name "type" (not "kind") matches the wire protocol
// table in spec §6 verbatim.
type wireMessage struct {
	ID        string  `json:"id,omitempty"`
	Type      Kind    `json:"type"`
	Content   Content `json:"content"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// ToWire serializes the Message to its wire JSON representation.
func (m *Message) ToWire() ([]byte, error) {
	w := wireMessage{
		ID:        m.ID,
		Type:      m.Kind,
		Content:   m.Content,
		Timestamp: m.Timestamp.Format(time.RFC3339Nano),
	}
	return json.Marshal(w)
}

// FromWire parses a wire JSON frame into a Message without re-validating
// against the schema registry — FromWire is used to round-trip messages
// this process already constructed (e.g. reloading a persisted snapshot's
// embedded messages), not to accept arbitrary untrusted input. Callers
// reading client frames off a socket should validate explicitly via
// Construct after parsing the kind/content.
func FromWire(data []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	ts := time.Now()
	if w.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, w.Timestamp); err == nil {
			ts = parsed
		}
	}
	id := w.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &Message{ID: id, Kind: w.Type, Content: w.Content, Timestamp: ts}, nil
}
