package messages

import "github.com/google/uuid"

type Kind string

type Message interface {
	Kind() Kind
	ID() string
}

// Base carries the fields shared by every outbound message. Fields are
// exported for JSON delivery; clients rely on the id to correlate
// incremental messages with their terminal marker.
type Base struct {
	MessageID string `json:"id"`
	Role      string `json:"role"`
	Type      Kind   `json:"type"`
}

// NewBase builds the shared header. An empty id gets a fresh one.
func NewBase(kind Kind, id string) Base {
	if id == "" {
		id = uuid.NewString()
	}
	return Base{MessageID: id, Role: "assistant", Type: kind}
}

func (b Base) Kind() Kind {
	return b.Type
}

func (b Base) ID() string {
	return b.MessageID
}
