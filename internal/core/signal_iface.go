package core

import "encoding/json"

// Frame is a raw binary payload.
type Frame []byte

type ConnectionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Envelope is the wire shape of every event pushed over a SignalConnection.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func EncodeEvent(event string, payload any) (Frame, error) {
	return json.Marshal(Envelope{Type: event, Data: payload})
}
