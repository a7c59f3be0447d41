// Package hub fans dashboard updates out to websocket clients.
package hub

import "encoding/json"

// MessageType selects the websocket frame type.
type MessageType int

const (
	JSONMessage MessageType = iota
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw bytes such as a JPEG frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// Event is the JSON envelope sent on the telemetry stream.
type Event struct {
	Kind string `json:"kind"` // "state", "velocity", "key", "perception", ...
	Time int64  `json:"time"` // unix millis
	Data any    `json:"data"`
}

// Encode marshals e into a JSON message.
func (e Event) Encode() (Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
