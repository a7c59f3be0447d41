// Package protocol defines the WebSocket message envelope spoken between the
// SDK and the robot service. It is shared by the client (pkg/dog) and the
// simulator (pkg/sim).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the kind of envelope.
type MessageType string

const (
	// Client → robot
	TypeRequest     MessageType = "request"     // RPC call, answered by a response with the same ID
	TypeSubscribe   MessageType = "subscribe"   // Start receiving events for Topic
	TypeUnsubscribe MessageType = "unsubscribe" // Stop receiving events for Topic

	// Robot → client
	TypeResponse MessageType = "response" // RPC result
	TypeEvent    MessageType = "event"    // Stream sample on Topic

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the wrapper for every frame on the wire.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Code      int             `json:"code,omitempty"`
	Error     string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message with the current timestamp and data encoded
// as JSON. A nil data leaves Data empty.
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      raw,
	}, nil
}

// NewRequest creates an RPC request.
func NewRequest(id, method string, params any) (*Message, error) {
	m, err := NewMessage(TypeRequest, params)
	if err != nil {
		return nil, err
	}
	m.ID = id
	m.Method = method
	return m, nil
}

// NewResponse creates the reply to request id. code 0 means success.
func NewResponse(id string, code int, errMsg string, result any) (*Message, error) {
	m, err := NewMessage(TypeResponse, result)
	if err != nil {
		return nil, err
	}
	m.ID = id
	m.Code = code
	m.Error = errMsg
	return m, nil
}

// NewEvent creates a stream sample for topic.
func NewEvent(topic string, data any) (*Message, error) {
	m, err := NewMessage(TypeEvent, data)
	if err != nil {
		return nil, err
	}
	m.Topic = topic
	return m, nil
}

// NewSubscribe creates a subscribe (or, with on=false, unsubscribe) message.
func NewSubscribe(topic string, on bool) *Message {
	t := TypeSubscribe
	if !on {
		t = TypeUnsubscribe
	}
	return &Message{Type: t, Topic: topic, Timestamp: time.Now().UnixMilli()}
}

// ParseData unmarshals the message data into v. Empty data leaves v untouched.
func (m *Message) ParseData(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}
