// ABOUTME: Defines the WebSocket message protocol between the relay and its watchers.
// ABOUTME: The relay broadcasts a mode message for every webhook it receives.

package main

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	MessageTypeMode MessageType = "mode"
)

// Message is the envelope for all WebSocket communication.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ModeEvent is broadcast when a webhook reports a mode change.
type ModeEvent struct {
	ID         string    `json:"id"`
	Mode       Mode      `json:"mode"`
	Source     string    `json:"source,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// EncodeMessage creates a Message envelope with the given type and data.
func EncodeMessage(msgType MessageType, data interface{}) ([]byte, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type: msgType,
		Data: dataBytes,
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a raw message into type and data components.
func DecodeMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
