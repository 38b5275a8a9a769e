// Package protocol defines the WebSocket messages exchanged between frame
// sources, the compositor server and viewers.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType names the payload carried in Message.Data.
type MessageType string

const (
	TypeFrame  MessageType = "frame"  // source to server, server to viewer
	TypeResize MessageType = "resize" // viewer to server
	TypeState  MessageType = "state"  // server to viewer
	TypePing   MessageType = "ping"
	TypePong   MessageType = "pong"
)

// ErrWrongType is returned when a payload accessor is used on a message of
// another type.
var ErrWrongType = errors.New("protocol: wrong message type")

// Message is the envelope sent on every websocket.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage encodes data into an envelope stamped with the current time.
// A nil data leaves the payload empty.
func NewMessage(msgType MessageType, data any) (*Message, error) {
	msg := &Message{Type: msgType, Timestamp: time.Now().UnixMilli()}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msgType, err)
	}
	msg.Data = raw
	return msg, nil
}

// ParseData decodes the payload into v. An empty payload leaves v untouched.
func (m *Message) ParseData(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes encodes the envelope.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage decodes an envelope. A message without a type is rejected.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("protocol: parse: missing type")
	}
	return &msg, nil
}

// FrameData contains one encoded frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// ResizeData asks the server for a new viewport
type ResizeData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MarkerState describes one detected marker
type MarkerState struct {
	ID       int        `json:"id"`
	Center   [2]float64 `json:"center"`   // Pixels
	Position [3]float64 `json:"position"` // Eye space
	Role     string     `json:"role,omitempty"`
}

// StateData is a snapshot of the scene
type StateData struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	SpinAngle   float64       `json:"spin_angle"`
	OrbitAngle  float64       `json:"orbit_angle"`
	OrbitRadius float64       `json:"orbit_radius"`
	Markers     []MarkerState `json:"markers"`
	Frames      uint64        `json:"frames"`
	Renders     uint64        `json:"renders"`
	Sources     int           `json:"sources"`
}

// PingData carries the sender's clock
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData echoes a ping with the round trip
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
