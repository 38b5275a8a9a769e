// Package hub fans composited frames and scene state out to websocket viewers
// through a single channel-driven loop.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType selects the websocket frame type used on the wire.
type MessageType int

const (
	// JSONMessage goes out as a text frame.
	JSONMessage MessageType = iota
	// BinaryMessage goes out as a binary frame, e.g. a composited JPEG.
	BinaryMessage
)

// Message is one queued write.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps already encoded JSON.
func NewJSONMessage(data []byte) Message { return Message{Type: JSONMessage, Data: data} }

// NewBinaryMessage wraps raw bytes.
func NewBinaryMessage(data []byte) Message { return Message{Type: BinaryMessage, Data: data} }

func (m Message) frameType() int {
	if m.Type == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
