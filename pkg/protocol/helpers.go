package protocol

import (
	"encoding/base64"
	"fmt"
	"time"
)

// NewFrameMessage wraps one JPEG for a remote source or a viewer.
func NewFrameMessage(width, height int, jpeg []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpeg),
		FrameID: frameID,
	})
}

// NewResizeMessage asks the server for a new viewport.
func NewResizeMessage(width, height int) (*Message, error) {
	return NewMessage(TypeResize, ResizeData{Width: width, Height: height})
}

// NewStateMessage publishes a scene snapshot.
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewPingMessage stamps a ping with the sender's clock.
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage answers a ping sent at pingTS.
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// payload decodes m's data after checking that m has type want.
func payload[T any](m *Message, want MessageType) (*T, error) {
	if m.Type != want {
		return nil, fmt.Errorf("%w: have %q, want %q", ErrWrongType, m.Type, want)
	}
	var data T
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFrameData returns the payload of a frame message.
func (m *Message) GetFrameData() (*FrameData, error) { return payload[FrameData](m, TypeFrame) }

// GetResizeData returns the payload of a resize message.
func (m *Message) GetResizeData() (*ResizeData, error) { return payload[ResizeData](m, TypeResize) }

// GetStateData returns the payload of a state message.
func (m *Message) GetStateData() (*StateData, error) { return payload[StateData](m, TypeState) }

// GetPingData returns the payload of a ping message.
func (m *Message) GetPingData() (*PingData, error) { return payload[PingData](m, TypePing) }

// GetPongData returns the payload of a pong message.
func (m *Message) GetPongData() (*PongData, error) { return payload[PongData](m, TypePong) }

// DecodeFrameData returns the raw JPEG bytes.
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}
