package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-arucogl/internal/httpc"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
)

const feederWriteWait = 5 * time.Second

// Feeder pushes JPEG frames to a remote ingest endpoint.
type Feeder struct {
	conn *websocket.Conn
	mu   sync.Mutex
	next uint64
}

// Dial connects to url, e.g. ws://host:8080/ws/source/webcam.
func Dial(url string) (*Feeder, error) {
	conn, _, err := httpc.Dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: dial %s: %w", url, err)
	}

	f := &Feeder{conn: conn}
	go f.drain()
	return f, nil
}

// drain discards server replies so control frames keep flowing.
func (f *Feeder) drain() {
	for {
		if _, _, err := f.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Send transmits one JPEG frame and returns its frame id.
func (f *Feeder) Send(width, height int, jpeg []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	msg, err := protocol.NewFrameMessage(width, height, jpeg, f.next)
	if err != nil {
		return 0, err
	}
	data, err := msg.Bytes()
	if err != nil {
		return 0, err
	}

	f.conn.SetWriteDeadline(time.Now().Add(feederWriteWait))
	if err := f.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, fmt.Errorf("ingest: send frame %d: %w", f.next, err)
	}
	return f.next, nil
}

// Close sends a close frame and shuts the connection.
func (f *Feeder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return f.conn.Close()
}
