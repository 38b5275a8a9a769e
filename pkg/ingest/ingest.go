// Package ingest accepts frames from remote sources over WebSocket.
//
// A source connects to /ws/source (or /ws/source/:id) and streams protocol
// frame messages. Every frame is handed to the OnFrame callback and stored in
// a single-slot Mailbox that the frame loop drains at its own pace.
package ingest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-arucogl/internal/log"
	"github.com/teslashibe/go-arucogl/pkg/debug"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
)

// Source is a connected frame producer
type Source struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time
	Frames    uint64

	mu sync.Mutex
}

// Send sends a message to the source
func (s *Source) Send(msg *protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from frame sources
type Hub struct {
	mu      sync.RWMutex
	sources map[string]*Source
	mailbox *Mailbox

	onFrame func(p *Packet)

	messagesReceived atomic.Uint64
	framesReceived   atomic.Uint64
	badFrames        atomic.Uint64
}

// NewHub creates a new source hub
func NewHub() *Hub {
	return &Hub{
		sources: make(map[string]*Source),
		mailbox: NewMailbox(),
	}
}

// Mailbox returns the latest-frame slot fed by all sources.
func (h *Hub) Mailbox() *Mailbox {
	return h.mailbox
}

// OnFrame sets the callback for incoming frames. It runs on the source's
// read goroutine and must not block.
func (h *Hub) OnFrame(callback func(p *Packet)) {
	h.mu.Lock()
	h.onFrame = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/source", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/source", websocket.New(h.handleSource))
	app.Get("/ws/source/:id", websocket.New(h.handleSource))
}

func (h *Hub) handleSource(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	src := &Source{
		ID:        id,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.sources[id] = src
	count := len(h.sources)
	h.mu.Unlock()
	log.Info("frame source connected", "source", id, "sources", count)

	defer func() {
		h.mu.Lock()
		delete(h.sources, id)
		count := len(h.sources)
		h.mu.Unlock()
		log.Info("frame source disconnected", "source", id, "sources", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			debug.Log("source read ended", "source", id, "error", err)
			return
		}

		src.mu.Lock()
		src.LastSeen = time.Now()
		src.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(src, data)
	}
}

func (h *Hub) handleMessage(src *Source, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		debug.Log("source parse error", "source", src.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeFrame:
		fd, err := msg.GetFrameData()
		if err != nil {
			h.badFrames.Add(1)
			return
		}
		jpeg, err := fd.DecodeFrameData()
		if err != nil || len(jpeg) == 0 {
			h.badFrames.Add(1)
			debug.Log("bad frame payload", "source", src.ID, "error", err)
			return
		}

		src.mu.Lock()
		src.Frames++
		src.mu.Unlock()
		h.framesReceived.Add(1)

		p := &Packet{
			SourceID: src.ID,
			FrameID:  fd.FrameID,
			Width:    fd.Width,
			Height:   fd.Height,
			JPEG:     jpeg,
			Received: time.Now(),
		}
		h.mailbox.Publish(p)

		h.mu.RLock()
		cb := h.onFrame
		h.mu.RUnlock()
		if cb != nil {
			cb(p)
		}

	case protocol.TypePing:
		pong, err := protocol.NewPongMessage("", msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			src.Send(pong)
		}
	}
}

// GetSource returns a source by ID
func (h *Hub) GetSource(id string) *Source {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sources[id]
}

// SourceCount returns the number of connected sources
func (h *Hub) SourceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sources)
}

// Stats contains hub statistics
type Stats struct {
	SourceCount      int    `json:"source_count"`
	MessagesReceived uint64 `json:"messages_received"`
	FramesReceived   uint64 `json:"frames_received"`
	BadFrames        uint64 `json:"bad_frames"`
	FramesDropped    uint64 `json:"frames_dropped"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		SourceCount:      h.SourceCount(),
		MessagesReceived: h.messagesReceived.Load(),
		FramesReceived:   h.framesReceived.Load(),
		BadFrames:        h.badFrames.Load(),
		FramesDropped:    h.mailbox.Drops(),
	}
}

// SourceInfo contains info about a connected source
type SourceInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Frames    uint64    `json:"frames"`
}

// GetSourceInfos returns info about all connected sources
func (h *Hub) GetSourceInfos() []SourceInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]SourceInfo, 0, len(h.sources))
	for _, s := range h.sources {
		s.mu.Lock()
		infos = append(infos, SourceInfo{
			ID:        s.ID,
			Connected: s.Connected,
			LastSeen:  s.LastSeen,
			Frames:    s.Frames,
		})
		s.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers source listing routes
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	sources := api.Group("/sources")

	sources.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": h.GetSourceInfos(),
			"count":   h.SourceCount(),
		})
	})

	sources.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
