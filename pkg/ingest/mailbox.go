package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Packet is one encoded frame received from a source.
type Packet struct {
	SourceID string
	FrameID  uint64
	Width    int
	Height   int
	JPEG     []byte
	Received time.Time
}

// Mailbox holds the most recent packet. Publishing over an unconsumed
// packet replaces it and counts a drop, so a slow consumer always sees the
// newest frame instead of a backlog.
type Mailbox struct {
	mu     sync.Mutex
	latest *Packet
	notify chan struct{}

	published atomic.Uint64
	drops     atomic.Uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Publish stores p, replacing any unconsumed packet. It never blocks.
func (m *Mailbox) Publish(p *Packet) {
	m.mu.Lock()
	if m.latest != nil {
		m.drops.Add(1)
	}
	m.latest = p
	m.mu.Unlock()
	m.published.Add(1)

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryNext takes the pending packet, or returns nil.
func (m *Mailbox) TryNext() *Packet {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.latest
	m.latest = nil
	return p
}

// Next blocks until a packet is available or ctx is done.
func (m *Mailbox) Next(ctx context.Context) (*Packet, error) {
	for {
		if p := m.TryNext(); p != nil {
			return p, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.notify:
		}
	}
}

// Published returns the number of packets stored.
func (m *Mailbox) Published() uint64 { return m.published.Load() }

// Drops returns the number of packets replaced before being consumed.
func (m *Mailbox) Drops() uint64 { return m.drops.Load() }
