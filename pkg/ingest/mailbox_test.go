package ingest

import (
	"context"
	"testing"
	"time"
)

func TestMailbox_KeepsLatest(t *testing.T) {
	m := NewMailbox()
	if m.TryNext() != nil {
		t.Fatal("new mailbox should be empty")
	}

	for i := uint64(1); i <= 3; i++ {
		m.Publish(&Packet{FrameID: i})
	}

	p := m.TryNext()
	if p == nil || p.FrameID != 3 {
		t.Fatalf("TryNext = %+v, want frame 3", p)
	}
	if m.TryNext() != nil {
		t.Error("packet delivered twice")
	}
	if m.Drops() != 2 {
		t.Errorf("Drops = %d, want 2", m.Drops())
	}
	if m.Published() != 3 {
		t.Errorf("Published = %d, want 3", m.Published())
	}
}

func TestMailbox_NextWaits(t *testing.T) {
	m := NewMailbox()

	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Publish(&Packet{FrameID: 9})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p, err := m.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.FrameID != 9 {
		t.Errorf("FrameID = %d, want 9", p.FrameID)
	}
}

func TestMailbox_NextCancelled(t *testing.T) {
	m := NewMailbox()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.Next(ctx); err != context.DeadlineExceeded {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
