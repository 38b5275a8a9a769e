package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gorilla "github.com/gorilla/websocket"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
)

func startHub(t *testing.T, port string, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		NewClient(h, c).Run()
	}))
	go app.Listen(":" + port)

	t.Cleanup(func() {
		cancel()
		app.Shutdown()
	})
	time.Sleep(100 * time.Millisecond)
}

func dial(t *testing.T, port string) *gorilla.Conn {
	t.Helper()
	ws, _, err := gorilla.DefaultDialer.Dial("ws://localhost:"+port+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestBroadcastReachesClients(t *testing.T) {
	h := New("test")
	startHub(t, "18290", h)

	a := dial(t, "18290")
	b := dial(t, "18290")
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	h.BroadcastBinary([]byte{1, 2, 3})
	resize, _ := protocol.NewResizeMessage(320, 240)
	if err := h.BroadcastMessage(resize); err != nil {
		t.Fatalf("BroadcastMessage: %v", err)
	}

	for _, ws := range []*gorilla.Conn{a, b} {
		ws.SetReadDeadline(time.Now().Add(time.Second))
		mt, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if mt != gorilla.BinaryMessage || len(data) != 3 {
			t.Errorf("first message type %d len %d", mt, len(data))
		}
		mt, data, err = ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		msg, err := protocol.ParseMessage(data)
		if mt != gorilla.TextMessage || err != nil || msg.Type != protocol.TypeResize {
			t.Errorf("second message type %d %q", mt, data)
		}
	}
}

func TestOnMessage(t *testing.T) {
	h := New("test")
	got := make(chan *protocol.Message, 1)
	h.OnMessage = func(c *Client, msg *protocol.Message) {
		got <- msg
		pong, _ := protocol.NewPongMessage("hub", msg.Timestamp, 0)
		data, _ := pong.Bytes()
		c.Send(NewJSONMessage(data))
	}
	startHub(t, "18291", h)

	ws := dial(t, "18291")

	// Garbage is ignored.
	ws.WriteMessage(gorilla.TextMessage, []byte("not json"))

	ping, _ := protocol.NewPingMessage("viewer")
	data, _ := ping.Bytes()
	ws.WriteMessage(gorilla.TextMessage, data)

	select {
	case msg := <-got:
		if msg.Type != protocol.TypePing {
			t.Errorf("Type = %s, want ping", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("OnMessage not called")
	}

	ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, _ := protocol.ParseMessage(data)
	if msg == nil || msg.Type != protocol.TypePong {
		t.Errorf("reply = %s", data)
	}
}

func TestClientDisconnect(t *testing.T) {
	h := New("test")
	startHub(t, "18292", h)

	ws := dial(t, "18292")
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	ws.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestRunStopsOnCancel(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	waitFor(t, h.IsRunning)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if h.IsRunning() {
		t.Error("hub still reports running")
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	h := New("test")

	// Nothing drains the queue without Run.
	for i := 0; i < 300; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	if h.Dropped() != 300-256 {
		t.Errorf("Dropped = %d, want %d", h.Dropped(), 300-256)
	}
}

func TestClientSendAfterHubStops(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	// The connection is only touched by Run, which this test never calls.
	c := NewClient(h, nil)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	var senders sync.WaitGroup
	for i := 0; i < 4; i++ {
		senders.Add(1)
		go func() {
			defer senders.Done()
			for j := 0; j < 500; j++ {
				c.Send(NewBinaryMessage([]byte{byte(j)}))
			}
		}()
	}
	cancel()
	<-done
	senders.Wait()

	if c.Send(NewBinaryMessage([]byte{1})) {
		t.Error("Send succeeded on a client the hub closed")
	}

	late := NewClient(h, nil)
	if late.Send(NewBinaryMessage([]byte{1})) {
		t.Error("Send succeeded on a client created after the hub stopped")
	}
}
