package ws

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, data)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestHubDeliversToManagersAndOwner(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	manager := &recordingConn{}
	owner := &recordingConn{}
	bystander := &recordingConn{}
	hub.Register(&Client{Conn: manager, Email: "boss@h.org", Manager: true})
	hub.Register(&Client{Conn: owner, Email: "nurse@h.org"})
	hub.Register(&Client{Conn: bystander, Email: "other@h.org"})

	hub.Publish(Message{Owner: "nurse@h.org", Payload: []byte(`{"type":"access_request.created"}`)})

	waitFor(t, func() bool { return manager.count() == 1 && owner.count() == 1 })
	if bystander.count() != 0 {
		t.Fatalf("bystander should not receive messages")
	}

	cancel()
	<-done
	if !manager.closed || !owner.closed {
		t.Fatalf("expected connections closed on shutdown")
	}
}

func TestPublishOnNilHubIsNoop(t *testing.T) {
	var hub *Hub
	hub.Publish(Message{Payload: []byte("x")})
}

func TestHubRegistrationAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	conn := &recordingConn{}
	client := &Client{Conn: conn, Email: "nurse@h.org"}
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-done

	returned := make(chan struct{})
	go func() {
		hub.Unregister(client)
		hub.Register(&Client{Conn: &recordingConn{}, Email: "late@h.org"})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("Unregister blocked after Run exited")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients after shutdown, got %d", hub.ClientCount())
	}
}

func TestHubUnregisterClosesConnection(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := &recordingConn{}
	client := &Client{Conn: conn, Email: "boss@h.org", Manager: true}
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Fatalf("expected connection closed on unregister")
	}
}
