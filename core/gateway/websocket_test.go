package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/adaeng/enhance-core/core/messages"
	"github.com/adaeng/enhance-core/core/stagebus"
)

func dialTestServer(t *testing.T, server *Server) (*websocket.Conn, func()) {
	t.Helper()

	httpServer := httptest.NewServer(server)
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		httpServer.Close()
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	return conn, func() {
		conn.Close()
		httpServer.Close()
	}
}

func TestDrainDeliversTaggedMessages(t *testing.T) {
	outbound := stagebus.NewQueue[messages.Message](10)
	server := NewServer(outbound)

	conn, cleanup := dialTestServer(t, server)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = server.Drain(ctx) }()

	if err := outbound.Put(ctx, messages.NewTextResponse("payload", "thread-1")); err != nil {
		t.Fatalf("expected put to succeed, got %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected to receive a message, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if decoded["type"] != string(messages.KindTextResponse) {
		t.Fatalf("expected type %q, got %v", messages.KindTextResponse, decoded["type"])
	}
	if decoded["content"] != "payload" {
		t.Fatalf("expected content %q, got %v", "payload", decoded["content"])
	}

	joinCtx, joinCancel := context.WithTimeout(ctx, 2*time.Second)
	defer joinCancel()
	if err := outbound.Join(joinCtx); err != nil {
		t.Fatalf("expected the message to be acknowledged, got %v", err)
	}
}

func TestDisconnectedClientIsDropped(t *testing.T) {
	outbound := stagebus.NewQueue[messages.Message](10)
	server := NewServer(outbound)

	conn, cleanup := dialTestServer(t, server)
	defer cleanup()

	deadline := time.Now().Add(2 * time.Second)
	for server.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 connected client, got %d", server.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()
	for server.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the client to be dropped, got %d", server.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
