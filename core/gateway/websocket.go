// Package gateway delivers outbound pipeline messages to connected UI
// clients over websockets.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/adaeng/enhance-core/core/messages"
	"github.com/adaeng/enhance-core/core/stagebus"
)

// Server upgrades HTTP requests to websocket sessions and fans outbound
// messages out to every live client. Register it as the handler for the
// message streaming endpoint and run Drain alongside the pipeline.
type Server struct {
	outbound *stagebus.Queue[messages.Message]
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer creates a gateway draining the given outbound queue.
func NewServer(outbound *stagebus.Queue[messages.Message]) *Server {
	return &Server{
		outbound: outbound,
		upgrader: websocket.Upgrader{
			// Origin enforcement belongs to the fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: map[*websocket.Conn]struct{}{},
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client disconnects. The read loop only consumes control frames and
// detects closure; inbound payloads are ignored here.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to upgrade websocket connection", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	clientCount := len(s.clients)
	s.mu.Unlock()
	logger.InfoContext(r.Context(), "Websocket client connected",
		"remote", conn.RemoteAddr().String(), "clients", clientCount)

	defer s.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.InfoContext(r.Context(), "Websocket client read failed", "error", err)
			}
			return
		}
	}
}

// Drain forwards outbound messages to all connected clients until ctx is
// cancelled. A client whose write fails is dropped; delivery to the
// remaining clients continues. Every dequeued message is acknowledged,
// connected clients or not, since there is no redelivery.
func (s *Server) Drain(ctx context.Context) error {
	for {
		message, err := s.outbound.Get(ctx)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(message)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to marshal outbound message",
				"error", err, "kind", message.Kind())
		} else {
			s.broadcast(ctx, payload)
		}

		if err := s.outbound.Done(); err != nil {
			return err
		}
	}
}

func (s *Server) broadcast(ctx context.Context, payload []byte) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.InfoContext(ctx, "Dropping websocket client after write failure",
				"remote", conn.RemoteAddr().String(), "error", err)
			s.drop(conn)
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, known := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()

	if known {
		_ = conn.Close()
	}
}

// Clients reports the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
