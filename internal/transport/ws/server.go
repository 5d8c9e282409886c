// Package ws serves the engine bridge over WebSocket. Engines send
// Requests, receive Responses, and get every scene Effect broadcast to them.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
	"github.com/tiltlab/arlabyrinth/internal/world"

	"github.com/gorilla/websocket"
)

const (
	sendChSize = 256
	writeWait  = 10 * time.Second
)

type client struct {
	out  chan []byte
	addr string
	left bool // guarded by Server.mu
}

// Server accepts engine connections.
type Server struct {
	loop *Loop
	log  *slog.Logger

	upgrader websocket.Upgrader

	snapshot func() []world.Effect

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates a server that executes requests on loop.
func NewServer(loop *Loop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		loop: loop,
		log:  logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // any origin
		},
		clients: make(map[*client]struct{}),
	}
}

// SetSnapshot makes every new connection start with the effects returned by
// fn, so the engine can rebuild the current scene. fn runs on the loop.
func (s *Server) SetSnapshot(fn func() []world.Effect) {
	s.snapshot = fn
}

// Clients returns the number of connected engines.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast queues e for every connected engine. It never blocks; a client
// whose queue is full misses the effect.
func (s *Server) Broadcast(e world.Effect) {
	b, err := json.Marshal(EffectMessage{Type: TypeEffect, Payload: e})
	if err != nil {
		s.log.Error("Failed to encode effect", "kind", e.Kind, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.queue(c, b, e.Kind)
	}
}

func (s *Server) queue(c *client, b []byte, kind world.EffectKind) {
	select {
	case c.out <- b:
	default:
		s.log.Warn("Client queue full, dropping effect", "client", c.addr, "kind", kind)
	}
}

// join registers c on the loop goroutine, so no effect can be broadcast
// between the snapshot and the registration.
func (s *Server) join(ctx context.Context, c *client) error {
	err := s.loop.Exec(ctx, func() {
		if s.snapshot != nil {
			for _, e := range s.snapshot() {
				b, err := json.Marshal(EffectMessage{Type: TypeEffect, Payload: e})
				if err != nil {
					s.log.Error("Failed to encode effect", "kind", e.Kind, "error", err)
					continue
				}
				s.queue(c, b, e.Kind)
			}
		}
		s.add(c)
	})
	if err != nil {
		s.mu.Lock()
		c.left = true
		delete(s.clients, c)
		s.mu.Unlock()
	}
	return err
}

// Handler upgrades the request and serves the connection until it closes.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Warn("WebSocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{out: make(chan []byte, sendChSize), addr: r.RemoteAddr}
		if err := s.join(ctx, c); err != nil {
			s.log.Warn("Engine rejected", "client", c.addr, "error", err)
			return
		}
		defer s.remove(c)

		go s.writeLoop(ctx, cancel, conn, c)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Warn("WebSocket read error", "client", c.addr, "error", err)
				}
				return
			}

			resp := s.handle(ctx, msg)
			b, err := json.Marshal(resp)
			if err != nil {
				b, _ = json.Marshal(newResponse(Request{ID: resp.ID, Command: resp.Command}, nil, fmt.Errorf("encoding result: %w", err)))
			}

			select {
			case c.out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, msg []byte) Response {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return newResponse(req, nil, fmt.Errorf("decoding request: %w", err))
	}
	if req.Command == "" {
		return newResponse(req, nil, fmt.Errorf("request without command"))
	}

	v, err := s.loop.Do(ctx, dispatcher.Event{Command: req.Command, Args: req.Args})
	return newResponse(req, v, err)
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.out:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				cancel()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.log.Warn("WebSocket write error", "client", c.addr, "error", err)
				cancel()
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *Server) add(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.left {
		return
	}
	s.clients[c] = struct{}{}
	s.log.Info("Engine connected", "client", c.addr)
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.log.Info("Engine disconnected", "client", c.addr)
}
