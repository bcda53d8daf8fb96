// Package streaming implements the Streaming Server (spec C4): a
// WebSocket endpoint that authenticates clients, fans out bus messages,
// rate-limits and batches under load, and buffers per-client offline
// queues with reconnect replay. Grounded on the teacher's
// pkg/events/manager.go (ConnectionManager/Connection lifecycle,
// sendJSON write-deadline pattern) and pkg/api/server.go/handler_ws.go
// (echo route + websocket.Accept wiring), with the authenticate
// handshake added per spec §4.2/§6 — the teacher instead delegates auth
// to an external oauth2-proxy and has no in-process handshake.
package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/swe-orchestrator/orchestrator/pkg/bus"
	"github.com/swe-orchestrator/orchestrator/pkg/config"
	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadLimit    = 1 << 20
)

// Server accepts WebSocket connections, authenticates them, and fans out
// messages published on the bus (spec §4.2). One process runs one Server.
type Server struct {
	cfg    config.StreamingConfig
	bus    *bus.Bus
	logger *slog.Logger

	echo       *echo.Echo
	httpServer *http.Server

	mu          sync.RWMutex
	clients     map[string]*client
	byResume    map[string]*client // resume_token -> client, retained after disconnect for replay

	stopHeartbeat chan struct{}
	stopOnce      sync.Once
}

// New builds a Server bound to bus b, reading endpoint/limits from cfg.
func New(cfg config.StreamingConfig, b *bus.Bus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:           cfg,
		bus:           b,
		logger:        logger.With("component", "streaming"),
		clients:       make(map[string]*client),
		byResume:      make(map[string]*client),
		stopHeartbeat: make(chan struct{}),
	}
	s.echo = echo.New()
	s.echo.GET("/ws", s.wsHandler)
	s.echo.GET("/health", s.healthHandler)
	return s
}

// Start opens the listening socket, writes the connection-descriptor
// file, launches background activities, and serves until Stop is called
// or ctx is cancelled (spec §4.2 "Lifecycle").
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("streaming: listen: %w", err)
	}
	addr := ln.Addr().(*net.TCPAddr)

	if s.cfg.ConnectionDescriptorPath != "" {
		if err := writeDescriptor(s.cfg.ConnectionDescriptorPath, s.cfg.Host, addr.Port, s.authToken()); err != nil {
			_ = ln.Close()
			return fmt.Errorf("streaming: write descriptor: %w", err)
		}
	}

	s.bus.RegisterHandlerAll(s.broadcast)
	go s.heartbeatLoop()

	s.httpServer = &http.Server{Handler: s.echo}
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop cancels background activities, closes every client socket, shuts
// down the listener, and deletes the descriptor file (spec §4.2).
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopHeartbeat)

		s.mu.Lock()
		clients := make([]*client, 0, len(s.clients))
		for _, c := range s.clients {
			clients = append(clients, c)
		}
		s.clients = make(map[string]*client)
		s.byResume = make(map[string]*client)
		s.mu.Unlock()

		for _, c := range clients {
			c.close()
		}

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
		if derr := removeDescriptor(s.cfg.ConnectionDescriptorPath); derr != nil && err == nil {
			err = derr
		}
	})
	return err
}

func (s *Server) authToken() string {
	return os.Getenv(s.cfg.AuthTokenEnv)
}

func (s *Server) healthHandler(c *echo.Context) error {
	s.mu.RLock()
	n := len(s.clients)
	s.mu.RUnlock()
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "clients": n})
}

// wsHandler upgrades the HTTP connection and delegates to the connection
// lifecycle loop. Blocks until the connection closes.
func (s *Server) wsHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: len(s.cfg.AllowedOrigins) == 0,
		OriginPatterns:     s.cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}
	conn.SetReadLimit(s.readLimit())
	s.handleConnection(c.Request().Context(), conn)
	return nil
}

func (s *Server) readLimit() int64 {
	if s.cfg.MaxMessageBytes > 0 {
		return int64(s.cfg.MaxMessageBytes)
	}
	return defaultReadLimit
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.HeartbeatInterval > 0 {
		return s.cfg.HeartbeatInterval
	}
	return defaultWriteTimeout
}

// handleConnection drives the per-client lifecycle: authenticate, then
// read frames until the socket closes (spec §4.2 "Handshake").
func (s *Server) handleConnection(parentCtx context.Context, conn *websocket.Conn) {
	id := uuid.New().String()
	cc := clientConfig{
		rateLimitPerSecond: int(s.cfg.RateLimitPerSecond),
		maxQueueSize:       s.cfg.MaxQueueSize,
		batchWindow:        s.cfg.BatchWindow,
		writeTimeout:       s.writeTimeout(),
	}
	c := newClient(id, conn, parentCtx, cc, s.logger)
	defer s.disconnect(c)

	if !s.authenticate(c) {
		return
	}

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			return
		}
		s.handleInboundFrame(c, data)
	}
}

// authenticate blocks on the first frame, requiring it be an authenticate
// message with a matching token (spec §4.2/§6). Any other message before
// success is rejected; on failure the socket is closed with policy
// violation 1008.
func (s *Server) authenticate(c *client) bool {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return false
	}

	var frame struct {
		Type    message.Kind    `json:"type"`
		Content message.Content `json:"content"`
	}
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != message.KindAuthenticate {
		_ = c.conn.Close(websocket.StatusPolicyViolation, "Authentication failed")
		return false
	}

	token, _ := frame.Content["token"].(string)
	if token == "" || token != s.authToken() {
		_ = c.conn.Close(websocket.StatusPolicyViolation, "Authentication failed")
		return false
	}

	resumeToken, _ := frame.Content["resume_token"].(string)
	c.authenticated = true
	s.register(c, resumeToken)

	if err := c.sendRaw(message.KindConnectionEstablished, message.Content{
		"connection_id": c.id,
		"resume_token":  c.resumeToken,
	}); err != nil {
		return false
	}

	c.replayOffline()
	return true
}

// register adds c to the live client set, associating it with a prior
// offline queue if resumeToken matches one (spec §4.2 "Reconnect
// replay"). A client presenting no token, or an unknown one, gets a
// freshly minted token.
func (s *Server) register(c *client, resumeToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byResume[resumeToken]; resumeToken != "" && ok {
		c.offline = prior.offline
		c.resumeToken = resumeToken
	} else {
		c.resumeToken = uuid.New().String()
	}

	s.clients[c.id] = c
	s.byResume[c.resumeToken] = c
}

func (s *Server) disconnect(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()
}

// handleInboundFrame validates size and schema for a post-handshake
// client frame and republishes it on the bus (spec §4.2 "Message size
// cap"). Heartbeat liveness is handled at the protocol level by
// heartbeat.go's ping/pong, not here.
func (s *Server) handleInboundFrame(c *client, data []byte) {
	if s.cfg.MaxMessageBytes > 0 && len(data) > s.cfg.MaxMessageBytes {
		_ = c.sendRaw(message.KindErrorNotification, message.Content{"message": "frame exceeds maximum size"})
		return
	}

	msg, err := message.FromWire(data)
	if err != nil {
		_ = c.sendRaw(message.KindErrorNotification, message.Content{"message": "malformed frame"})
		return
	}

	if _, err := message.Construct(msg.Kind, msg.Content); err != nil {
		_ = c.sendRaw(message.KindErrorNotification, message.Content{"message": err.Error()})
		return
	}

	s.bus.Publish(msg)
}

// broadcast is the bus handler registered for every published kind
// (spec §4.2 "Fan-out"): deliver to every authenticated client.
func (s *Server) broadcast(msg *message.Message) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		if c.authenticated {
			clients = append(clients, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.deliver(msg)
	}
}

// ActiveConnections returns the number of currently registered clients.
func (s *Server) ActiveConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
