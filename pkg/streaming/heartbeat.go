package streaming

import (
	"context"
	"time"
)

const defaultHeartbeatInterval = 15 * time.Second

// heartbeatLoop pings every connected client on heartbeat_interval and
// disconnects any that hasn't ponged within 2x interval (spec §4.2
// "Heartbeat"). Runs until Stop closes stopHeartbeat.
func (s *Server) heartbeatLoop() {
	interval := s.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopHeartbeat:
			return
		case <-ticker.C:
			s.pingAll(interval)
		}
	}
}

// pingAll sends a WebSocket ping to every client and disconnects any that
// fails to return the control-frame pong within 2x the heartbeat
// interval (spec §4.2 "clients failing to respond ... are disconnected").
// coder/websocket's Ping blocks for the real pong frame, so no separate
// last-seen bookkeeping is needed.
func (s *Server) pingAll(interval time.Duration) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	deadline := 2 * interval
	for _, c := range clients {
		go func(c *client) {
			pingCtx, cancel := context.WithTimeout(c.ctx, deadline)
			defer cancel()
			if err := c.conn.Ping(pingCtx); err != nil {
				s.disconnect(c)
			}
		}(c)
	}
}
