package streaming

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/swe-orchestrator/orchestrator/pkg/bus"
	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

// client is a single connected WebSocket peer (spec §4.2). subscriptions
// are not tracked per-channel — every authenticated client receives every
// published message, filtered only by rate limit and batching.
type client struct {
	id            string
	resumeToken   string
	conn          *websocket.Conn
	ctx           context.Context
	cancel        context.CancelFunc
	authenticated bool

	limiter *rateLimiter
	offline *bus.Queue

	// batch accumulates messages within a batch window before flush.
	batchMu     sync.Mutex
	batch       []*message.Message
	batchTimer  *time.Timer
	batchWindow time.Duration

	writeTimeout time.Duration

	logger *slog.Logger
}

func newClient(id string, conn *websocket.Conn, parentCtx context.Context, cfg clientConfig, logger *slog.Logger) *client {
	ctx, cancel := context.WithCancel(parentCtx)
	return &client{
		id:           id,
		conn:         conn,
		ctx:          ctx,
		cancel:       cancel,
		limiter:      newRateLimiter(cfg.rateLimitPerSecond),
		offline:      bus.NewQueue(cfg.maxQueueSize),
		batchWindow:  cfg.batchWindow,
		writeTimeout: cfg.writeTimeout,
		logger:       logger.With("client_id", id),
	}
}

type clientConfig struct {
	rateLimitPerSecond int
	maxQueueSize       int
	batchWindow        time.Duration
	writeTimeout       time.Duration
}

// deliver attempts to send msg to the client, honoring the rate limit and
// optional batch window (spec §4.2 "Fan-out"/"Batching"). Returns false
// if the send was dropped for budget reasons.
func (c *client) deliver(msg *message.Message) bool {
	if !c.limiter.Allow() {
		return false
	}
	if c.batchWindow <= 0 {
		return c.sendNow(msg)
	}
	c.enqueueBatch(msg)
	return true
}

func (c *client) enqueueBatch(msg *message.Message) {
	c.batchMu.Lock()
	defer c.batchMu.Unlock()
	c.batch = append(c.batch, msg)
	if c.batchTimer == nil {
		c.batchTimer = time.AfterFunc(c.batchWindow, c.flushBatch)
	}
}

func (c *client) flushBatch() {
	c.batchMu.Lock()
	pending := c.batch
	c.batch = nil
	c.batchTimer = nil
	c.batchMu.Unlock()

	if len(pending) == 0 {
		return
	}
	if len(pending) == 1 {
		c.sendNow(pending[0])
		return
	}

	wireMsgs := make([]map[string]any, 0, len(pending))
	for _, m := range pending {
		wireMsgs = append(wireMsgs, map[string]any{
			"id": m.ID, "type": string(m.Kind), "content": m.Content,
			"timestamp": m.Timestamp.Format(time.RFC3339Nano),
		})
	}
	batchMsg, err := message.Construct(message.KindBatch, message.Content{"messages": wireMsgs})
	if err != nil {
		c.logger.Error("failed to construct batch envelope", "error", err)
		return
	}
	c.sendNow(batchMsg)
}

// sendNow writes msg directly to the socket, or — if the socket is
// unavailable (transient disconnect with the client record still
// present) — appends it to the offline queue bounded by max_queue_size,
// dropping on overflow (spec §4.2 "Fan-out").
func (c *client) sendNow(msg *message.Message) bool {
	data, err := msg.ToWire()
	if err != nil {
		c.logger.Error("failed to marshal outbound message", "error", err)
		return false
	}
	if c.conn == nil {
		return c.offline.Enqueue(msg)
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		c.offline.Enqueue(msg)
		return false
	}
	return true
}

// sendRaw writes a handshake/control frame built from arbitrary content,
// bypassing the rate limiter and batching (used for connection_established
// and error_notification).
func (c *client) sendRaw(kind message.Kind, content message.Content) error {
	msg, err := message.Construct(kind, content)
	if err != nil {
		return err
	}
	data, err := msg.ToWire()
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// replayOffline drains the offline queue in order before the client
// starts receiving new fan-out messages (spec §4.2 "Reconnect replay"). If
// a send fails partway, the remaining messages stay queued.
func (c *client) replayOffline() {
	for {
		msg, ok := c.offline.TryDequeue()
		if !ok {
			return
		}
		if !c.sendNow(msg) {
			return
		}
	}
}

func (c *client) close() {
	c.cancel()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
	c.offline.Close()
}
