// Package bus implements the in-process publish/subscribe bus and the
// bounded message queue (spec C2/C3, §4.1). The Bus keeps two independent
// tables — process-wide handlers and per-client subscriptions — and
// snapshots both under lock before dispatch, mirroring the teacher's
// events.ConnectionManager.Broadcast pattern of copying subscriber state
// out from under the lock before doing (potentially slow) delivery work.
package bus

import (
	"log/slog"
	"sync"

	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

// HandlerFunc is a process-wide subscriber, invoked synchronously on the
// publisher's goroutine for every message of its registered kind.
type HandlerFunc func(*message.Message)

// ClientFunc is a per-client subscriber, invoked after all handlers for a
// publish of the subscribed kind.
type ClientFunc func(*message.Message)

// Metrics is a point-in-time copy of the bus's delivery counters.
type Metrics struct {
	Published     uint64
	Handled       uint64
	HandlerErrors uint64
}

type clientSub struct {
	clientID string
	fn       ClientFunc
}

// Bus is a process-local pub/sub keyed by message.Kind (spec C2).
type Bus struct {
	mu       sync.RWMutex
	handlers map[message.Kind][]HandlerFunc
	clients  map[message.Kind][]clientSub
	all      []HandlerFunc

	metricsMu sync.Mutex
	published uint64
	handled   uint64
	handlerErrors uint64

	logger *slog.Logger
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[message.Kind][]HandlerFunc),
		clients:  make(map[message.Kind][]clientSub),
		logger:   slog.Default().With("component", "bus"),
	}
}

// RegisterHandler adds a process-wide handler for kind. Handlers for the
// same kind run in registration order.
func (b *Bus) RegisterHandler(kind message.Kind, fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], fn)
}

// UnregisterHandler removes every handler registered for kind. Go funcs
// are not comparable, so a single handler cannot be removed on its own;
// handlers added with RegisterHandlerAll are not affected. The common
// path is RegisterHandler for the process lifetime and UnsubscribeClient
// for per-client cleanup.
func (b *Bus) UnregisterHandler(kind message.Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, kind)
}

// RegisterHandlerAll adds a handler invoked for every published message
// regardless of kind. This is the streaming server's fan-out hook (spec
// §4.2: "for each published message a bus handler schedules a
// broadcast") — one handler that loops over authenticated clients itself,
// rather than one per-kind subscription per client.
func (b *Bus) RegisterHandlerAll(fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
}

// SubscribeClient registers a per-client delivery callback for kind.
func (b *Bus) SubscribeClient(clientID string, kind message.Kind, fn ClientFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[kind] = append(b.clients[kind], clientSub{clientID: clientID, fn: fn})
}

// UnsubscribeClient removes client subscriptions. If kind is empty, every
// subscription owned by clientID is removed across all kinds.
func (b *Bus) UnsubscribeClient(clientID string, kind message.Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if kind != "" {
		b.removeClientFromKind(kind, clientID)
		return
	}
	for k := range b.clients {
		b.removeClientFromKind(k, clientID)
	}
}

func (b *Bus) removeClientFromKind(kind message.Kind, clientID string) {
	subs := b.clients[kind]
	filtered := subs[:0]
	for _, s := range subs {
		if s.clientID != clientID {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		delete(b.clients, kind)
	} else {
		b.clients[kind] = filtered
	}
}

// Publish delivers msg to every handler and every subscribed client for
// msg.Kind. All handlers run, in registration order, before any client
// callback (spec §4.1 ordering guarantee). Handler panics/errors are
// caught, counted, and logged — they never interrupt delivery to other
// receivers (spec §4.1, §7). Returns true iff at least one receiver ran.
func (b *Bus) Publish(msg *message.Message) bool {
	b.mu.RLock()
	handlers := append([]HandlerFunc(nil), b.handlers[msg.Kind]...)
	clients := append([]clientSub(nil), b.clients[msg.Kind]...)
	all := append([]HandlerFunc(nil), b.all...)
	b.mu.RUnlock()

	b.metricsMu.Lock()
	b.published++
	b.metricsMu.Unlock()

	delivered := false
	for _, h := range all {
		b.invokeHandler(h, msg)
		delivered = true
	}
	for _, h := range handlers {
		b.invokeHandler(h, msg)
		delivered = true
	}
	for _, c := range clients {
		b.invokeClient(c, msg)
		delivered = true
	}
	return delivered
}

func (b *Bus) invokeHandler(h HandlerFunc, msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.metricsMu.Lock()
			b.handlerErrors++
			b.metricsMu.Unlock()
			b.logger.Error("bus handler panicked", "kind", msg.Kind, "panic", r)
			return
		}
		b.metricsMu.Lock()
		b.handled++
		b.metricsMu.Unlock()
	}()
	h(msg)
}

func (b *Bus) invokeClient(c clientSub, msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.metricsMu.Lock()
			b.handlerErrors++
			b.metricsMu.Unlock()
			b.logger.Error("bus client callback panicked",
				"kind", msg.Kind, "client_id", c.clientID, "panic", r)
			return
		}
		b.metricsMu.Lock()
		b.handled++
		b.metricsMu.Unlock()
	}()
	c.fn(msg)
}

// Metrics returns a copy of the cumulative delivery counters.
func (b *Bus) Metrics() Metrics {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	return Metrics{
		Published:     b.published,
		Handled:       b.handled,
		HandlerErrors: b.handlerErrors,
	}
}
