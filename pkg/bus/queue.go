package bus

import (
	"sync"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

// defaultEnqueueTimeout bounds how long Enqueue blocks against a full
// queue before reporting backpressure (spec §4.1: "blocks up to a small
// timeout").
const defaultEnqueueTimeout = 50 * time.Millisecond

// QueueMetrics is a point-in-time copy of a Queue's cumulative counters.
type QueueMetrics struct {
	Enqueued uint64
	Dequeued uint64
	Dropped  uint64
	MaxDepth int
}

// Queue is a bounded FIFO of messages with backpressure (spec C3),
// implemented as a buffered channel for storage plus a counters struct
// guarded by its own mutex. Unlike Bus, which fans out synchronously,
// Queue decouples producer and consumer rates — used as the streaming
// server's per-client offline buffer.
type Queue struct {
	items  chan *message.Message
	closed chan struct{}
	once   sync.Once

	mu       sync.Mutex
	enqueued uint64
	dequeued uint64
	dropped  uint64
	maxDepth int
}

// NewQueue creates a Queue with the given capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		items:  make(chan *message.Message, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue appends msg, blocking up to a small timeout if the queue is
// full. Returns false (and increments dropped) on timeout or if the queue
// has been closed.
func (q *Queue) Enqueue(msg *message.Message) bool {
	timer := time.NewTimer(defaultEnqueueTimeout)
	defer timer.Stop()

	select {
	case q.items <- msg:
		q.mu.Lock()
		q.enqueued++
		if depth := len(q.items); depth > q.maxDepth {
			q.maxDepth = depth
		}
		q.mu.Unlock()
		return true
	case <-q.closed:
		q.recordDrop()
		return false
	case <-timer.C:
		q.recordDrop()
		return false
	}
}

func (q *Queue) recordDrop() {
	q.mu.Lock()
	q.dropped++
	q.mu.Unlock()
}

// Dequeue blocks until a message is available, or returns (nil, false)
// once the queue is closed and fully drained.
func (q *Queue) Dequeue() (*message.Message, bool) {
	for {
		select {
		case msg, ok := <-q.items:
			if !ok {
				return nil, false
			}
			q.mu.Lock()
			q.dequeued++
			q.mu.Unlock()
			return msg, true
		case <-q.closed:
			select {
			case msg := <-q.items:
				q.mu.Lock()
				q.dequeued++
				q.mu.Unlock()
				return msg, true
			default:
				return nil, false
			}
		}
	}
}

// TryDequeue returns immediately with (nil, false) if the queue is empty.
func (q *Queue) TryDequeue() (*message.Message, bool) {
	select {
	case msg := <-q.items:
		q.mu.Lock()
		q.dequeued++
		q.mu.Unlock()
		return msg, true
	default:
		return nil, false
	}
}

// Clear drains all pending items without affecting cumulative counters
// (spec §4.1: "clear drains without affecting cumulative counters").
func (q *Queue) Clear() {
	for {
		select {
		case <-q.items:
		default:
			return
		}
	}
}

// Len returns the current depth.
func (q *Queue) Len() int {
	return len(q.items)
}

// Close marks the queue closed: a blocked Enqueue returns false, and a
// Dequeue on an empty queue returns (nil, false) instead of blocking
// forever. It is safe to call Close more than once.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.closed) })
}

// Metrics returns a copy of the cumulative counters.
func (q *Queue) Metrics() QueueMetrics {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueMetrics{
		Enqueued: q.enqueued,
		Dequeued: q.dequeued,
		Dropped:  q.dropped,
		MaxDepth: q.maxDepth,
	}
}
