package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

func textMsg(t *testing.T, text string) *message.Message {
	t.Helper()
	m, err := message.Construct(message.KindTerminalOutput, message.Content{"text": text})
	require.NoError(t, err)
	return m
}

func TestQueue_EnqueueDequeueFIFO(t *testing.T) {
	q := NewQueue(4)
	for _, s := range []string{"a", "b", "c"} {
		assert.True(t, q.Enqueue(textMsg(t, s)))
	}
	for _, want := range []string{"a", "b", "c"} {
		msg, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, msg.Content["text"])
	}
}

func TestQueue_DropsOnFullAndBoundsMaxDepth(t *testing.T) {
	q := NewQueue(2)
	assert.True(t, q.Enqueue(textMsg(t, "a")))
	assert.True(t, q.Enqueue(textMsg(t, "b")))
	assert.False(t, q.Enqueue(textMsg(t, "c")))

	m := q.Metrics()
	assert.Equal(t, uint64(2), m.Enqueued)
	assert.Equal(t, uint64(1), m.Dropped)
	assert.LessOrEqual(t, m.MaxDepth, 2)
}

func TestQueue_ClearPreservesCumulativeCounters(t *testing.T) {
	q := NewQueue(4)
	q.Enqueue(textMsg(t, "a"))
	q.Enqueue(textMsg(t, "b"))
	before := q.Metrics()

	q.Clear()
	assert.Equal(t, 0, q.Len())

	after := q.Metrics()
	assert.Equal(t, before.Enqueued, after.Enqueued)
	assert.Equal(t, before.Dropped, after.Dropped)
}

func TestQueue_DequeuedNeverExceedsEnqueuedMinusDropped(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 5; i++ {
		q.Enqueue(textMsg(t, "x"))
	}
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
	}
	m := q.Metrics()
	assert.LessOrEqual(t, m.Dequeued, m.Enqueued-m.Dropped)
}

func TestQueue_CloseUnblocksDequeue(t *testing.T) {
	q := NewQueue(2)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not unblock after Close")
	}
}
