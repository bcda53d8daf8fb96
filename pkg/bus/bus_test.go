package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

func mustMsg(t *testing.T, kind message.Kind, c message.Content) *message.Message {
	t.Helper()
	m, err := message.Construct(kind, c)
	require.NoError(t, err)
	return m
}

func TestPublish_InvokesHandlerExactlyOnce(t *testing.T) {
	b := New()
	var calls int
	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) { calls++ })

	delivered := b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))

	assert.True(t, delivered)
	assert.Equal(t, 1, calls)
}

func TestPublish_HandlersRunBeforeClients(t *testing.T) {
	b := New()
	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) { record("handler1") })
	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) { record("handler2") })
	b.SubscribeClient("client-a", message.KindTerminalOutput, func(*message.Message) { record("client") })

	b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))

	assert.Equal(t, []string{"handler1", "handler2", "client"}, order)
}

func TestPublish_HandlerPanicIsIsolated(t *testing.T) {
	b := New()
	var secondRan bool
	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) { panic("boom") })
	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) { secondRan = true })

	assert.NotPanics(t, func() {
		b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))
	})
	assert.True(t, secondRan)

	m := b.Metrics()
	assert.Equal(t, uint64(1), m.HandlerErrors)
}

func TestPublish_NoReceiversReturnsFalse(t *testing.T) {
	b := New()
	delivered := b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))
	assert.False(t, delivered)
}

func TestUnsubscribeClient_RemovesAllKinds(t *testing.T) {
	b := New()
	var calls int
	b.SubscribeClient("c1", message.KindTerminalOutput, func(*message.Message) { calls++ })
	b.SubscribeClient("c1", message.KindProgressIndicator, func(*message.Message) { calls++ })

	b.UnsubscribeClient("c1", "")

	b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))
	b.Publish(mustMsg(t, message.KindProgressIndicator, message.Content{"title": "x", "percentage": 1}))

	assert.Equal(t, 0, calls)
}

func TestMetrics_ReturnsCopy(t *testing.T) {
	b := New()
	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) {})
	for i := 0; i < 3; i++ {
		b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))
	}
	m := b.Metrics()
	assert.Equal(t, uint64(3), m.Published)
	assert.Equal(t, uint64(3), m.Handled)
}

func TestRegisterHandlerAll_InvokedForEveryKind(t *testing.T) {
	b := New()
	var kinds []message.Kind
	b.RegisterHandlerAll(func(m *message.Message) { kinds = append(kinds, m.Kind) })

	b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))
	b.Publish(mustMsg(t, message.KindProgressIndicator, message.Content{"title": "x", "percentage": 1}))

	assert.Equal(t, []message.Kind{message.KindTerminalOutput, message.KindProgressIndicator}, kinds)
}

func TestRegisterHandlerAll_RunsBeforePerKindHandlers(t *testing.T) {
	b := New()
	var order []string
	b.RegisterHandlerAll(func(*message.Message) { order = append(order, "all") })
	b.RegisterHandler(message.KindTerminalOutput, func(*message.Message) { order = append(order, "kind") })

	b.Publish(mustMsg(t, message.KindTerminalOutput, message.Content{"text": "hi"}))

	assert.Equal(t, []string{"all", "kind"}, order)
}
