package streaming

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/bus"
	"github.com/swe-orchestrator/orchestrator/pkg/config"
	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

type testServer struct {
	srv *Server
	ts  *httptest.Server
	bus *bus.Bus
}

func newTestServer(t *testing.T, cfg config.StreamingConfig) *testServer {
	t.Helper()
	os.Setenv("TEST_ORCH_AUTH_TOKEN", "correct-token")
	cfg.AuthTokenEnv = "TEST_ORCH_AUTH_TOKEN"

	b := bus.New()
	s := New(cfg, b, nil)
	s.bus.RegisterHandlerAll(s.broadcast)
	ts := httptest.NewServer(s.echo)
	t.Cleanup(ts.Close)
	return &testServer{srv: s, ts: ts, bus: b}
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(context.Background(), url, nil)
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func sendFrame(t *testing.T, conn *websocket.Conn, kind message.Kind, content map[string]any) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"type": string(kind), "content": content})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestAuthenticate_SuccessSendsConnectionEstablished(t *testing.T) {
	ts := newTestServer(t, config.StreamingConfig{RateLimitPerSecond: 100, MaxQueueSize: 10})
	conn := dial(t, ts.wsURL())
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendFrame(t, conn, message.KindAuthenticate, map[string]any{"token": "correct-token"})
	frame := readFrame(t, conn)
	assert.Equal(t, "connection_established", frame["type"])
}

func TestAuthenticate_FailureClosesWithPolicyViolation(t *testing.T) {
	ts := newTestServer(t, config.StreamingConfig{RateLimitPerSecond: 100, MaxQueueSize: 10})
	conn := dial(t, ts.wsURL())
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendFrame(t, conn, message.KindAuthenticate, map[string]any{"token": "wrong"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestBroadcast_DeliversPublishedMessageToAuthenticatedClient(t *testing.T) {
	ts := newTestServer(t, config.StreamingConfig{RateLimitPerSecond: 100, MaxQueueSize: 10})
	conn := dial(t, ts.wsURL())
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendFrame(t, conn, message.KindAuthenticate, map[string]any{"token": "correct-token"})
	readFrame(t, conn) // connection_established

	msg, err := message.Construct(message.KindTerminalOutput, message.Content{"text": "hello"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ts.srv.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)
	ts.bus.Publish(msg)

	frame := readFrame(t, conn)
	assert.Equal(t, "terminal_output", frame["type"])
	content := frame["content"].(map[string]any)
	assert.Equal(t, "hello", content["text"])
}

func TestRateLimit_DropsMessagesOverBudget(t *testing.T) {
	ts := newTestServer(t, config.StreamingConfig{RateLimitPerSecond: 2, MaxQueueSize: 10})
	conn := dial(t, ts.wsURL())
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendFrame(t, conn, message.KindAuthenticate, map[string]any{"token": "correct-token"})
	readFrame(t, conn)
	require.Eventually(t, func() bool { return ts.srv.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		msg, err := message.Construct(message.KindTerminalOutput, message.Content{"text": "x"})
		require.NoError(t, err)
		ts.bus.Publish(msg)
	}

	readFrame(t, conn)
	readFrame(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err := conn.Read(ctx)
	assert.Error(t, err)
}

func TestHandshake_RejectsNonAuthenticateFirstFrame(t *testing.T) {
	ts := newTestServer(t, config.StreamingConfig{RateLimitPerSecond: 100, MaxQueueSize: 10})
	conn := dial(t, ts.wsURL())
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendFrame(t, conn, message.KindTerminalOutput, map[string]any{"text": "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}
