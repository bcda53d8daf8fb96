package message

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruct_ValidContent(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		c    Content
	}{
		{"terminal_output", KindTerminalOutput, Content{"text": "hello"}},
		{"approval_request", KindApprovalRequest, Content{"text": "ok?", "options": []any{"yes", "no"}, "request_id": "r1"}},
		{"progress_indicator", KindProgressIndicator, Content{"title": "building", "percentage": 50}},
		{"workflow_status", KindWorkflowStatus, Content{"status": StatusRunning}},
		{"stream_start", KindStreamStart, Content{"stream_id": "s1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Construct(tt.kind, tt.c)
			require.NoError(t, err)
			assert.NotEmpty(t, m.ID)
			assert.False(t, m.Timestamp.IsZero())
			assert.Equal(t, tt.kind, m.Kind)
		})
	}
}

func TestConstruct_InvalidContentFailsBeforeIO(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		c    Content
	}{
		{"missing text", KindTerminalOutput, Content{}},
		{"missing options", KindApprovalRequest, Content{"text": "x", "request_id": "r1"}},
		{"bad status enum", KindWorkflowStatus, Content{"status": "bogus"}},
		{"missing stream id", KindStreamStart, Content{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Construct(tt.kind, tt.c)
			assert.Nil(t, m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidMessage))
		})
	}
}

func TestConstruct_UnknownKind(t *testing.T) {
	_, err := Construct(Kind("nonexistent"), Content{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestWireRoundTrip(t *testing.T) {
	m, err := Construct(KindTerminalOutput, Content{"text": "hi"})
	require.NoError(t, err)

	data, err := m.ToWire()
	require.NoError(t, err)

	got, err := FromWire(data)
	require.NoError(t, err)

	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Kind, got.Kind)
	assert.Equal(t, m.Content["text"], got.Content["text"])
	assert.WithinDuration(t, m.Timestamp, got.Timestamp, 0)
}

func TestRegisterValidator_ExtendsRegistry(t *testing.T) {
	custom := Kind("custom_kind_for_test")
	RegisterValidator(custom, func(c Content) error {
		if _, ok := c["foo"]; !ok {
			return errors.New("missing foo")
		}
		return nil
	})

	_, err := Construct(custom, Content{})
	require.Error(t, err)

	m, err := Construct(custom, Content{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, custom, m.Kind)
}
