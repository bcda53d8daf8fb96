package statestore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

func TestSnapshot_MarshalIsFlatNotNested(t *testing.T) {
	snap := Snapshot{
		StateVersion: config.CurrentStateVersion,
		TaskID:       "t1",
		Phase:        PhaseExecution,
		Timestamp:    time.Now(),
		Payload: ExecutionPayload{
			Iteration: 2,
			SubState:  SubStateRunningTests,
		},
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	_, hasPayloadKey := fields["payload"]
	assert.False(t, hasPayloadKey, "snapshot must not nest phase fields under a payload key")
	assert.Equal(t, "running_tests", fields["sub_state"])
	assert.Equal(t, "t1", fields["task_id"])
}

func TestParseSnapshot_RoundTripsEveryPhase(t *testing.T) {
	cases := []struct {
		phase   Phase
		payload Payload
	}{
		{PhasePlanning, PlanningPayload{RequestText: "x"}},
		{PhasePromptApproval, PromptApprovalPayload{IsApproved: true}},
		{PhaseIssueCreation, IssueCreationPayload{Title: "t", IsCreated: true}},
		{PhaseCodeGeneration, CodeGenerationPayload{CurrentIteration: 3}},
		{PhaseExecution, ExecutionPayload{SubState: SubStateApplyingChanges}},
		{PhasePRCreation, PRCreationPayload{SubState: PRSubStateCommitting, BaseBranch: "main"}},
	}

	for _, tc := range cases {
		t.Run(string(tc.phase), func(t *testing.T) {
			snap := Snapshot{
				StateVersion: config.CurrentStateVersion,
				TaskID:       "rt",
				Phase:        tc.phase,
				Timestamp:    time.Now(),
				Payload:      tc.payload,
			}
			data, err := json.Marshal(snap)
			require.NoError(t, err)

			parsed, err := ParseSnapshot(data)
			require.NoError(t, err)
			assert.Equal(t, tc.phase, parsed.Phase)
			assert.Equal(t, "rt", parsed.TaskID)
		})
	}
}

func TestParseSnapshot_UnknownPhaseErrors(t *testing.T) {
	_, err := ParseSnapshot([]byte(`{"task_id":"t1","phase":"not_a_real_phase"}`))
	require.Error(t, err)
	var unknownPhase *ErrUnknownPhase
	assert.ErrorAs(t, err, &unknownPhase)
}
