// Package statestore implements the filesystem-backed, versioned snapshot
// store (spec C5/§4.3): one JSON file per (task_id, phase), written with
// a tmp-file-then-rename atomic swap, with corruption recovery and
// age-based eviction. It is grounded on original_source's
// TaskStateManager (agent_s3/task_state_manager.py), translated from
// Python's reflection-over-dicts payload loading into an explicit
// phase→constructor map (spec §9), and on the teacher's own
// tmp-file+os.Rename idiom for atomic persistence.
package statestore

// Phase is a workflow stage in the strict order spec §3 defines.
type Phase string

// The six snapshot-bearing phases, in their strict run order.
const (
	PhasePlanning        Phase = "planning"
	PhasePromptApproval  Phase = "prompt_approval"
	PhaseIssueCreation   Phase = "issue_creation"
	PhaseCodeGeneration  Phase = "code_generation"
	PhaseExecution       Phase = "execution"
	PhasePRCreation      Phase = "pr_creation"
)

// PhaseOrder is the strict order snapshot phases occur in, used by
// recovery's "fall back to previous phase" strategy (spec §4.3).
var PhaseOrder = []Phase{
	PhasePlanning,
	PhasePromptApproval,
	PhaseIssueCreation,
	PhaseCodeGeneration,
	PhaseExecution,
	PhasePRCreation,
}

// PreviousPhase returns the phase immediately before p in PhaseOrder, and
// false if p is first or unknown.
func PreviousPhase(p Phase) (Phase, bool) {
	for i, ph := range PhaseOrder {
		if ph == p {
			if i == 0 {
				return "", false
			}
			return PhaseOrder[i-1], true
		}
	}
	return "", false
}

// ExecutionSubState is the fine-grained resumption marker inside the
// execution phase (spec §3 "Sub-state").
type ExecutionSubState string

const (
	SubStatePreparing        ExecutionSubState = "preparing"
	SubStateApplyingChanges  ExecutionSubState = "applying_changes"
	SubStateRunningTests     ExecutionSubState = "running_tests"
	SubStateAnalyzingResults ExecutionSubState = "analyzing_results"
)

// PRSubState is the fine-grained resumption marker inside the pr_creation
// phase.
type PRSubState string

const (
	PRSubStatePreparing            PRSubState = "preparing"
	PRSubStateCreatingBranch       PRSubState = "creating_branch"
	PRSubStateCommitting           PRSubState = "committing"
	PRSubStatePushing              PRSubState = "pushing"
	PRSubStateCreatingAPIRequest   PRSubState = "creating_api_request"
)
