package resume

import (
	"fmt"

	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
)

// resumePlanning mirrors _resume_planning_phase: if a plan already
// exists, jump straight to prompt approval instead of re-planning from
// scratch.
func resumePlanning(snap *statestore.Snapshot) *Decision {
	payload := snap.Payload.(statestore.PlanningPayload)
	if len(payload.Plan) > 0 {
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhasePromptApproval, Restart: false, Snapshot: snap,
			Reason: "existing plan found, resuming from prompt approval",
		}
	}
	return &Decision{
		TaskID: snap.TaskID, Phase: statestore.PhasePlanning, Restart: true, Snapshot: snap,
		Reason: "no existing plan, restarting planning",
	}
}

// resumePromptApproval mirrors _resume_prompt_approval_phase: an already
// approved prompt moves straight to code generation.
func resumePromptApproval(snap *statestore.Snapshot) *Decision {
	payload := snap.Payload.(statestore.PromptApprovalPayload)
	if payload.IsApproved {
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhaseCodeGeneration, Restart: false, Snapshot: snap,
			Reason: "prompt already approved, resuming from code generation",
		}
	}
	return &Decision{
		TaskID: snap.TaskID, Phase: statestore.PhasePromptApproval, Restart: true, Snapshot: snap,
		Reason: "prompt not approved, restarting prompt approval",
	}
}

// resumeCodeGeneration mirrors _resume_code_generation_phase: existing
// generated changes move straight to execution.
func resumeCodeGeneration(snap *statestore.Snapshot) *Decision {
	payload := snap.Payload.(statestore.CodeGenerationPayload)
	if len(payload.GeneratedChanges) > 0 {
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhaseExecution, Restart: false, Snapshot: snap,
			Reason: fmt.Sprintf("found %d generated changes, resuming from execution", len(payload.GeneratedChanges)),
		}
	}
	return &Decision{
		TaskID: snap.TaskID, Phase: statestore.PhaseCodeGeneration, Restart: true, Snapshot: snap,
		Reason: "no generated changes found, restarting code generation",
	}
}

// resumeExecution mirrors _resume_execution_phase's granular sub-state
// dispatch (spec §4.4 "Sub-state").
func resumeExecution(snap *statestore.Snapshot) *Decision {
	payload := snap.Payload.(statestore.ExecutionPayload)

	if payload.IsApplied && len(payload.Errors) == 0 {
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhasePRCreation, Restart: false, Snapshot: snap,
			Reason: "execution completed successfully, ready for pr_creation",
		}
	}

	switch payload.SubState {
	case statestore.SubStateApplyingChanges, statestore.SubStateRunningTests, statestore.SubStateAnalyzingResults:
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhaseExecution, Restart: false,
			SubState: string(payload.SubState), Snapshot: snap,
			Reason: fmt.Sprintf("resuming execution from sub-state %s", payload.SubState),
		}
	default:
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhaseExecution, Restart: true, Snapshot: snap,
			Reason: "restarting execution phase from the beginning",
		}
	}
}

// resumePRCreation mirrors _resume_pr_creation_phase's granular sub-state
// dispatch.
func resumePRCreation(snap *statestore.Snapshot) *Decision {
	payload := snap.Payload.(statestore.PRCreationPayload)

	if payload.IsCreated {
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhasePRCreation, Restart: false, Snapshot: snap,
			Reason: "pull request already created, task is complete",
		}
	}

	switch payload.SubState {
	case statestore.PRSubStateCreatingBranch, statestore.PRSubStateCommitting,
		statestore.PRSubStatePushing, statestore.PRSubStateCreatingAPIRequest:
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhasePRCreation, Restart: false,
			SubState: string(payload.SubState), Snapshot: snap,
			Reason: fmt.Sprintf("resuming pr_creation from sub-state %s", payload.SubState),
		}
	default:
		return &Decision{
			TaskID: snap.TaskID, Phase: statestore.PhasePRCreation, Restart: true, Snapshot: snap,
			Reason: "restarting pr_creation from the beginning",
		}
	}
}
