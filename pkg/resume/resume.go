// Package resume implements the Resumer (spec C6): detecting interrupted
// tasks and deciding where in the phase/sub-state chain to re-enter the
// orchestrator. Grounded almost verbatim in control flow on
// original_source/agent_s3/task_resumer.py's TaskResumer
// (check_for_interrupted_tasks, auto_resume_interrupted_task,
// resume_task and its five _resume_<phase>_phase helpers), translated
// from Python's getattr-on-task_state duck typing into Go's
// phase -> handler dispatch table (spec §9).
package resume

import (
	"fmt"

	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
)

// Decision is where execution should resume: either restart a phase from
// scratch (Restart=true) or continue from a specific sub-state within it.
type Decision struct {
	TaskID       string
	Phase        statestore.Phase
	Restart      bool
	SubState     string
	Snapshot     *statestore.Snapshot
	Reason       string
}

// Resumer inspects the state store to find and classify interrupted
// tasks.
type Resumer struct {
	store *statestore.Store
}

// New creates a Resumer backed by store.
func New(store *statestore.Store) *Resumer {
	return &Resumer{store: store}
}

// ListInterrupted returns every task with a snapshot on disk, newest
// first (spec §4.4: enumerate interrupted tasks for the operator to
// choose from).
func (r *Resumer) ListInterrupted() ([]statestore.ActiveTask, error) {
	return r.store.ListActiveTasks()
}

// AutoResume picks the most recently updated interrupted task and
// classifies it, without any further selection (spec §4.4
// "auto_resume"). Returns (nil, nil) if there is nothing to resume.
func (r *Resumer) AutoResume() (*Decision, error) {
	tasks, err := r.store.ListActiveTasks()
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return r.Resume(tasks[0].TaskID, tasks[0].Phase)
}

// Resume loads the snapshot for (taskID, phase), recovering from
// corruption if necessary, and classifies it into a Decision describing
// where the orchestrator should re-enter (spec §4.4).
func (r *Resumer) Resume(taskID string, phase statestore.Phase) (*Decision, error) {
	snap, err := r.store.Load(taskID, phase)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap, err = r.store.Recover(taskID, phase)
		if err != nil {
			return nil, err
		}
	}
	if snap == nil {
		return nil, fmt.Errorf("resume: cannot load or recover state for task %s, phase %s", taskID, phase)
	}

	handler, ok := dispatch[snap.Phase]
	if !ok {
		return &Decision{TaskID: taskID, Phase: snap.Phase, Restart: true, Snapshot: snap,
			Reason: fmt.Sprintf("unknown phase %q, cannot resume", snap.Phase)}, nil
	}
	return handler(snap), nil
}

type phaseHandler func(snap *statestore.Snapshot) *Decision

var dispatch = map[statestore.Phase]phaseHandler{
	statestore.PhasePlanning:       resumePlanning,
	statestore.PhasePromptApproval: resumePromptApproval,
	statestore.PhaseCodeGeneration: resumeCodeGeneration,
	statestore.PhaseExecution:      resumeExecution,
	statestore.PhasePRCreation:     resumePRCreation,
}
