// Package orchestrator implements the Workflow Orchestrator (spec C7):
// the finite-state machine, cooperative pause/stop control gate, and
// phase execution loop (planning -> implementation -> finalization)
// that drives a single task from request text to a pull request.
// Grounded on the teacher's pkg/agent/orchestrator/runner.go (cooperative
// cancellation via a context derived once from the parent, not
// re-derived per iteration) and pkg/queue/worker.go (claim -> publish
// status -> execute -> publish terminal event, the direct model for the
// phase loop here), with error categorization adapted from
// pkg/mcp/recovery.go's ClassifyError decision tree.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/swe-orchestrator/orchestrator/pkg/applicator"
	"github.com/swe-orchestrator/orchestrator/pkg/bus"
	"github.com/swe-orchestrator/orchestrator/pkg/collab"
	"github.com/swe-orchestrator/orchestrator/pkg/config"
	"github.com/swe-orchestrator/orchestrator/pkg/message"
	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
	"github.com/swe-orchestrator/orchestrator/pkg/validationpipe"
)

// Engine drives one task through the planning, implementation, and
// finalization phases (spec §4.5). One Engine instance runs one task at a
// time (spec §1 Non-goals: "not a general-purpose scheduler over many
// tasks").
type Engine struct {
	TaskID string

	planner     collab.Planner
	generator   collab.CodeGenerator
	moderator   collab.Moderator
	context     collab.ContextProvider
	vcs         collab.VCSTool
	applicator  *applicator.Applicator
	validator   *validationpipe.Pipeline
	store       *statestore.Store
	bus         *bus.Bus
	retryCfg    config.RetryConfig
	maxAttempts int

	fsm    *fsm
	gate   *controlGate
	logger *slog.Logger
}

// Deps bundles every collaborator and infrastructure component an Engine
// needs; passed to New so call sites don't juggle a long parameter list.
type Deps struct {
	Planner     collab.Planner
	Generator   collab.CodeGenerator
	Moderator   collab.Moderator
	Context     collab.ContextProvider
	VCS         collab.VCSTool
	Applicator  *applicator.Applicator
	Validator   *validationpipe.Pipeline
	Store       *statestore.Store
	Bus         *bus.Bus
	RetryConfig config.RetryConfig
}

// New creates an Engine for taskID, wired to deps. It also subscribes the
// engine's HandleControl to workflow_control messages on the bus.
func New(taskID string, deps Deps) *Engine {
	e := &Engine{
		TaskID:      taskID,
		planner:     deps.Planner,
		generator:   deps.Generator,
		moderator:   deps.Moderator,
		context:     deps.Context,
		vcs:         deps.VCS,
		applicator:  deps.Applicator,
		validator:   deps.Validator,
		store:       deps.Store,
		bus:         deps.Bus,
		retryCfg:    deps.RetryConfig,
		maxAttempts: deps.RetryConfig.MaxAttempts,
		fsm:         newFSM(),
		gate:        newControlGate(),
		logger:      slog.Default().With("component", "orchestrator", "task_id", taskID),
	}
	if e.bus != nil {
		e.bus.RegisterHandler(message.KindWorkflowControl, e.HandleControl)
	}
	return e
}

// Run executes the full phase chain for a new task described by taskText.
func (e *Engine) Run(ctx context.Context, taskText string) error {
	if err := e.fsm.transition(StateRunning, string(statestore.PhasePlanning)); err != nil {
		return err
	}
	e.publishStatus()

	plan, err := e.runPlanning(ctx, taskText)
	if err != nil {
		return e.fail(err)
	}
	if plan == nil {
		// User declined the plan; end as stopped (spec §4.5 step 1 "on no, end as stopped").
		if err := e.fsm.transition(StateStopped, string(statestore.PhasePlanning)); err != nil {
			return err
		}
		e.publishStatus()
		return nil
	}

	changes, err := e.runImplementation(ctx, plan)
	if err != nil {
		return e.fail(err)
	}

	if err := e.runFinalization(ctx, plan, changes); err != nil {
		return e.fail(err)
	}

	if err := e.fsm.transition(StateCompleted, string(statestore.PhasePRCreation)); err != nil {
		return err
	}
	e.publishStatus()
	_ = e.store.ClearState(e.TaskID)
	return nil
}

func (e *Engine) fail(cause error) error {
	e.logger.Error("task failed", "error", cause)
	_ = e.fsm.transition(StateFailed, currentPhase(e.fsm))
	e.publishStatus()
	return cause
}

// checkGate polls the control gate at a phase boundary or before an
// external call; returns ErrStopped if the task should stop now.
func (e *Engine) checkGate(ctx context.Context) error {
	if e.gate.Check(ctx) {
		return ErrStopped
	}
	return nil
}

// ErrStopped is returned when a cooperative stop was observed at a gate.
var ErrStopped = fmt.Errorf("orchestrator: stopped at control gate")
