package orchestrator

import (
	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

// publishStatus broadcasts a workflow_status message reflecting the
// FSM's current state and gate flags (spec §4.5: "Each transition
// broadcasts a workflow_status message").
func (e *Engine) publishStatus() {
	state, phase := e.fsm.current()
	canPause, canResume, canStop := e.fsm.gates()

	msg, err := message.Construct(message.KindWorkflowStatus, message.Content{
		"status":     string(state),
		"phase":      phase,
		"can_pause":  canPause,
		"can_resume": canResume,
		"can_stop":   canStop,
	})
	if err != nil {
		e.logger.Error("failed to construct workflow_status message", "error", err)
		return
	}
	e.bus.Publish(msg)
}

// HandleControl processes an inbound workflow_control message (spec §6:
// action ∈ {pause,resume,stop,cancel}). Register it on the bus for
// message.KindWorkflowControl.
func (e *Engine) HandleControl(msg *message.Message) {
	action, _ := msg.Content["action"].(string)
	switch action {
	case message.ControlActionPause:
		e.gate.Pause()
		if err := e.fsm.transition(StatePaused, currentPhase(e.fsm)); err == nil {
			e.publishStatus()
		}
	case message.ControlActionResume:
		e.gate.Resume()
		if err := e.fsm.transition(StateRunning, currentPhase(e.fsm)); err == nil {
			e.publishStatus()
		}
	case message.ControlActionStop, message.ControlActionCancel:
		e.gate.Stop()
	default:
		e.logger.Warn("unknown workflow_control action", "action", action)
	}
}

func currentPhase(f *fsm) string {
	_, phase := f.current()
	return phase
}
