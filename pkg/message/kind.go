package message

// Kind identifies the shape of a Message's Content and selects the
// required-field validator applied at construction (spec §3/§4.1, §6).
type Kind string

// The closed enumeration of message kinds (spec §6 wire table, plus the
// handshake/control kinds §4.2 needs).
const (
	KindTerminalOutput      Kind = "terminal_output"
	KindApprovalRequest     Kind = "approval_request"
	KindDiffDisplay         Kind = "diff_display"
	KindInteractiveDiff     Kind = "interactive_diff"
	KindInteractiveApproval Kind = "interactive_approval"
	KindProgressIndicator   Kind = "progress_indicator"
	KindProgressResponse    Kind = "progress_response"
	KindWorkflowControl     Kind = "workflow_control"
	KindWorkflowStatus      Kind = "workflow_status"
	KindCommand             Kind = "command"
	KindCommandResult       Kind = "command_result"
	KindStreamStart         Kind = "stream_start"
	KindStreamContent       Kind = "stream_content"
	KindStreamEnd           Kind = "stream_end"
	KindStreamInteractive   Kind = "stream_interactive"

	// Transport-level kinds (spec §4.2/§6): not published on the bus by
	// orchestrator components, but constructed/validated the same way by
	// the streaming server.
	KindAuthenticate          Kind = "authenticate"
	KindConnectionEstablished Kind = "connection_established"
	KindErrorNotification     Kind = "error_notification"
	KindBatch                 Kind = "batch"
)

// ProgressResponseAction enumerates the allowed progress_response.action values.
const (
	ActionCancel  = "cancel"
	ActionPause   = "pause"
	ActionResume  = "resume"
	ActionStop    = "stop"
)

// WorkflowControlAction enumerates the allowed workflow_control.action values.
const (
	ControlActionPause  = "pause"
	ControlActionResume = "resume"
	ControlActionStop   = "stop"
	ControlActionCancel = "cancel"
)

// WorkflowStatus enumerates the allowed workflow_status.status values.
const (
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusStopped   = "stopped"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
