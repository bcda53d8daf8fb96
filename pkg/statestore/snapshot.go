package statestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

// Snapshot is one (task_id, phase) state capture. On disk it is a single
// flat JSON object: the meta fields below sit alongside the phase-specific
// fields contributed by Payload.ToMap, not nested under a "payload" key
// (spec §4.3/§6).
type Snapshot struct {
	StateVersion int
	TaskID       string
	Phase        Phase
	Timestamp    time.Time
	Payload      Payload
}

// MarshalJSON flattens the meta fields and the payload's fields into one
// top-level object.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"state_version": s.StateVersion,
		"task_id":       s.TaskID,
		"phase":         string(s.Phase),
		"timestamp":     s.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if s.Payload != nil {
		for k, v := range s.Payload.ToMap() {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// ErrUnknownPhase is returned when a snapshot names a phase with no
// registered payload constructor.
type ErrUnknownPhase struct {
	Phase Phase
}

func (e *ErrUnknownPhase) Error() string {
	return fmt.Sprintf("statestore: unknown phase %q", e.Phase)
}

// ParseSnapshot decodes a flat JSON snapshot, dispatching the remaining
// fields to the phase's payload constructor.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return snapshotFromFields(fields)
}

func snapshotFromFields(fields map[string]any) (*Snapshot, error) {
	phase := Phase(str(fields, "phase"))
	ctor, ok := phaseConstructors[phase]
	if !ok {
		return nil, &ErrUnknownPhase{Phase: phase}
	}

	ts := time.Now().UTC()
	if raw := str(fields, "timestamp"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			ts = parsed
		}
	}

	version := config.CurrentStateVersion
	if v, ok := fields["state_version"]; ok {
		version = intOf(map[string]any{"v": v}, "v")
	}

	return &Snapshot{
		StateVersion: version,
		TaskID:       str(fields, "task_id"),
		Phase:        phase,
		Timestamp:    ts,
		Payload:      ctor(fields),
	}, nil
}
