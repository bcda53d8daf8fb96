package message

import "fmt"

// Content is the typed-variant payload carried by a Message. It is kept as
// a generic map rather than one struct per Kind so that new kinds can be
// registered (spec §9 "schema registry") without touching Message itself.
// Each kind's shape is enforced at runtime by its required-field
// validator when Construct is called.
type Content map[string]any

// Validator checks that a Content value satisfies a Kind's schema. Returns
// a descriptive error identifying the missing/invalid field; Construct
// wraps it in ErrInvalidMessage.
type Validator func(c Content) error

// registry maps Kind to its required-field validator. Populated by init()
// below — see spec §6's "Required content fields" table. There is no
// JSON-schema library anywhere in the retrieved pack (every example either
// hand-checks required fields or, for wire types shared with an ORM,
// relies on generated structs); these hand-written checks are the
// idiomatic stand-in.
var registry = map[Kind]Validator{}

func init() {
	registry[KindTerminalOutput] = requireFields("text")
	registry[KindApprovalRequest] = requireFields("text", "options", "request_id")
	registry[KindDiffDisplay] = requireFields("text", "files", "request_id")
	registry[KindInteractiveDiff] = requireFields("files", "summary", "request_id")
	registry[KindInteractiveApproval] = requireFields("title", "description", "options", "request_id")
	registry[KindProgressIndicator] = requireFields("title", "percentage")
	registry[KindProgressResponse] = validateEnumField("action",
		ActionCancel, ActionPause, ActionResume, ActionStop)
	registry[KindWorkflowControl] = validateEnumField("action",
		ControlActionPause, ControlActionResume, ControlActionStop, ControlActionCancel)
	registry[KindWorkflowStatus] = validateEnumField("status",
		StatusRunning, StatusPaused, StatusStopped, StatusCompleted, StatusFailed)
	registry[KindCommand] = requireFields("command")
	registry[KindCommandResult] = requireFields("success")
	registry[KindStreamStart] = requireFields("stream_id")
	registry[KindStreamContent] = requireFields("stream_id")
	registry[KindStreamEnd] = requireFields("stream_id")
	registry[KindStreamInteractive] = requireFields("stream_id")
	registry[KindAuthenticate] = requireFields("token")
	registry[KindConnectionEstablished] = func(Content) error { return nil }
	registry[KindErrorNotification] = requireFields("message")
	registry[KindBatch] = requireFields("messages")
}

// RegisterValidator adds or replaces the validator for a kind. Exported so
// collaborators embedding this package can extend the schema registry
// (spec §9: "retain a schema registry so new kinds can be added without
// touching existing code").
func RegisterValidator(k Kind, v Validator) {
	registry[k] = v
}

func validate(k Kind, c Content) error {
	v, ok := registry[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	return v(c)
}

// requireFields builds a Validator that rejects Content missing any of the
// named top-level keys, or where the value is the zero value for its type
// (empty string, nil, zero-length slice/map).
func requireFields(fields ...string) Validator {
	return func(c Content) error {
		for _, f := range fields {
			v, ok := c[f]
			if !ok || isZero(v) {
				return fmt.Errorf("missing required field %q", f)
			}
		}
		return nil
	}
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// validateEnumField builds a Validator requiring field to be present and
// equal to one of allowed.
func validateEnumField(field string, allowed ...string) Validator {
	return func(c Content) error {
		v, ok := c[field]
		if !ok {
			return fmt.Errorf("missing required field %q", field)
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string", field)
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("field %q has invalid value %q", field, s)
	}
}
