package audit

import (
	"encoding/json"
	"time"
)

// Record is one audited message row.
type Record struct {
	ID         string
	TaskID     string
	Kind       string
	Content    json.RawMessage
	OccurredAt time.Time
}

func taskIDOf(content map[string]any) string {
	if v, ok := content["task_id"].(string); ok {
		return v
	}
	return ""
}
