package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/masking"
	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

const auditWriteTimeout = 3 * time.Second

// Service persists every message it is handed to a Store, never failing
// the publisher. Each write runs synchronously on the publisher's
// goroutine and is bounded by auditWriteTimeout. Construct once at
// startup and register Handle with bus.Bus.RegisterHandlerAll.
type Service struct {
	store  *Store
	mask   *masking.Service
	logger *slog.Logger
}

// NewService wires store (and an optional masker, nil disables masking)
// into a Service ready to register on a bus.
func NewService(store *Store, mask *masking.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, mask: mask, logger: logger.With("component", "audit")}
}

// Handle is a bus.HandlerFunc: it persists msg best-effort, logging and
// swallowing any failure so the audit log can never affect fan-out or
// orchestration (spec-adjacent domain-stack enrichment, not on the
// critical path).
func (s *Service) Handle(msg *message.Message) {
	if s == nil || s.store == nil {
		return
	}

	data, err := json.Marshal(msg.Content)
	if err != nil {
		s.logger.Error("failed to marshal message content for audit", "error", err, "kind", msg.Kind)
		return
	}
	if s.mask != nil {
		data = []byte(s.mask.Mask(string(data)))
	}

	rec := Record{
		ID:         msg.ID,
		TaskID:     taskIDOf(msg.Content),
		Kind:       string(msg.Kind),
		Content:    data,
		OccurredAt: msg.Timestamp,
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := s.store.Record(ctx, rec); err != nil {
		s.logger.Error("failed to persist audit record", "error", err, "kind", msg.Kind, "message_id", msg.ID)
	}
}
