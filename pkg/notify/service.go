package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/message"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// Service handles Slack notification delivery for terminal workflow status.
// Nil-safe: all methods are no-ops when the service is nil, so callers can
// always hold a *Service field without branching on whether Slack is
// configured.
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "notify-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "notify-service"),
	}
}

// NotifyTerminal sends a terminal workflow_status notification.
// Fail-open: errors are logged, never returned — a Slack outage must never
// affect the orchestrator's own state transitions.
func (s *Service) NotifyTerminal(ctx context.Context, input TaskCompletedInput) {
	if s == nil {
		return
	}
	input.DashboardURL = s.dashboardURL
	blocks := BuildTerminalMessage(input)
	if err := s.client.PostMessage(ctx, blocks, 10*time.Second); err != nil {
		s.logger.Error("failed to send terminal notification",
			"task_id", input.TaskID,
			"status", input.Status,
			"error", err)
	}
}

var terminalStatuses = map[string]bool{
	message.StatusCompleted: true,
	message.StatusFailed:    true,
	message.StatusStopped:   true,
}

// Handle is a bus.HandlerFunc: it watches for workflow_status messages in
// a terminal state and fires a Slack notification for them, ignoring
// every other kind and every non-terminal status. Register with
// bus.Bus.RegisterHandlerAll.
func (s *Service) Handle(msg *message.Message) {
	if s == nil || msg.Kind != message.KindWorkflowStatus {
		return
	}
	status, _ := msg.Content["status"].(string)
	if !terminalStatuses[status] {
		return
	}
	taskID, _ := msg.Content["task_id"].(string)
	text, _ := msg.Content["message"].(string)

	s.NotifyTerminal(context.Background(), TaskCompletedInput{
		TaskID:  taskID,
		Status:  status,
		Message: text,
	})
}
