package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var statusEmoji = map[string]string{
	"completed": ":white_check_mark:",
	"failed":    ":x:",
	"stopped":   ":no_entry_sign:",
}

var statusLabel = map[string]string{
	"completed": "Workflow Complete",
	"failed":    "Workflow Failed",
	"stopped":   "Workflow Stopped",
}

// TaskCompletedInput describes a terminal workflow_status transition.
type TaskCompletedInput struct {
	TaskID       string
	Status       string // completed, failed, stopped
	Message      string
	DashboardURL string
}

// BuildTerminalMessage creates Block Kit blocks for a terminal status notification.
func BuildTerminalMessage(input TaskCompletedInput) []goslack.Block {
	emoji := statusEmoji[input.Status]
	if emoji == "" {
		emoji = ":question:"
	}
	label := statusLabel[input.Status]
	if label == "" {
		label = "Workflow " + input.Status
	}

	headerText := fmt.Sprintf("%s *%s* — task `%s`", emoji, label, input.TaskID)
	if input.Message != "" {
		headerText += fmt.Sprintf("\n\n%s", truncateForSlack(input.Message))
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		),
	}

	if input.DashboardURL != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Details", false, false))
		btn.URL = fmt.Sprintf("%s/tasks/%s", input.DashboardURL, input.TaskID)
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}

	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated)_"
}
