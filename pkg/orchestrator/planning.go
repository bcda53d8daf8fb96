package orchestrator

import (
	"context"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/collab"
	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
)

// runPlanning drives spec §4.5 step 1. It returns (nil, nil) if the user
// declined the plan ("no"), in which case the caller ends the task as
// stopped without treating it as an error.
func (e *Engine) runPlanning(ctx context.Context, taskText string) (collab.Plan, error) {
	if err := e.checkGate(ctx); err != nil {
		return nil, err
	}

	contextSnapshot, err := e.snapshotContext(ctx)
	if err != nil {
		return nil, wrap(err, CategoryPlanning, "orchestrator", "planning", "context_snapshot", 1)
	}

	plan, err := e.planner.Plan(ctx, taskText, contextSnapshot)
	if err != nil {
		return nil, wrap(err, CategoryPlanning, "orchestrator", "planning", "plan", 1)
	}

	discussion, _ := plan["discussion"].(string)
	if err := e.saveSnapshot(statestore.PlanningPayload{
		RequestText: taskText,
		CodeContext: contextSnapshot,
		Plan:        plan,
		Discussion:  discussion,
	}); err != nil {
		e.logger.Error("failed to save planning snapshot", "error", err)
	}

	for {
		if err := e.checkGate(ctx); err != nil {
			return nil, err
		}

		choice, modification, err := e.moderator.AskTernary(ctx, taskText, plan, discussion)
		if err != nil {
			return nil, wrap(err, CategoryCoordination, "orchestrator", "planning", "ask_ternary", 1)
		}

		switch choice {
		case collab.ChoiceYes:
			if err := e.saveSnapshot(statestore.PromptApprovalPayload{
				Plan:       plan,
				Discussion: discussion,
				IsApproved: true,
			}); err != nil {
				e.logger.Error("failed to save prompt_approval snapshot", "error", err)
			}
			return plan, nil
		case collab.ChoiceNo:
			return nil, nil
		case collab.ChoiceModify:
			plan, err = e.planner.Regenerate(ctx, plan, modification)
			if err != nil {
				return nil, wrap(err, CategoryPlanning, "orchestrator", "planning", "regenerate", 1)
			}
			discussion, _ = plan["discussion"].(string)
		default:
			return nil, nil
		}
	}
}

func (e *Engine) snapshotContext(ctx context.Context) (map[string]any, error) {
	if e.context == nil {
		return map[string]any{}, nil
	}
	return e.context.Snapshot(ctx)
}

func (e *Engine) saveSnapshot(payload statestore.Payload) error {
	if e.store == nil {
		return nil
	}
	return e.store.Save(statestore.Snapshot{
		StateVersion: 1,
		TaskID:       e.TaskID,
		Phase:        payload.Phase(),
		Timestamp:    time.Now(),
		Payload:      payload,
	})
}
