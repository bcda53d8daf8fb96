package orchestrator

import (
	"context"

	"github.com/swe-orchestrator/orchestrator/pkg/collab"
	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
)

// runImplementation drives spec §4.5 step 2: up to maxAttempts rounds of
// generate -> apply -> validate, asking the moderator for debugging
// guidance and re-planning on failure.
func (e *Engine) runImplementation(ctx context.Context, plan collab.Plan) (map[string]string, error) {
	e.fsm.setPhase(string(statestore.PhaseCodeGeneration))

	techStack, err := e.techStack(ctx)
	if err != nil {
		return nil, wrap(err, CategoryPlanning, "orchestrator", "code_generation", "tech_stack", 1)
	}

	attempts := e.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastChanges map[string]string
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := e.checkGate(ctx); err != nil {
			return nil, err
		}

		changes, err := e.generator.Generate(ctx, plan, techStack)
		if err != nil {
			return nil, wrap(err, CategoryGeneration, "orchestrator", "code_generation", "generate", attempt)
		}
		lastChanges = changes

		if err := e.saveSnapshot(statestore.CodeGenerationPayload{
			Plan:             plan,
			CodeContext:      map[string]any{},
			TechStack:        techStack,
			GeneratedChanges: toChanges(changes),
			CurrentIteration: attempt,
		}); err != nil {
			e.logger.Error("failed to save code_generation snapshot", "error", err)
		}

		if err := e.checkGate(ctx); err != nil {
			return nil, err
		}

		e.fsm.setPhase(string(statestore.PhaseExecution))
		applyResult := e.applicator.Apply(ctx, changes)
		if !applyResult.Success {
			if shouldAbandon, abandonErr := e.seekGuidance(ctx, &plan, "file application failed: "+errString(applyResult.Err)); shouldAbandon {
				return nil, abandonErr
			}
			continue
		}

		validation := e.validator.Run(ctx)
		if err := e.saveSnapshot(statestore.ExecutionPayload{
			Changes:   toChanges(changes),
			Iteration: attempt,
			TestResults: map[string]any{
				"success":        validation.Success,
				"failing_step":   validation.FailingStep,
				"coverage":       validation.Coverage,
				"mutation_score": validation.MutationScore,
			},
			IsApplied: applyResult.Success,
			SubState:  statestore.SubStateAnalyzingResults,
		}); err != nil {
			e.logger.Error("failed to save execution snapshot", "error", err)
		}

		if validation.Success {
			return changes, nil
		}

		if shouldAbandon, abandonErr := e.seekGuidance(ctx, &plan, "validation failed at step "+validation.FailingStep); shouldAbandon {
			return nil, abandonErr
		}
	}

	return lastChanges, wrap(ErrMaxAttemptsExhausted, CategoryValidation, "orchestrator", "execution", "retry_loop", attempts)
}

// ErrMaxAttemptsExhausted is the cause wrapped when the implementation
// loop runs out of attempts without a passing validation run.
var ErrMaxAttemptsExhausted = errNew("orchestrator: max implementation attempts exhausted")

// seekGuidance asks the moderator for debugging guidance after a failed
// attempt; if guidance is given, the plan is regenerated in place and the
// loop continues, otherwise the caller should abandon the attempt.
func (e *Engine) seekGuidance(ctx context.Context, plan *collab.Plan, failureSummary string) (abandon bool, err error) {
	guidance, askErr := e.moderator.AskModification(ctx, failureSummary)
	if askErr != nil {
		return true, wrap(askErr, CategoryDebugging, "orchestrator", "execution", "ask_modification", 1)
	}
	if guidance == "" {
		return true, wrap(ErrImplementationAbandoned, CategoryDebugging, "orchestrator", "execution", "seek_guidance", 1)
	}

	revised, regenErr := e.planner.Regenerate(ctx, *plan, guidance)
	if regenErr != nil {
		return true, wrap(regenErr, CategoryPlanning, "orchestrator", "execution", "regenerate", 1)
	}
	*plan = revised
	return false, nil
}

// ErrImplementationAbandoned is the cause wrapped when the moderator
// offers no debugging guidance and the current plan attempt is abandoned.
var ErrImplementationAbandoned = errNew("orchestrator: plan attempt abandoned, no guidance given")

func (e *Engine) techStack(ctx context.Context) (map[string]any, error) {
	if e.context == nil {
		return map[string]any{}, nil
	}
	return e.context.TechStack(ctx)
}

func toChanges(files map[string]string) []statestore.Change {
	out := make([]statestore.Change, 0, len(files))
	for path, content := range files {
		out = append(out, statestore.Change{Path: path, Content: content})
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
