package orchestrator

import (
	"context"
	"fmt"

	"github.com/swe-orchestrator/orchestrator/pkg/collab"
	"github.com/swe-orchestrator/orchestrator/pkg/statestore"
)

// runFinalization drives spec §4.5 step 3: create a branch, commit the
// accumulated changes, push, and open a pull request.
func (e *Engine) runFinalization(ctx context.Context, plan collab.Plan, _ map[string]string) error {
	e.fsm.setPhase(string(statestore.PhasePRCreation))

	if err := e.checkGate(ctx); err != nil {
		return err
	}

	branchName := fmt.Sprintf("orchestrator/%s", e.TaskID)
	title, _ := plan["title"].(string)
	if title == "" {
		title = "Automated changes"
	}
	body, _ := plan["summary"].(string)

	if err := e.saveSnapshot(statestore.PRCreationPayload{
		BranchName: branchName,
		PRTitle:    title,
		PRBody:     body,
		BaseBranch: "main",
		SubState:   statestore.PRSubStateCreatingBranch,
	}); err != nil {
		e.logger.Error("failed to save pr_creation snapshot", "error", err)
	}

	if e.vcs == nil {
		return nil
	}

	if err := e.vcs.CreateBranch(ctx, branchName, "main"); err != nil {
		return wrap(err, CategoryCoordination, "orchestrator", "pr_creation", "create_branch", 1)
	}
	if err := e.checkGate(ctx); err != nil {
		return err
	}

	if err := e.vcs.StageAll(ctx); err != nil {
		return wrap(err, CategoryCoordination, "orchestrator", "pr_creation", "stage", 1)
	}
	sha, err := e.vcs.Commit(ctx, title)
	if err != nil {
		return wrap(err, CategoryCoordination, "orchestrator", "pr_creation", "commit", 1)
	}
	if err := e.checkGate(ctx); err != nil {
		return err
	}

	if err := e.retryExternalCall(ctx, func() error {
		if pushErr := e.vcs.Push(ctx, branchName); pushErr != nil {
			return wrap(pushErr, CategoryNetwork, "orchestrator", "pr_creation", "push", 1)
		}
		return nil
	}); err != nil {
		return err
	}
	if err := e.checkGate(ctx); err != nil {
		return err
	}

	var prURL string
	if err := e.retryExternalCall(ctx, func() error {
		url, prErr := e.vcs.CreatePullRequest(ctx, branchName, title, body, "main", false)
		if prErr != nil {
			return wrap(prErr, CategoryNetwork, "orchestrator", "pr_creation", "create_pull_request", 1)
		}
		prURL = url
		return nil
	}); err != nil {
		return err
	}

	commitSHA := sha
	prURLCopy := prURL
	if err := e.saveSnapshot(statestore.PRCreationPayload{
		BranchName: branchName,
		PRTitle:    title,
		PRBody:     body,
		BaseBranch: "main",
		CommitSHA:  &commitSHA,
		PRURL:      &prURLCopy,
		IsCreated:  true,
		SubState:   statestore.PRSubStateCreatingAPIRequest,
	}); err != nil {
		e.logger.Error("failed to save final pr_creation snapshot", "error", err)
	}

	return nil
}
