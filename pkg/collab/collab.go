// Package collab declares the narrow interfaces the orchestrator consumes
// from its external collaborators: the LLM-backed planner and code
// generator, file/bash/VCS tool wrappers, the human moderator, and the
// context provider. None of these are implemented here — spec §1 treats
// them as out of scope, referenced only by the operations the core
// consumes from them (spec §6). Grounded on the teacher's own narrow
// tool-wrapper interfaces in pkg/agent (ToolExecutor-style single-method
// seams) and on original_source/agent_s3's Coordinator attribute access
// pattern (planner, code_generator, prompt_moderator, ...), translated
// into Go interfaces instead of duck-typed attributes.
package collab

import "context"

// Plan is an opaque structured plan produced by a Planner. The
// orchestrator never interprets its fields; it passes the value through
// to the generator, the moderator, and the state store.
type Plan map[string]any

// ModeratorChoice is the user's answer to a ternary prompt.
type ModeratorChoice string

const (
	ChoiceYes    ModeratorChoice = "yes"
	ChoiceNo     ModeratorChoice = "no"
	ChoiceModify ModeratorChoice = "modify"
)

// Planner produces and revises plans from a task description.
type Planner interface {
	Plan(ctx context.Context, task string, contextSnapshot map[string]any) (Plan, error)
	Regenerate(ctx context.Context, plan Plan, modification string) (Plan, error)
}

// CodeGenerator turns an approved plan into a set of file changes.
type CodeGenerator interface {
	Generate(ctx context.Context, plan Plan, techStack map[string]any) (map[string]string, error)
}

// FileTool reads and writes files under path-safety constraints enforced
// by the implementation (outside this package's concern).
type FileTool interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path string, content string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// BashTool runs a shell command with a timeout and returns its exit code
// and combined stdout+stderr.
type BashTool interface {
	Run(ctx context.Context, command string, timeoutSeconds int) (exitCode int, output string, err error)
}

// VCSTool wraps the git operations the PR-creation phase needs.
type VCSTool interface {
	CreateBranch(ctx context.Context, name, baseBranch string) error
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) (sha string, err error)
	Push(ctx context.Context, branch string) error
	CreatePullRequest(ctx context.Context, branch, title, body, baseBranch string, draft bool) (url string, err error)
}

// Moderator surfaces decisions to the human operator (spec §6:
// "ternary ask, yes/no ask, modification prompt").
type Moderator interface {
	AskTernary(ctx context.Context, prompt string, plan Plan, discussion string) (ModeratorChoice, string, error)
	AskYesNo(ctx context.Context, prompt string) (bool, error)
	AskModification(ctx context.Context, prompt string) (string, error)
}

// ContextProvider answers typed snapshot queries about the target
// codebase (spec §6).
type ContextProvider interface {
	TechStack(ctx context.Context) (map[string]any, error)
	ProjectStructure(ctx context.Context) (map[string]any, error)
	Dependencies(ctx context.Context) (map[string]any, error)
	FocusedContext(ctx context.Context, keywords []string) (map[string]any, error)
	Snapshot(ctx context.Context) (map[string]any, error)
}
