package statestore

// Change is a single generated file change (spec §3 "changes list").
type Change struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Payload is the phase-specific portion of a Snapshot. Each phase has its
// own concrete type; ToMap/fromMap handle the flat on-disk representation
// (spec §4.3/§6: phase-specific fields live at the snapshot's top level,
// alongside state_version/task_id/phase/timestamp).
type Payload interface {
	Phase() Phase
	ToMap() map[string]any
}

// payloadConstructor builds a Payload from the flat field map decoded off
// disk. Selected via the phaseConstructors table (spec §9: "explicit
// per-phase payload constructors selected by a phase → constructor map").
type payloadConstructor func(fields map[string]any) Payload

var phaseConstructors = map[Phase]payloadConstructor{
	PhasePlanning:       func(f map[string]any) Payload { return planningFromMap(f) },
	PhasePromptApproval: func(f map[string]any) Payload { return promptApprovalFromMap(f) },
	PhaseIssueCreation:  func(f map[string]any) Payload { return issueCreationFromMap(f) },
	PhaseCodeGeneration: func(f map[string]any) Payload { return codeGenerationFromMap(f) },
	PhaseExecution:      func(f map[string]any) Payload { return executionFromMap(f) },
	PhasePRCreation:     func(f map[string]any) Payload { return prCreationFromMap(f) },
}

func str(f map[string]any, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func strPtr(f map[string]any, key string) *string {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func boolean(f map[string]any, key string) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return false
}

func mapOf(f map[string]any, key string) map[string]any {
	if v, ok := f[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func intOf(f map[string]any, key string) int {
	switch v := f[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func sliceOf(f map[string]any, key string) []any {
	if v, ok := f[key].([]any); ok {
		return v
	}
	return nil
}

func changesOf(f map[string]any, key string) []Change {
	raw := sliceOf(f, key)
	out := make([]Change, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Change{Path: str(m, "path"), Content: str(m, "content")})
	}
	return out
}

func changesToAny(cs []Change) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, map[string]any{"path": c.Path, "content": c.Content})
	}
	return out
}

func errorsOf(f map[string]any, key string) []map[string]any {
	raw := sliceOf(f, key)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// PlanningPayload is the planning-phase snapshot (spec §3, §4.5.1).
type PlanningPayload struct {
	RequestText string
	CodeContext map[string]any
	TechStack   map[string]any
	Plan        map[string]any
	Discussion  string
}

func (PlanningPayload) Phase() Phase { return PhasePlanning }

func (p PlanningPayload) ToMap() map[string]any {
	return map[string]any{
		"request_text": p.RequestText,
		"code_context": p.CodeContext,
		"tech_stack":   p.TechStack,
		"plan":         p.Plan,
		"discussion":   p.Discussion,
	}
}

func planningFromMap(f map[string]any) PlanningPayload {
	return PlanningPayload{
		RequestText: str(f, "request_text"),
		CodeContext: mapOf(f, "code_context"),
		TechStack:   mapOf(f, "tech_stack"),
		Plan:        mapOf(f, "plan"),
		Discussion:  str(f, "discussion"),
	}
}

// PromptApprovalPayload is the prompt_approval-phase snapshot.
type PromptApprovalPayload struct {
	Plan              map[string]any
	Discussion        string
	IsApproved        bool
	UserModifications string
}

func (PromptApprovalPayload) Phase() Phase { return PhasePromptApproval }

func (p PromptApprovalPayload) ToMap() map[string]any {
	return map[string]any{
		"plan":               p.Plan,
		"discussion":         p.Discussion,
		"is_approved":        p.IsApproved,
		"user_modifications": p.UserModifications,
	}
}

func promptApprovalFromMap(f map[string]any) PromptApprovalPayload {
	return PromptApprovalPayload{
		Plan:              mapOf(f, "plan"),
		Discussion:        str(f, "discussion"),
		IsApproved:        boolean(f, "is_approved"),
		UserModifications: str(f, "user_modifications"),
	}
}

// IssueCreationPayload is the issue_creation-phase snapshot.
type IssueCreationPayload struct {
	Title    string
	Body     string
	IssueURL *string
	IsCreated bool
}

func (IssueCreationPayload) Phase() Phase { return PhaseIssueCreation }

func (p IssueCreationPayload) ToMap() map[string]any {
	return map[string]any{
		"title":      p.Title,
		"body":       p.Body,
		"issue_url":  p.IssueURL,
		"is_created": p.IsCreated,
	}
}

func issueCreationFromMap(f map[string]any) IssueCreationPayload {
	return IssueCreationPayload{
		Title:     str(f, "title"),
		Body:      str(f, "body"),
		IssueURL:  strPtr(f, "issue_url"),
		IsCreated: boolean(f, "is_created"),
	}
}

// CodeGenerationPayload is the code_generation-phase snapshot.
type CodeGenerationPayload struct {
	Plan             map[string]any
	IssueURL         *string
	CodeContext      map[string]any
	TechStack        map[string]any
	GeneratedChanges []Change
	CurrentIteration int
}

func (CodeGenerationPayload) Phase() Phase { return PhaseCodeGeneration }

func (p CodeGenerationPayload) ToMap() map[string]any {
	return map[string]any{
		"plan":              p.Plan,
		"issue_url":         p.IssueURL,
		"code_context":      p.CodeContext,
		"tech_stack":        p.TechStack,
		"generated_changes": changesToAny(p.GeneratedChanges),
		"current_iteration": p.CurrentIteration,
	}
}

func codeGenerationFromMap(f map[string]any) CodeGenerationPayload {
	return CodeGenerationPayload{
		Plan:             mapOf(f, "plan"),
		IssueURL:         strPtr(f, "issue_url"),
		CodeContext:      mapOf(f, "code_context"),
		TechStack:        mapOf(f, "tech_stack"),
		GeneratedChanges: changesOf(f, "generated_changes"),
		CurrentIteration: intOf(f, "current_iteration"),
	}
}

// ExecutionPayload is the execution-phase snapshot, carrying the
// sub-state and pending/applied change tracking that makes resumption
// precise (spec §3, §4.4 table).
type ExecutionPayload struct {
	Changes        []Change
	Iteration      int
	TestResults    map[string]any
	IsApplied      bool
	Errors         []map[string]any
	SubState       ExecutionSubState
	RawTestOutput  *string
	PendingChanges []Change
	AppliedChanges []Change
}

func (ExecutionPayload) Phase() Phase { return PhaseExecution }

func (p ExecutionPayload) ToMap() map[string]any {
	errs := make([]any, 0, len(p.Errors))
	for _, e := range p.Errors {
		errs = append(errs, e)
	}
	return map[string]any{
		"changes":         changesToAny(p.Changes),
		"iteration":       p.Iteration,
		"test_results":    p.TestResults,
		"is_applied":      p.IsApplied,
		"errors":          errs,
		"sub_state":       string(p.SubState),
		"raw_test_output": p.RawTestOutput,
		"pending_changes": changesToAny(p.PendingChanges),
		"applied_changes": changesToAny(p.AppliedChanges),
	}
}

func executionFromMap(f map[string]any) ExecutionPayload {
	subState := ExecutionSubState(str(f, "sub_state"))
	if subState == "" {
		subState = SubStatePreparing
	}
	return ExecutionPayload{
		Changes:        changesOf(f, "changes"),
		Iteration:      intOf(f, "iteration"),
		TestResults:    mapOf(f, "test_results"),
		IsApplied:      boolean(f, "is_applied"),
		Errors:         errorsOf(f, "errors"),
		SubState:       subState,
		RawTestOutput:  strPtr(f, "raw_test_output"),
		PendingChanges: changesOf(f, "pending_changes"),
		AppliedChanges: changesOf(f, "applied_changes"),
	}
}

// PRCreationPayload is the pr_creation-phase snapshot.
type PRCreationPayload struct {
	BranchName   string
	PRTitle      string
	PRBody       string
	IssueURL     *string
	PRURL        *string
	IsCreated    bool
	SubState     PRSubState
	CommitSHA    *string
	BaseBranch   string
	Draft        bool
	APIResponse  map[string]any
}

func (PRCreationPayload) Phase() Phase { return PhasePRCreation }

func (p PRCreationPayload) ToMap() map[string]any {
	return map[string]any{
		"branch_name":  p.BranchName,
		"pr_title":     p.PRTitle,
		"pr_body":      p.PRBody,
		"issue_url":    p.IssueURL,
		"pr_url":       p.PRURL,
		"is_created":   p.IsCreated,
		"sub_state":    string(p.SubState),
		"commit_sha":   p.CommitSHA,
		"base_branch":  p.BaseBranch,
		"draft":        p.Draft,
		"api_response": p.APIResponse,
	}
}

func prCreationFromMap(f map[string]any) PRCreationPayload {
	subState := PRSubState(str(f, "sub_state"))
	if subState == "" {
		subState = PRSubStatePreparing
	}
	baseBranch := str(f, "base_branch")
	if baseBranch == "" {
		baseBranch = "main"
	}
	return PRCreationPayload{
		BranchName:  str(f, "branch_name"),
		PRTitle:     str(f, "pr_title"),
		PRBody:      str(f, "pr_body"),
		IssueURL:    strPtr(f, "issue_url"),
		PRURL:       strPtr(f, "pr_url"),
		IsCreated:   boolean(f, "is_created"),
		SubState:    subState,
		CommitSHA:   strPtr(f, "commit_sha"),
		BaseBranch:  baseBranch,
		Draft:       boolean(f, "draft"),
		APIResponse: mapOf(f, "api_response"),
	}
}
