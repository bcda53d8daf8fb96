// Package validationpipe implements the Validation Pipeline (spec C9):
// lint, type-check, tests, and mutation-score steps run in sequence,
// short-circuiting on the first failure. Grounded on spec §4.7's
// five-step algorithm and the teacher's BashTool-style command execution
// (pkg/queue/worker.go invokes external steps and checks exit status the
// same way); there is no lint/type-check/mutation-testing runner in the
// retrieved pack, so every step is a command the caller configures and
// this package merely sequences and interprets.
package validationpipe

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/collab"
	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

// Step names used as Result.FailingStep (spec §4.7).
const (
	StepDatabaseSetup = "database_setup"
	StepLint          = "lint"
	StepTypeCheck     = "type_check"
	StepTests         = "tests"
	StepMutation      = "mutation"
	StepUnknownError  = "unknown_error"
)

// Result is the pipeline's outcome (spec §4.7 "Result contract").
type Result struct {
	Success       bool
	FailingStep   string
	LintOutput    string
	TypeOutput    string
	TestOutput    string
	Coverage      float64
	MutationScore float64
}

// Pipeline runs the configured validation steps against a bash tool.
type Pipeline struct {
	bash   collab.BashTool
	cfg    config.ValidationConfig
	logger *slog.Logger
}

// New creates a Pipeline backed by the given bash tool.
func New(bash collab.BashTool, cfg config.ValidationConfig) *Pipeline {
	return &Pipeline{bash: bash, cfg: cfg, logger: slog.Default().With("component", "validationpipe")}
}

// Run executes the pipeline, short-circuiting on the first failing step.
// An unexpected panic in a step is recovered into StepUnknownError (spec
// §4.7: "An unexpected exception in any step yields success=false,
// failing_step=\"unknown_error\"").
func (p *Pipeline) Run(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("validation pipeline panicked", "recovered", r)
			result = Result{Success: false, FailingStep: StepUnknownError}
		}
	}()

	lintOK, lintOutput := p.runStep(ctx, p.cfg.LintCommand, p.cfg.LintTimeout)
	if !lintOK {
		return Result{Success: false, FailingStep: StepLint, LintOutput: lintOutput}
	}

	typeOK, typeOutput := p.runStep(ctx, p.cfg.TypeCheckCommand, p.cfg.TypeCheckTimeout)
	if !typeOK {
		return Result{Success: false, FailingStep: StepTypeCheck, LintOutput: lintOutput, TypeOutput: typeOutput}
	}

	testsOK, testOutput := p.runStep(ctx, p.cfg.TestCommand, p.cfg.TestTimeout)
	coverage := parseCoverage(testOutput)
	if !testsOK {
		return Result{Success: false, FailingStep: StepTests, LintOutput: lintOutput, TypeOutput: typeOutput, TestOutput: testOutput, Coverage: coverage}
	}

	mutationOK, mutationOutput := p.runStep(ctx, p.cfg.MutationCommand, p.cfg.MutationTimeout)
	score := parseMutationScore(mutationOutput)
	if !mutationOK || score < p.cfg.MutationScoreThreshold {
		return Result{
			Success: false, FailingStep: StepMutation,
			LintOutput: lintOutput, TypeOutput: typeOutput, TestOutput: testOutput,
			Coverage: coverage, MutationScore: score,
		}
	}

	return Result{
		Success: true, LintOutput: lintOutput, TypeOutput: typeOutput, TestOutput: testOutput,
		Coverage: coverage, MutationScore: score,
	}
}

func (p *Pipeline) runStep(ctx context.Context, command []string, timeout time.Duration) (bool, string) {
	if len(command) == 0 {
		return true, ""
	}
	seconds := int(timeout.Seconds())
	if seconds <= 0 {
		seconds = 120
	}
	exitCode, output, err := p.bash.Run(ctx, strings.Join(command, " "), seconds)
	if err != nil {
		p.logger.Error("validation step failed to run", "command", command, "error", err)
		return false, output
	}
	return exitCode == 0, output
}

// parseCoverage extracts a "TOTAL ... NN%" style coverage percentage from
// test output, returning 0 if none is found.
func parseCoverage(output string) float64 {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(strings.ToUpper(line), "TOTAL") {
			continue
		}
		fields := strings.Fields(line)
		for i := len(fields) - 1; i >= 0; i-- {
			if strings.HasSuffix(fields[i], "%") {
				if v, err := strconv.ParseFloat(strings.TrimSuffix(fields[i], "%"), 64); err == nil {
					return v
				}
			}
		}
	}
	return 0
}

// parseMutationScore extracts a numeric mutation score from the critic's
// output, tolerating a trailing "%".
func parseMutationScore(output string) float64 {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(strings.ToLower(line), "mutation score") {
			continue
		}
		fields := strings.Fields(line)
		for _, f := range fields {
			cleaned := strings.TrimSuffix(f, "%")
			if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return v
			}
		}
	}
	return 0
}
