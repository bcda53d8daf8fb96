// Package applicator implements the Change Applicator (spec C8): writes a
// batch of generated files, then discovers and installs any new Python
// dependencies those files pulled in. Grounded on spec §4.6's five-step
// algorithm; there is no Python-tooling equivalent in the retrieved pack,
// so the file-write batch follows the teacher's own "any failure aborts"
// idiom (pkg/queue/worker.go's claim-or-abort pattern) and dependency
// installation is invoked through the same collab.BashTool seam the
// orchestrator uses for every other external call.
package applicator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/swe-orchestrator/orchestrator/pkg/collab"
	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

// Result is the outcome of applying one batch of changes.
type Result struct {
	Success          bool
	FailedPath       string
	InstalledPackages []string
	Err              error
}

// Applicator writes generated files and keeps requirements.txt in sync.
type Applicator struct {
	file   collab.FileTool
	bash   collab.BashTool
	cfg    config.ApplicatorConfig
	logger *slog.Logger
}

// New creates an Applicator backed by the given file and bash tools.
func New(file collab.FileTool, bash collab.BashTool, cfg config.ApplicatorConfig) *Applicator {
	return &Applicator{
		file:   file,
		bash:   bash,
		cfg:    cfg,
		logger: slog.Default().With("component", "applicator"),
	}
}

const requirementsPath = "requirements.txt"

// Apply writes every entry of changes (path -> content) via the file
// tool, then discovers and installs new Python dependencies pulled in by
// any .py entries (spec §4.6).
func (a *Applicator) Apply(ctx context.Context, changes map[string]string) Result {
	for path, content := range changes {
		if err := a.file.Write(ctx, path, content); err != nil {
			a.logger.Error("file write failed, aborting batch", "path", path, "error", err)
			return Result{Success: false, FailedPath: path, Err: err}
		}
	}

	newPackages, err := a.discoverNewDependencies(ctx, changes)
	if err != nil {
		a.logger.Error("dependency discovery failed", "error", err)
		return Result{Success: false, Err: err}
	}
	if len(newPackages) == 0 {
		return Result{Success: true}
	}

	if err := a.installDependencies(ctx, newPackages); err != nil {
		return Result{Success: false, Err: err}
	}
	return Result{Success: true, InstalledPackages: newPackages}
}

func (a *Applicator) discoverNewDependencies(ctx context.Context, changes map[string]string) ([]string, error) {
	existing := map[string]bool{}
	if ok, err := a.file.Exists(ctx, requirementsPath); err == nil && ok {
		body, err := a.file.Read(ctx, requirementsPath)
		if err != nil {
			return nil, fmt.Errorf("applicator: read requirements.txt: %w", err)
		}
		existing = parseRequirements(body)
	}

	discovered := map[string]bool{}
	for path, content := range changes {
		if !isPythonFile(path) {
			continue
		}
		for _, module := range discoverImports(content) {
			lower := strings.ToLower(module)
			if existing[lower] || isStdlib(module) || discovered[lower] {
				continue
			}
			discovered[lower] = true
		}
	}

	newPackages := make([]string, 0, len(discovered))
	for pkg := range discovered {
		newPackages = append(newPackages, pkg)
	}
	sort.Strings(newPackages)
	return newPackages, nil
}

func (a *Applicator) installDependencies(ctx context.Context, newPackages []string) error {
	existingBody := ""
	if ok, err := a.file.Exists(ctx, requirementsPath); err == nil && ok {
		existingBody, _ = a.file.Read(ctx, requirementsPath)
	}

	updated := appendRequirements(existingBody, newPackages)
	if err := a.file.Write(ctx, requirementsPath, updated); err != nil {
		return fmt.Errorf("applicator: write requirements.txt: %w", err)
	}

	timeout := int(a.cfg.PipTimeout.Seconds())
	if timeout <= 0 {
		timeout = 300
	}
	command := "pip install -r requirements.txt"
	if len(a.cfg.PipCommand) > 0 {
		command = strings.Join(a.cfg.PipCommand, " ")
	}

	exitCode, output, err := a.bash.Run(ctx, command, timeout)
	if err != nil {
		a.logger.Error("pip install failed to run", "error", err)
		return fmt.Errorf("applicator: run pip install: %w", err)
	}
	if exitCode != 0 {
		a.logger.Error("pip install exited non-zero", "exit_code", exitCode, "output", output)
		return fmt.Errorf("applicator: pip install failed with exit code %d", exitCode)
	}
	return nil
}

func isPythonFile(path string) bool {
	return strings.HasSuffix(path, ".py")
}
