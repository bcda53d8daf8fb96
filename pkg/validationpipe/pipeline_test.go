package validationpipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

type scriptedBash struct {
	calls   int
	exits   []int
	outputs []string
}

func (s *scriptedBash) Run(_ context.Context, _ string, _ int) (int, string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.exits) {
		return 0, "", nil
	}
	return s.exits[i], s.outputs[i], nil
}

func baseConfig() config.ValidationConfig {
	return config.ValidationConfig{
		LintCommand:            []string{"ruff", "check", "."},
		TypeCheckCommand:       []string{"mypy", "."},
		TestCommand:            []string{"pytest"},
		MutationCommand:        []string{"mutmut", "run"},
		MutationScoreThreshold: 70,
	}
}

func TestRun_StopsAtFirstFailingStep(t *testing.T) {
	bash := &scriptedBash{exits: []int{1}, outputs: []string{"E501 line too long"}}
	p := New(bash, baseConfig())

	result := p.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, StepLint, result.FailingStep)
	assert.Equal(t, 1, bash.calls)
}

func TestRun_SucceedsWhenEveryStepPasses(t *testing.T) {
	bash := &scriptedBash{
		exits:   []int{0, 0, 0, 0},
		outputs: []string{"", "", "TOTAL 100 10 90%", "mutation score: 85%"},
	}
	p := New(bash, baseConfig())

	result := p.Run(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, float64(90), result.Coverage)
	assert.Equal(t, float64(85), result.MutationScore)
}

func TestRun_BelowMutationThresholdFails(t *testing.T) {
	bash := &scriptedBash{
		exits:   []int{0, 0, 0, 0},
		outputs: []string{"", "", "TOTAL 100 50 50%", "mutation score: 40%"},
	}
	p := New(bash, baseConfig())

	result := p.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, StepMutation, result.FailingStep)
}

func TestRun_EmptyCommandSkipsStep(t *testing.T) {
	cfg := baseConfig()
	cfg.LintCommand = nil
	bash := &scriptedBash{exits: []int{0, 0, 0}, outputs: []string{"", "TOTAL 1 0 100%", "mutation score: 80%"}}
	p := New(bash, cfg)

	result := p.Run(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, "", result.LintOutput)
}

func TestParseCoverage_ExtractsTrailingPercentage(t *testing.T) {
	assert.Equal(t, float64(87), parseCoverage("Name  Stmts  Miss  Cover\nTOTAL   120    16    87%"))
	assert.Equal(t, float64(0), parseCoverage("no coverage line here"))
}
