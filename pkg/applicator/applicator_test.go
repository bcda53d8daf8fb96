package applicator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

type fakeFileTool struct {
	mu       sync.Mutex
	files    map[string]string
	failPath string
}

func newFakeFileTool() *fakeFileTool {
	return &fakeFileTool{files: map[string]string{}}
}

func (f *fakeFileTool) Read(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[path], nil
}

func (f *fakeFileTool) Write(_ context.Context, path string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == f.failPath {
		return errors.New("disk full")
	}
	f.files[path] = content
	return nil
}

func (f *fakeFileTool) Exists(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok, nil
}

type fakeBashTool struct {
	lastCommand string
	exitCode    int
}

func (b *fakeBashTool) Run(_ context.Context, command string, _ int) (int, string, error) {
	b.lastCommand = command
	return b.exitCode, "", nil
}

func TestApply_WriteFailureAbortsBatch(t *testing.T) {
	file := newFakeFileTool()
	file.failPath = "b.py"
	bash := &fakeBashTool{}
	a := New(file, bash, config.ApplicatorConfig{})

	result := a.Apply(context.Background(), map[string]string{
		"a.py": "print('hi')",
		"b.py": "print('bye')",
	})

	assert.False(t, result.Success)
	assert.Equal(t, "b.py", result.FailedPath)
}

func TestApply_DiscoversAndInstallsNewDependency(t *testing.T) {
	file := newFakeFileTool()
	bash := &fakeBashTool{exitCode: 0}
	a := New(file, bash, config.ApplicatorConfig{})

	result := a.Apply(context.Background(), map[string]string{
		"app.py": "import os\nimport requests\nfrom flask import Flask\n",
	})

	require.True(t, result.Success)
	assert.ElementsMatch(t, []string{"flask", "requests"}, result.InstalledPackages)
	assert.Contains(t, bash.lastCommand, "pip install")

	body, _ := file.Read(context.Background(), requirementsPath)
	assert.Contains(t, body, "flask")
	assert.Contains(t, body, "requests")
	assert.NotContains(t, body, "os")
}

func TestApply_SkipsExistingAndStdlibPackages(t *testing.T) {
	file := newFakeFileTool()
	file.files[requirementsPath] = "requests>=2.0\n"
	bash := &fakeBashTool{}
	a := New(file, bash, config.ApplicatorConfig{})

	result := a.Apply(context.Background(), map[string]string{
		"app.py": "import os\nimport requests\n",
	})

	require.True(t, result.Success)
	assert.Empty(t, result.InstalledPackages)
	assert.Equal(t, "", bash.lastCommand)
}

func TestApply_NonZeroExitFailsBatch(t *testing.T) {
	file := newFakeFileTool()
	bash := &fakeBashTool{exitCode: 1}
	a := New(file, bash, config.ApplicatorConfig{})

	result := a.Apply(context.Background(), map[string]string{
		"app.py": "import numpy\n",
	})

	assert.False(t, result.Success)
}

func TestDiscoverImports_HandlesFromAndPlainImport(t *testing.T) {
	modules := discoverImports("import os\nfrom django.db import models\nimport numpy as np\n")
	assert.ElementsMatch(t, []string{"os", "django", "numpy"}, modules)
}

func TestParseRequirements_StripsVersionSpecifiers(t *testing.T) {
	existing := parseRequirements("Flask==2.0.1\n# a comment\nrequests[socks]>=2,<3\n\n")
	assert.True(t, existing["flask"])
	assert.True(t, existing["requests"])
	assert.Len(t, existing, 2)
}
