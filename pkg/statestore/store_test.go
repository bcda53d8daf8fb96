package statestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(config.StateStoreConfig{BaseDir: dir, MaxAgeDays: 7})
}

func planningSnapshot(taskID string) Snapshot {
	return Snapshot{
		StateVersion: config.CurrentStateVersion,
		TaskID:       taskID,
		Phase:        PhasePlanning,
		Timestamp:    time.Now(),
		Payload: PlanningPayload{
			RequestText: "add a health endpoint",
			CodeContext: map[string]any{"files": []any{"main.go"}},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	snap := planningSnapshot("task-1")

	require.NoError(t, s.Save(snap))

	loaded, err := s.Load("task-1", PhasePlanning)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "task-1", loaded.TaskID)
	assert.Equal(t, PhasePlanning, loaded.Phase)

	payload, ok := loaded.Payload.(PlanningPayload)
	require.True(t, ok)
	assert.Equal(t, "add a health endpoint", payload.RequestText)
}

func TestLoad_MissingSnapshotReturnsNil(t *testing.T) {
	s := newTestStore(t)
	loaded, err := s.Load("no-such-task", PhasePlanning)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSave_NoTmpFileVisibleAfterward(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(planningSnapshot("task-2")))

	entries, err := os.ReadDir(s.taskDir("task-2"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, filepath.Ext(e.Name()) == ".tmp", "tmp file left behind: %s", e.Name())
	}
}

func TestListActiveTasks_SortedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(planningSnapshot("older")))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Save(planningSnapshot("newer")))

	tasks, err := s.ListActiveTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "newer", tasks[0].TaskID)
	assert.Equal(t, "older", tasks[1].TaskID)
}

func TestDelete_RemovesTaskDirectory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(planningSnapshot("task-3")))

	require.NoError(t, s.Delete("task-3"))

	_, err := os.Stat(s.taskDir("task-3"))
	assert.True(t, os.IsNotExist(err))
}

func TestDelete_MissingTaskIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete("never-existed"))
}

func TestEvictOld_RemovesStaleTasksOnly(t *testing.T) {
	s := newTestStore(t)
	s.maxAgeDays = 1
	require.NoError(t, s.Save(planningSnapshot("stale")))
	require.NoError(t, s.Save(planningSnapshot("fresh")))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(s.taskDir("stale"), old, old))

	require.NoError(t, s.EvictOld())

	_, err := os.Stat(s.taskDir("stale"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.taskDir("fresh"))
	assert.NoError(t, err)
}

func TestEvict_ReturnsCountOfEvictedTasks(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(planningSnapshot("stale-1")))
	require.NoError(t, s.Save(planningSnapshot("stale-2")))
	require.NoError(t, s.Save(planningSnapshot("fresh")))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(s.taskDir("stale-1"), old, old))
	require.NoError(t, os.Chtimes(s.taskDir("stale-2"), old, old))

	count, err := s.Evict(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = os.Stat(s.taskDir("fresh"))
	assert.NoError(t, err)
}

func TestRecover_ScansTrailingJSONInCorruptedFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.taskDir("task-4"), 0o700))

	valid := `{"state_version":1,"task_id":"task-4","phase":"planning","timestamp":"2026-01-01T00:00:00Z","request_text":"hi"}`
	corrupted := "garbage-prefix-that-is-not-json" + valid
	path := s.snapshotPath("task-4", PhasePlanning)
	require.NoError(t, os.WriteFile(path, []byte(corrupted), 0o600))

	snap, err := s.Recover("task-4", PhasePlanning)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "task-4", snap.TaskID)

	reloaded, err := s.Load("task-4", PhasePlanning)
	require.NoError(t, err)
	require.NotNil(t, reloaded, "recovery should have re-saved the snapshot")
}

func TestRecover_FallsBackToBackupFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.taskDir("task-5"), 0o700))

	backup := `{"state_version":1,"task_id":"task-5","phase":"planning","timestamp":"2026-01-01T00:00:00Z","request_text":"from backup"}`
	require.NoError(t, os.WriteFile(filepath.Join(s.taskDir("task-5"), "planning_20260101.json"), []byte(backup), 0o600))
	require.NoError(t, os.WriteFile(s.snapshotPath("task-5", PhasePlanning), []byte("not json at all"), 0o600))

	snap, err := s.Recover("task-5", PhasePlanning)
	require.NoError(t, err)
	require.NotNil(t, snap)
	payload := snap.Payload.(PlanningPayload)
	assert.Equal(t, "from backup", payload.RequestText)
}

func TestRecover_FallsBackToPreviousPhase(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(planningSnapshot("task-6")))
	require.NoError(t, os.MkdirAll(s.taskDir("task-6"), 0o700))
	require.NoError(t, os.WriteFile(s.snapshotPath("task-6", PhasePromptApproval), []byte("not json"), 0o600))

	snap, err := s.Recover("task-6", PhasePromptApproval)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, PhasePlanning, snap.Phase)
}
