package statestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/swe-orchestrator/orchestrator/pkg/config"
)

// ActiveTask is the summary row returned by ListActiveTasks.
type ActiveTask struct {
	TaskID      string
	Phase       Phase
	Timestamp   string
	LastUpdated time.Time
	RequestText string
}

// Store is the filesystem-backed snapshot store: one directory per task,
// one "<phase>.json" file per phase, written atomically via a ".tmp" file
// and os.Rename.
type Store struct {
	baseDir    string
	maxAgeDays int
	logger     *slog.Logger
}

// New creates a Store rooted at cfg.BaseDir.
func New(cfg config.StateStoreConfig) *Store {
	return &Store{
		baseDir:    cfg.BaseDir,
		maxAgeDays: cfg.MaxAgeDays,
		logger:     slog.Default().With("component", "statestore"),
	}
}

func (s *Store) taskDir(taskID string) string {
	return filepath.Join(s.baseDir, taskID)
}

func (s *Store) snapshotPath(taskID string, phase Phase) string {
	return filepath.Join(s.taskDir(taskID), string(phase)+".json")
}

// Save persists snap atomically: marshal, write to a ".tmp" sibling with
// owner-only permissions, then rename over the final path.
func (s *Store) Save(snap Snapshot) error {
	dir := s.taskDir(snap.TaskID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("statestore: create task dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: marshal snapshot: %w", err)
	}

	final := s.snapshotPath(snap.TaskID, snap.Phase)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("statestore: write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("statestore: rename snapshot: %w", err)
	}

	s.logger.Info("saved task snapshot", "task_id", snap.TaskID, "phase", snap.Phase)
	return nil
}

// Load reads the snapshot for (taskID, phase), migrating it to the current
// state_version if it was written by an older one and failing with an
// incompatible_version error if it was written by a newer one. Returns
// (nil, nil) if no such snapshot exists.
func (s *Store) Load(taskID string, phase Phase) (*Snapshot, error) {
	path := s.snapshotPath(taskID, phase)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: read snapshot: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return s.Recover(taskID, phase)
	}

	from := intOf(fields, "state_version")
	if from == 0 {
		from = 1
	}
	if from > config.CurrentStateVersion {
		return nil, fmt.Errorf("statestore: incompatible_version: snapshot state_version %d is newer than supported %d", from, config.CurrentStateVersion)
	}
	fields, _ = migrate(fields, from)

	snap, err := snapshotFromFields(fields)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListActiveTasks scans the base directory for task subdirectories, picks
// each one's most-recently-modified snapshot file, and returns the result
// sorted by last-updated time, newest first.
func (s *Store) ListActiveTasks() ([]ActiveTask, error) {
	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: list base dir: %w", err)
	}

	var tasks []ActiveTask
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		taskID := entry.Name()
		dir := s.taskDir(taskID)

		files, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("error reading task dir", "task_id", taskID, "error", err)
			continue
		}

		var latestName string
		var latestMod time.Time
		for _, f := range files {
			name := f.Name()
			if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".tmp") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			if latestName == "" || info.ModTime().After(latestMod) {
				latestName = name
				latestMod = info.ModTime()
			}
		}
		if latestName == "" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, latestName))
		if err != nil {
			s.logger.Warn("error reading snapshot", "task_id", taskID, "error", err)
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			s.logger.Warn("error decoding snapshot", "task_id", taskID, "error", err)
			continue
		}

		phase := strings.TrimSuffix(latestName, ".json")
		requestText := str(fields, "request_text")
		if requestText == "" {
			requestText = "Unknown task"
		}

		tasks = append(tasks, ActiveTask{
			TaskID:      taskID,
			Phase:       Phase(phase),
			Timestamp:   str(fields, "timestamp"),
			LastUpdated: latestMod,
			RequestText: requestText,
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].LastUpdated.After(tasks[j].LastUpdated)
	})
	return tasks, nil
}

// Delete removes a task's directory and every snapshot inside it.
func (s *Store) Delete(taskID string) error {
	dir := s.taskDir(taskID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("statestore: delete task dir: %w", err)
	}
	s.logger.Info("deleted task", "task_id", taskID)
	return nil
}

// ClearState is an alias for Delete, named for the call site that clears a
// task's state after successful completion.
func (s *Store) ClearState(taskID string) error {
	return s.Delete(taskID)
}

// EvictOld deletes every task directory whose modification time is older
// than maxAgeDays. Intended to run once at startup.
func (s *Store) EvictOld() error {
	_, err := s.Evict(time.Duration(s.maxAgeDays) * 24 * time.Hour)
	return err
}

// Evict deletes every task directory whose modification time is older
// than maxAge, returning the number evicted. Unlike EvictOld (fixed to
// the store's configured maxAgeDays, run once at startup), this takes an
// explicit age so pkg/cleanup can run it on a periodic recheck.
func (s *Store) Evict(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("statestore: list base dir: %w", err)
	}

	now := time.Now()
	evicted := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		taskID := entry.Name()
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			s.logger.Info("evicting old task", "task_id", taskID, "age", now.Sub(info.ModTime()))
			if err := s.Delete(taskID); err != nil {
				s.logger.Warn("error evicting task", "task_id", taskID, "error", err)
				continue
			}
			evicted++
		}
	}
	return evicted, nil
}

// Recover attempts to salvage a corrupted snapshot in three steps: scan the
// raw bytes for a trailing JSON object containing a matching task_id, fall
// back to the newest "<phase>_*.json" backup file, then fall back to the
// previous phase's snapshot. It returns (nil, nil) if nothing is salvageable.
func (s *Store) Recover(taskID string, phase Phase) (*Snapshot, error) {
	path := s.snapshotPath(taskID, phase)

	if content, err := os.ReadFile(path); err == nil {
		if snap := scanTrailingJSON(content, taskID, phase); snap != nil {
			_ = s.Save(*snap)
			s.logger.Info("recovered task snapshot", "task_id", taskID, "phase", phase)
			return snap, nil
		}
	}

	if snap := s.recoverFromBackup(taskID, phase); snap != nil {
		_ = s.Save(*snap)
		s.logger.Info("recovered task snapshot from backup", "task_id", taskID, "phase", phase)
		return snap, nil
	}

	if prev, ok := PreviousPhase(phase); ok {
		prevSnap, err := s.Load(taskID, prev)
		if err == nil && prevSnap != nil {
			s.logger.Info("falling back to previous phase snapshot", "task_id", taskID, "phase", prev)
			return prevSnap, nil
		}
	}

	s.logger.Error("failed to recover task snapshot", "task_id", taskID, "phase", phase)
	return nil, nil
}

// scanTrailingJSON tries every suffix of content, from longest to shortest,
// looking for one that parses as a JSON object whose task_id matches.
func scanTrailingJSON(content []byte, taskID string, phase Phase) *Snapshot {
	for i := 0; i < len(content); i++ {
		var fields map[string]any
		if err := json.Unmarshal(content[i:], &fields); err != nil {
			continue
		}
		if str(fields, "task_id") != taskID {
			continue
		}
		fields["phase"] = string(phase)
		snap, err := snapshotFromFields(fields)
		if err != nil {
			continue
		}
		return snap
	}
	return nil
}

func (s *Store) recoverFromBackup(taskID string, phase Phase) *Snapshot {
	dir := s.taskDir(taskID)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	prefix := string(phase) + "_"
	var latestName string
	var latestMod time.Time
	for _, f := range files {
		name := f.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestName == "" || info.ModTime().After(latestMod) {
			latestName = name
			latestMod = info.ModTime()
		}
	}
	if latestName == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, latestName))
	if err != nil {
		return nil
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil
	}
	return snap
}
