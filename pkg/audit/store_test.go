package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestStore starts a throwaway Postgres container and returns a Store
// connected to it, torn down on test cleanup. Mirrors the teacher's
// shared-testcontainer idiom in test/util/database.go, scoped per-test
// here since pkg/audit has no package-wide shared fixture yet.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping testcontainers-backed audit test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("audit"),
		postgres.WithUsername("audit"),
		postgres.WithPassword("audit"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpen_AppliesMigrations(t *testing.T) {
	store := newTestStore(t)

	var count int
	err := store.db.QueryRowContext(context.Background(),
		`SELECT count(*) FROM audit_messages`).Scan(&count)
	require.NoError(t, err)
}

func TestRecord_InsertsAndIsIdempotentOnConflict(t *testing.T) {
	store := newTestStore(t)

	rec := Record{
		ID:         "11111111-1111-1111-1111-111111111111",
		TaskID:     "task-1",
		Kind:       "terminal_output",
		Content:    json.RawMessage(`{"text":"hello"}`),
		OccurredAt: time.Now(),
	}

	require.NoError(t, store.Record(context.Background(), rec))
	require.NoError(t, store.Record(context.Background(), rec)) // duplicate id, no error

	var count int
	err := store.db.QueryRowContext(context.Background(),
		`SELECT count(*) FROM audit_messages WHERE id = $1`, rec.ID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
