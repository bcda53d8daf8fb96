package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvictor struct {
	mu    sync.Mutex
	calls int
	count int
	err   error
}

func (f *fakeEvictor) Evict(time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.count, f.err
}

func (f *fakeEvictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestServiceRunsOnInterval(t *testing.T) {
	evictor := &fakeEvictor{count: 2}
	svc := NewService(evictor, 7*24*time.Hour, 10*time.Millisecond)

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		return evictor.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestServiceStopIsIdempotentAndAllowsRestart(t *testing.T) {
	evictor := &fakeEvictor{}
	svc := NewService(evictor, time.Hour, 5*time.Millisecond)

	svc.Start(context.Background())
	svc.Stop()
	svc.Stop() // second Stop must not block or panic

	svc.Start(context.Background())
	svc.Stop()
}

func TestServiceSurvivesEvictorError(t *testing.T) {
	evictor := &fakeEvictor{err: errors.New("disk full")}
	svc := NewService(evictor, time.Hour, 5*time.Millisecond)

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		return evictor.callCount() >= 1
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, nil) // loop did not crash the test process
}
