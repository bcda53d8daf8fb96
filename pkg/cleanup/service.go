// Package cleanup wires a periodic background loop around the state
// store's age-based eviction.
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Evictor is satisfied by pkg/statestore.Store. Kept as a narrow interface
// here so this package has no compile-time dependency on statestore.
type Evictor interface {
	Evict(maxAge time.Duration) (int, error)
}

// Service periodically evicts interrupted tasks older than MaxAge.
// The daemon already evicts once at startup via Store.EvictOld (spec
// §4.3); this service adds the periodic recheck so long-running processes don't
// accumulate stale task directories between restarts.
type Service struct {
	evictor  Evictor
	maxAge   time.Duration
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a cleanup service for the given evictor.
func NewService(evictor Evictor, maxAge, interval time.Duration) *Service {
	return &Service{evictor: evictor, maxAge: maxAge, interval: interval}
}

// Start launches the background eviction loop. Safe to call only once;
// subsequent calls before Stop are no-ops.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started", "max_age", s.maxAge, "interval", s.interval)
}

// Stop signals the loop to exit and waits for it to finish. Resets
// internal state so a subsequent Start begins clean.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Service) runOnce() {
	count, err := s.evictor.Evict(s.maxAge)
	if err != nil {
		slog.Error("eviction pass failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("evicted stale tasks", "count", count)
	}
}
