package video

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/videocrop/videocrop-api/internal/asset"
)

// Sweeper evicts assets older than a TTL from both storage roles.
// Without it the flat directories accumulate forever; eviction is
// age-based so an asset's lifetime is measured from its creation.
type Sweeper struct {
	store    *asset.Store
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSweeper creates a Sweeper. It does nothing until Start is called.
func NewSweeper(store *asset.Store, ttl, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop. A non-positive TTL disables
// sweeping entirely.
func (s *Sweeper) Start() {
	if s.ttl <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.sweepOnce(context.Background())
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for an in-flight sweep.
func (s *Sweeper) Stop() {
	close(s.done)
	s.wg.Wait()
}

// sweepOnce evicts expired assets from both roles.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)
	for _, role := range []asset.Role{asset.RoleSource, asset.RoleDerived} {
		removed, err := s.store.SweepOlderThan(ctx, role, cutoff)
		if err != nil {
			s.logger.Warn("retention sweep error",
				slog.String("role", string(role)),
				slog.String("error", err.Error()),
			)
		}
		if removed > 0 {
			s.logger.Info("retention sweep evicted assets",
				slog.String("role", string(role)),
				slog.Int("removed", removed),
			)
		}
	}
}
