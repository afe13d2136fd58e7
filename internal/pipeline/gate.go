package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

// ErrRunInProgress rejects a run request while another run holds the gate.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Gate is the single-slot run token: one pipeline run at a time,
// process-wide via compare-and-swap and cluster-wide via a postgres
// advisory lock when a locker is configured.
type Gate struct {
	running atomic.Bool
	locker  storage.AdvisoryLocker
	lockKey int64
}

// NewGate constructs a run gate. locker may be nil when persistence is
// not configured; the in-process token still applies.
func NewGate(locker storage.AdvisoryLocker, lockKey int64) *Gate {
	return &Gate{locker: locker, lockKey: lockKey}
}

// Acquire claims the gate or fails with ErrRunInProgress. The returned
// release func must be called exactly once.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}

	if g.locker == nil || g.lockKey == 0 {
		return func() { g.running.Store(false) }, nil
	}

	unlock, acquired, err := g.locker.TryAdvisoryLock(ctx, g.lockKey)
	if err != nil {
		g.running.Store(false)
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		g.running.Store(false)
		return nil, ErrRunInProgress
	}

	return func() {
		unlock()
		g.running.Store(false)
	}, nil
}

// Running reports whether a run currently holds the in-process token.
func (g *Gate) Running() bool {
	return g.running.Load()
}
