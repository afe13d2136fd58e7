// Package discovery is the seam between the scoring core and the
// external signal-discovery step. A Source hands the pipeline a
// finite, already-fetched candidate list; scraping and LLM triage
// happen upstream of this interface.
package discovery

import (
	"context"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
	"github.com/Kakaur/tensr-signal-agent/internal/signal"
)

// Source yields raw candidate signals for one profile.
type Source interface {
	Discover(ctx context.Context, p *profile.Profile) ([]signal.Signal, error)
}

// StaticSource returns a fixed candidate list. Used for dry-run
// scoring and tests.
type StaticSource struct {
	Signals []signal.Signal
}

// Discover returns the configured signals unchanged.
func (s *StaticSource) Discover(ctx context.Context, _ *profile.Profile) ([]signal.Signal, error) {
	return s.Signals, nil
}

var _ Source = (*StaticSource)(nil)
