package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kakaur/tensr-signal-agent/internal/discovery"
	"github.com/Kakaur/tensr-signal-agent/internal/metrics"
	"github.com/Kakaur/tensr-signal-agent/internal/profile"
	"github.com/Kakaur/tensr-signal-agent/internal/signal"
	"github.com/Kakaur/tensr-signal-agent/internal/storage"
)

// ProgressFunc receives human-readable progress lines during a run.
type ProgressFunc func(message string)

// ProfileRef pairs a loaded profile with its stable file address.
type ProfileRef struct {
	Path    string
	Profile profile.Profile
}

// Result summarises one finalized run.
type Result struct {
	RunID       uuid.UUID           `json:"run_id"`
	ProfilePath string              `json:"profile_path,omitempty"`
	SignalCount int                 `json:"signal_count"`
	UnderTarget bool                `json:"under_target"`
	Warning     string              `json:"warning,omitempty"`
	Rejected    int                 `json:"rejected"`
	Excluded    int                 `json:"excluded"`
	TierCounts  map[signal.Tier]int `json:"tier_counts"`
}

// Outcome is the scored, deduped, ranked batch before persistence.
type Outcome struct {
	Selection signal.Selection
	Rejected  int
	Excluded  int
	Warning   string
}

// Runner composes scorer, deduplicator, ranker, and store for one or
// more profiles. Each profile's stages run strictly in order.
type Runner struct {
	source discovery.Source
	store  storage.RunStore
	gate   *Gate
	logger zerolog.Logger
	now    func() time.Time
}

// NewRunner constructs the pipeline runner. store may be nil for
// dry-run evaluation via Evaluate.
func NewRunner(source discovery.Source, store storage.RunStore, gate *Gate, logger zerolog.Logger) *Runner {
	return &Runner{
		source: source,
		store:  store,
		gate:   gate,
		logger: logger.With().Str("component", "pipeline").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Gate exposes the runner's run gate for status reporting.
func (r *Runner) Gate() *Gate {
	return r.gate
}

// Evaluate runs score -> dedupe -> select over a candidate pool
// without touching storage. It is a pure pass over its inputs apart
// from logging; the same code path backs real runs and dry runs.
func Evaluate(p *profile.Profile, candidates []signal.Signal, now time.Time, logger zerolog.Logger) Outcome {
	var out Outcome
	var warnings []string

	scored := make([]signal.Scored, 0, len(candidates))
	for _, cand := range candidates {
		s, err := signal.Score(cand, p, now)
		if err != nil {
			var vErr *signal.ValidationError
			switch {
			case errors.Is(err, signal.ErrOutsideWindow):
				out.Excluded++
				metrics.SignalsRejected.WithLabelValues("outside_window").Inc()
			case errors.As(err, &vErr):
				out.Rejected++
				metrics.SignalsRejected.WithLabelValues(vErr.Field).Inc()
				logger.Warn().Str("institution", cand.Institution).Err(err).Msg("signal rejected")
			default:
				out.Rejected++
				metrics.SignalsRejected.WithLabelValues("other").Inc()
			}
			continue
		}
		scored = append(scored, s)
		metrics.SignalsScored.Inc()
	}

	policy, err := signal.ParsePolicy(p.Target.DedupePolicy)
	if err != nil {
		logger.Warn().Err(err).Msg("dedupe policy fallback")
		warnings = append(warnings, err.Error())
	}

	deduped := signal.Dedupe(scored, policy)
	out.Selection = signal.Select(deduped, p.Target)
	if out.Selection.UnderTarget {
		warnings = append(warnings, fmt.Sprintf(
			"under target: %d signals selected, profile wants at least %d",
			len(out.Selection.Signals), p.Target.MinSignals,
		))
	}

	out.Warning = strings.Join(warnings, "; ")
	return out
}

// RunProfiles executes one run per profile sequentially under a single
// gate acquisition, so batch numbering never races. A failed profile
// aborts the remaining ones; already finalized batches stay.
func (r *Runner) RunProfiles(ctx context.Context, refs []ProfileRef, progress ProgressFunc) ([]Result, error) {
	release, err := r.gate.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			metrics.RunsRejected.Inc()
		}
		return nil, err
	}
	defer release()

	if progress == nil {
		progress = func(string) {}
	}

	results := make([]Result, 0, len(refs))
	for i, ref := range refs {
		progress(fmt.Sprintf("[%d/%d] running profile %s", i+1, len(refs), refName(ref)))
		result, err := r.runOne(ctx, ref, progress)
		if err != nil {
			metrics.RunFailures.Inc()
			return results, fmt.Errorf("profile %s: %w", refName(ref), err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, ref ProfileRef, progress ProgressFunc) (Result, error) {
	started := r.now()
	p := ref.Profile
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	candidates, err := r.source.Discover(ctx, &p)
	if err != nil {
		return Result{}, fmt.Errorf("discover: %w", err)
	}
	progress(fmt.Sprintf("discovered %d candidate signals", len(candidates)))

	outcome := Evaluate(&p, candidates, r.now(), r.logger)
	progress(fmt.Sprintf(
		"scored %d, rejected %d, excluded %d, selected %d",
		len(candidates)-outcome.Rejected-outcome.Excluded,
		outcome.Rejected, outcome.Excluded, len(outcome.Selection.Signals),
	))
	if outcome.Warning != "" {
		progress("warning: " + outcome.Warning)
	}

	profileJSON, err := json.Marshal(p)
	if err != nil {
		return Result{}, fmt.Errorf("marshal profile: %w", err)
	}

	run := storage.RunRecord{
		ID:          uuid.New(),
		Timestamp:   r.now(),
		ProfilePath: ref.Path,
		ProfileJSON: profileJSON,
		Warning:     outcome.Warning,
	}

	if r.store == nil {
		return Result{}, errors.New("run store not configured")
	}
	if err := r.store.FinalizeRun(ctx, run, outcome.Selection.Signals); err != nil {
		return Result{}, fmt.Errorf("persist batch: %w", err)
	}

	counts := signal.TierCounts(outcome.Selection.Signals)
	result := Result{
		RunID:       run.ID,
		ProfilePath: ref.Path,
		SignalCount: len(outcome.Selection.Signals),
		UnderTarget: outcome.Selection.UnderTarget,
		Warning:     outcome.Warning,
		Rejected:    outcome.Rejected,
		Excluded:    outcome.Excluded,
		TierCounts:  counts,
	}

	metrics.RunsTotal.Inc()
	metrics.RunDuration.Observe(r.now().Sub(started).Seconds())
	metrics.BatchSize.Observe(float64(result.SignalCount))

	r.logger.Info().
		Str("run_id", run.ID.String()).
		Int("signals", result.SignalCount).
		Bool("under_target", result.UnderTarget).
		Int("hot", counts[signal.TierHot]).
		Int("warm", counts[signal.TierWarm]).
		Msg("run finalized")
	progress(fmt.Sprintf("run %s finalized with %d signals", run.ID, result.SignalCount))

	return result, nil
}

func refName(ref ProfileRef) string {
	if ref.Path != "" {
		return ref.Path
	}
	return ref.Profile.ProfileID
}
