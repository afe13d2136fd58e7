package signal

import (
	"sort"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

// Selection is the ranked, truncated batch produced from a deduped
// candidate pool. UnderTarget flags a result below min_signals; the
// run still completes.
type Selection struct {
	Signals     []Scored
	UnderTarget bool
}

// Select orders the deduped pool by tier severity, then total score
// descending, then signal date descending, and truncates it to the
// profile's max_signals. Discovery order is the final tie-break, so
// the sequence is reproducible for identical inputs.
func Select(deduped []Scored, target profile.TargetOutput) Selection {
	ranked := make([]Scored, len(deduped))
	copy(ranked, deduped)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier.Severity() != b.Tier.Severity() {
			return a.Tier.Severity() < b.Tier.Severity()
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.Date.After(b.Date)
	})

	if target.MaxSignals > 0 && len(ranked) > target.MaxSignals {
		ranked = ranked[:target.MaxSignals]
	}

	return Selection{
		Signals:     ranked,
		UnderTarget: len(ranked) < target.MinSignals,
	}
}

// TierCounts tallies signals per tier, for run summaries.
func TierCounts(signals []Scored) map[Tier]int {
	counts := map[Tier]int{TierHot: 0, TierWarm: 0, TierNurture: 0, TierHold: 0}
	for _, s := range signals {
		counts[s.Tier]++
	}
	return counts
}
