package signal

import (
	"testing"
	"time"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

func ranked(institution string, tier Tier, total int, date time.Time) Scored {
	return Scored{
		Signal:     Signal{Institution: institution, Date: date},
		TotalScore: total,
		Tier:       tier,
	}
}

func TestSelectOrdering(t *testing.T) {
	pool := []Scored{
		ranked("nurture-high", TierNurture, 55, testNow.AddDate(0, 0, -2)),
		ranked("hot-low", TierHot, 81, testNow.AddDate(0, 0, -20)),
		ranked("warm-old", TierWarm, 70, testNow.AddDate(0, 0, -30)),
		ranked("warm-new", TierWarm, 70, testNow.AddDate(0, 0, -1)),
		ranked("hot-high", TierHot, 95, testNow.AddDate(0, 0, -3)),
	}

	sel := Select(pool, profile.TargetOutput{MinSignals: 0, MaxSignals: 25})
	got := make([]string, len(sel.Signals))
	for i, s := range sel.Signals {
		got[i] = s.Institution
	}

	want := []string{"hot-high", "hot-low", "warm-new", "warm-old", "nurture-high"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s (full order %v)", i, got[i], want[i], got)
		}
	}
}

func TestSelectStableOnFullTie(t *testing.T) {
	date := testNow.AddDate(0, 0, -5)
	pool := []Scored{
		ranked("first", TierWarm, 70, date),
		ranked("second", TierWarm, 70, date),
	}

	sel := Select(pool, profile.TargetOutput{MaxSignals: 25})
	if sel.Signals[0].Institution != "first" || sel.Signals[1].Institution != "second" {
		t.Errorf("full tie should preserve discovery order, got %s then %s",
			sel.Signals[0].Institution, sel.Signals[1].Institution)
	}
}

func TestSelectTruncates(t *testing.T) {
	pool := make([]Scored, 30)
	for i := range pool {
		pool[i] = ranked("inst", TierWarm, 70-i, testNow)
	}

	sel := Select(pool, profile.TargetOutput{MinSignals: 20, MaxSignals: 25})
	if len(sel.Signals) != 25 {
		t.Fatalf("selected %d signals, want 25", len(sel.Signals))
	}
	if sel.UnderTarget {
		t.Error("25 selected of min 20 should not be under target")
	}
}

func TestSelectUnderTarget(t *testing.T) {
	pool := make([]Scored, 12)
	for i := range pool {
		pool[i] = ranked("inst", TierWarm, 70, testNow)
	}

	sel := Select(pool, profile.TargetOutput{MinSignals: 20, MaxSignals: 25})
	if len(sel.Signals) != 12 {
		t.Fatalf("selected %d signals, want all 12", len(sel.Signals))
	}
	if !sel.UnderTarget {
		t.Error("12 selected of min 20 should be under target")
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	pool := []Scored{
		ranked("b", TierWarm, 70, testNow),
		ranked("a", TierHot, 90, testNow),
	}

	Select(pool, profile.TargetOutput{MaxSignals: 25})
	if pool[0].Institution != "b" {
		t.Error("Select reordered its input slice")
	}
}

func TestTierCounts(t *testing.T) {
	pool := []Scored{
		ranked("a", TierHot, 90, testNow),
		ranked("b", TierHot, 85, testNow),
		ranked("c", TierNurture, 45, testNow),
	}

	counts := TierCounts(pool)
	if counts[TierHot] != 2 || counts[TierWarm] != 0 || counts[TierNurture] != 1 || counts[TierHold] != 0 {
		t.Errorf("counts = %v", counts)
	}
}
