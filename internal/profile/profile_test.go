package profile

import (
	"strings"
	"testing"
	"time"
)

func validProfile() Profile {
	p := Default()
	p.Normalize(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	return p
}

func TestDefaultProfileIsValid(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("default profile should validate: %v", err)
	}
	if p.Target.MinSignals != DefaultMinSignals || p.Target.MaxSignals != DefaultMaxSignals {
		t.Errorf("target = %d-%d, want %d-%d",
			p.Target.MinSignals, p.Target.MaxSignals, DefaultMinSignals, DefaultMaxSignals)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Profile)
		wantSub string
	}{
		{
			"empty objective",
			func(p *Profile) { p.Objective = "  " },
			"objective",
		},
		{
			"zero time window",
			func(p *Profile) { p.TimeWindowDays = 0 },
			"time_window_days",
		},
		{
			"min above max",
			func(p *Profile) { p.Target.MinSignals = 30; p.Target.MaxSignals = 25 },
			"min_signals",
		},
		{
			"weights not 100",
			func(p *Profile) { p.Ranking.Categories[0].Weight += 5 },
			"sum to 100",
		},
		{
			"duplicate category key",
			func(p *Profile) { p.Ranking.Categories[1].Key = p.Ranking.Categories[0].Key },
			"duplicate",
		},
		{
			"thresholds out of order",
			func(p *Profile) { p.Ranking.Thresholds = Thresholds{Hot: 60, Warm: 80, Nurture: 40} },
			"priority_thresholds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProfile()
			tc.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestNormalizeFillsIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Profile{Objective: "test", TimeWindowDays: 90}
	p.Normalize(now)

	if !strings.HasPrefix(p.ProfileID, "profile_") {
		t.Errorf("profile id %q missing prefix", p.ProfileID)
	}
	if p.Version != 1 {
		t.Errorf("version = %d, want 1", p.Version)
	}
	if !p.CreatedAt.Equal(now) {
		t.Errorf("created_at = %s, want %s", p.CreatedAt, now)
	}
	if p.Target.DedupePolicy != "prefer_new" {
		t.Errorf("dedupe policy = %q, want prefer_new", p.Target.DedupePolicy)
	}
}

func TestNormalizeKeepsExistingIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Profile{ProfileID: "profile_keep", Version: 3, CreatedAt: now.AddDate(0, -1, 0)}
	p.Normalize(now)

	if p.ProfileID != "profile_keep" || p.Version != 3 {
		t.Errorf("normalize overwrote identity: %s v%d", p.ProfileID, p.Version)
	}
	if p.CreatedAt.Equal(now) {
		t.Error("normalize overwrote created_at")
	}
}
