package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// flatProfile has no ranking categories, so totals are plain sums of
// the five point buckets.
func flatProfile() profile.Profile {
	return profile.Profile{
		Objective:      "test",
		TimeWindowDays: 90,
		Domains:        []string{"stablecoin", "digital_assets"},
		Target:         profile.TargetOutput{MinSignals: 0, MaxSignals: 25},
		Ranking: profile.Ranking{
			Thresholds: profile.Thresholds{Hot: 80, Warm: 60, Nurture: 40},
		},
	}
}

func regionalBankSignal() Signal {
	return Signal{
		Institution:     "Truist Financial",
		Country:         "US",
		Region:          "North America",
		Type:            "job_posting",
		Domain:          "stablecoin",
		InstitutionTier: "Regional/Community Bank",
		Seniority:       "VP",
		SourceURL:       "https://example.com/posting",
		Summary:         "Hiring a VP of Digital Assets to lead stablecoin settlement work.",
		Date:            testNow.AddDate(0, 0, -5),
	}
}

func TestScoreRegionalBankPosting(t *testing.T) {
	p := flatProfile()
	scored, err := Score(regionalBankSignal(), &p, testNow)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if scored.ActionPts != 20 {
		t.Errorf("action points = %d, want 20", scored.ActionPts)
	}
	if scored.SeniorityPts != 15 || scored.SeniorityInferred {
		t.Errorf("seniority = %d (inferred=%v), want 15 explicit", scored.SeniorityPts, scored.SeniorityInferred)
	}
	if scored.DomainPts != MaxDomainPts {
		t.Errorf("domain points = %d, want %d for allow-list match", scored.DomainPts, MaxDomainPts)
	}
	if scored.AccessibilityPts != 12 {
		t.Errorf("accessibility points = %d, want 12", scored.AccessibilityPts)
	}
	if scored.RecencyPts != 10 {
		t.Errorf("recency points = %d, want 10 at 5 days", scored.RecencyPts)
	}
	if scored.TotalScore != 82 {
		t.Errorf("total = %d, want 82", scored.TotalScore)
	}
	if scored.Tier != TierHot {
		t.Errorf("tier = %s, want HOT", scored.Tier)
	}
}

func TestScoreWeightedCategories(t *testing.T) {
	p := flatProfile()
	p.Ranking.Categories = profile.Default().Ranking.Categories

	scored, err := Score(regionalBankSignal(), &p, testNow)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	// action 20/30*30 + accessibility 12/15*25 + domain 25/25*20 +
	// seniority 15/20*15 + recency 10/10*10 = 91.25, rounded.
	if scored.TotalScore != 91 {
		t.Errorf("weighted total = %d, want 91", scored.TotalScore)
	}
	if scored.Tier != TierHot {
		t.Errorf("tier = %s, want HOT", scored.Tier)
	}
}

func TestScoreBounds(t *testing.T) {
	p := flatProfile()
	p.TimeWindowDays = 4000

	best := Signal{
		Institution:     "Acme Fintech",
		Type:            "launch",
		Domain:          "stablecoin",
		InstitutionTier: "Series A+ Fintech",
		Seniority:       "C-Suite",
		Date:            testNow.AddDate(0, 0, -1),
	}
	scored, err := Score(best, &p, testNow)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if scored.TotalScore != 100 {
		t.Errorf("best-case total = %d, want 100", scored.TotalScore)
	}

	worst := Signal{
		Institution: "Somewhere",
		Type:        "other",
		Domain:      "unrelated",
		Date:        testNow.AddDate(-2, 0, 0),
	}
	scored, err = Score(worst, &p, testNow)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if scored.TotalScore < 0 || scored.TotalScore > 100 {
		t.Errorf("total %d out of range [0,100]", scored.TotalScore)
	}
	if scored.Tier != TierHold {
		t.Errorf("tier = %s, want HOLD", scored.Tier)
	}
}

func TestScoreOutsideWindow(t *testing.T) {
	p := flatProfile()
	sig := regionalBankSignal()
	sig.Date = testNow.AddDate(0, 0, -120)

	_, err := Score(sig, &p, testNow)
	if !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("err = %v, want ErrOutsideWindow", err)
	}
}

func TestScoreRequiredFields(t *testing.T) {
	p := flatProfile()

	sig := regionalBankSignal()
	sig.Institution = "  "
	_, err := Score(sig, &p, testNow)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "institution" {
		t.Fatalf("err = %v, want institution validation error", err)
	}

	sig = regionalBankSignal()
	sig.Date = time.Time{}
	_, err = Score(sig, &p, testNow)
	if !errors.As(err, &vErr) || vErr.Field != "signal_date" {
		t.Fatalf("err = %v, want signal_date validation error", err)
	}
}

func TestSeniorityInference(t *testing.T) {
	cases := []struct {
		name     string
		sigType  string
		domain   string
		wantPts  int
		inferred bool
	}{
		{"partnership in stablecoin", "partnership", "stablecoin", 15, true},
		{"launch in digital assets", "launch", "digital_assets", 12, true},
		{"hire in stablecoin", "hire", "stablecoin", 5, false},
		{"partnership outside money domains", "partnership", "ai_implementation", 5, false},
	}

	p := flatProfile()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := regionalBankSignal()
			sig.Seniority = ""
			sig.Type = tc.sigType
			sig.Domain = tc.domain

			scored, err := Score(sig, &p, testNow)
			if err != nil {
				t.Fatalf("Score returned error: %v", err)
			}
			if scored.SeniorityPts != tc.wantPts || scored.SeniorityInferred != tc.inferred {
				t.Errorf("seniority = %d (inferred=%v), want %d (inferred=%v)",
					scored.SeniorityPts, scored.SeniorityInferred, tc.wantPts, tc.inferred)
			}
		})
	}
}

func TestActionKeywordAdjustment(t *testing.T) {
	p := flatProfile()

	sig := regionalBankSignal()
	sig.Type = "pilot"
	sig.Summary = "The bank has launched its settlement pilot in production."
	scored, err := Score(sig, &p, testNow)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if scored.ActionPts != 25 {
		t.Errorf("execution-language pilot = %d, want 25", scored.ActionPts)
	}

	sig.Summary = "The bank is exploring a settlement pilot."
	scored, err = Score(sig, &p, testNow)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if scored.ActionPts != 20 {
		t.Errorf("exploratory pilot = %d, want 20", scored.ActionPts)
	}
}

func TestDomainAdjacency(t *testing.T) {
	p := flatProfile()
	p.Domains = []string{"stablecoin", "ai_compliance_risk"}

	cases := []struct {
		domain string
		want   int
	}{
		{"stablecoin", 25},
		{"digital_assets", 18},
		{"ai_implementation", 18},
		{"agentic_automation", 20},
		{"quantum_ledgers", 5},
	}
	for _, tc := range cases {
		sig := regionalBankSignal()
		sig.Domain = tc.domain
		scored, err := Score(sig, &p, testNow)
		if err != nil {
			t.Fatalf("Score(%s) returned error: %v", tc.domain, err)
		}
		if scored.DomainPts != tc.want {
			t.Errorf("domain %s = %d, want %d", tc.domain, scored.DomainPts, tc.want)
		}
	}
}

func TestRecencyDecay(t *testing.T) {
	p := flatProfile()
	p.TimeWindowDays = 4000

	cases := []struct {
		daysOld int
		want    int
	}{
		{0, 10},
		{29, 10},
		{30, 7},
		{90, 7},
		{91, 4},
		{180, 4},
		{181, 2},
		{365, 2},
		{366, 0},
	}
	for _, tc := range cases {
		sig := regionalBankSignal()
		sig.Date = testNow.AddDate(0, 0, -tc.daysOld)
		scored, err := Score(sig, &p, testNow)
		if err != nil {
			t.Fatalf("Score at %d days returned error: %v", tc.daysOld, err)
		}
		if scored.RecencyPts != tc.want {
			t.Errorf("recency at %d days = %d, want %d", tc.daysOld, scored.RecencyPts, tc.want)
		}
	}
}

func TestTierForThresholds(t *testing.T) {
	th := profile.Thresholds{Hot: 80, Warm: 60, Nurture: 40}
	cases := []struct {
		total int
		want  Tier
	}{
		{100, TierHot},
		{80, TierHot},
		{79, TierWarm},
		{60, TierWarm},
		{59, TierNurture},
		{40, TierNurture},
		{39, TierHold},
		{0, TierHold},
	}
	for _, tc := range cases {
		if got := TierFor(tc.total, th); got != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.total, got, tc.want)
		}
	}
}
