package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default target output bounds, matching the stock briefing profile.
const (
	DefaultMinSignals = 20
	DefaultMaxSignals = 25
)

// Category is one weighted ranking dimension of a profile.
type Category struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Weight      int    `json:"weight"`
	Description string `json:"description,omitempty"`
}

// Thresholds hold the score cutoffs separating priority tiers.
// Anything below Nurture falls into HOLD.
type Thresholds struct {
	Hot     int `json:"HOT"`
	Warm    int `json:"WARM"`
	Nurture int `json:"NURTURE"`
}

// Ranking configures weighted scoring and tier assignment.
type Ranking struct {
	Categories []Category `json:"categories"`
	Thresholds Thresholds `json:"priority_thresholds"`
}

// TargetOutput bounds the size of a finalized batch.
type TargetOutput struct {
	MinSignals   int    `json:"min_signals"`
	MaxSignals   int    `json:"max_signals"`
	DedupePolicy string `json:"dedupe_policy"`
}

// Profile is the named, versioned configuration governing filtering,
// scoring weights, and output bounds for a pipeline run. Saves always
// produce a new file; a profile referenced by a run is never mutated.
type Profile struct {
	ProfileID      string       `json:"profile_id"`
	Version        int          `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	Objective      string       `json:"objective"`
	Regions        []string     `json:"regions"`
	Countries      []string     `json:"countries"`
	TimeWindowDays int          `json:"time_window_days"`
	Domains        []string     `json:"domains"`
	SignalTypes    []string     `json:"signal_types"`
	InclusionRules []string     `json:"inclusion_rules"`
	ExclusionRules []string     `json:"exclusion_rules"`
	Target         TargetOutput `json:"target_output"`
	Ranking        Ranking      `json:"ranking"`
}

// Validate checks the profile invariants. Every violation names the
// offending field so callers can surface it directly.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Objective) == "" {
		return fmt.Errorf("profile: objective must not be empty")
	}
	if p.TimeWindowDays < 1 {
		return fmt.Errorf("profile: time_window_days must be at least 1, got %d", p.TimeWindowDays)
	}
	if p.Target.MinSignals < 0 {
		return fmt.Errorf("profile: target_output.min_signals cannot be negative")
	}
	if p.Target.MaxSignals < p.Target.MinSignals {
		return fmt.Errorf(
			"profile: target_output.min_signals (%d) exceeds max_signals (%d)",
			p.Target.MinSignals, p.Target.MaxSignals,
		)
	}

	if len(p.Ranking.Categories) > 0 {
		seen := make(map[string]struct{}, len(p.Ranking.Categories))
		total := 0
		for _, cat := range p.Ranking.Categories {
			key := strings.TrimSpace(cat.Key)
			if key == "" {
				return fmt.Errorf("profile: ranking category key must not be empty")
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("profile: duplicate ranking category key %q", key)
			}
			seen[key] = struct{}{}
			if cat.Weight < 0 || cat.Weight > 100 {
				return fmt.Errorf("profile: ranking category %q weight %d out of range [0,100]", key, cat.Weight)
			}
			total += cat.Weight
		}
		if total != 100 {
			return fmt.Errorf("profile: ranking category weights must sum to 100, got %d", total)
		}
	}

	th := p.Ranking.Thresholds
	if !(th.Hot > th.Warm && th.Warm > th.Nurture && th.Nurture >= 0) {
		return fmt.Errorf(
			"profile: priority_thresholds must satisfy HOT > WARM > NURTURE >= 0, got %d/%d/%d",
			th.Hot, th.Warm, th.Nurture,
		)
	}

	return nil
}

// Normalize fills identity fields a hand-written profile may omit.
func (p *Profile) Normalize(now time.Time) {
	if p.ProfileID == "" {
		p.ProfileID = "profile_" + uuid.NewString()[:12]
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Target.DedupePolicy == "" {
		p.Target.DedupePolicy = "prefer_new"
	}
}

// Default returns the stock profile used when no briefing has run yet.
func Default() Profile {
	p := Profile{
		Objective:      "Identify 20-25 net-new buying signals for stablecoin and AI consulting at banks and fintechs.",
		Regions:        []string{"North America", "Europe"},
		TimeWindowDays: 90,
		Domains: []string{
			"stablecoin",
			"digital_assets",
			"ai_compliance_risk",
			"ai_implementation",
			"agentic_automation",
		},
		SignalTypes: []string{"hire", "partnership", "launch", "pilot", "filing"},
		InclusionRules: []string{
			"Target institutions that are buyers/adopters, not vendors.",
			"Prioritize strategic initiatives with implementation budget signals.",
		},
		ExclusionRules: []string{
			"Exclude Tier-1 global banks, Big Tech, and top global consultancies.",
			"Exclude primary crypto/NFT/Web3 companies.",
		},
		Target: TargetOutput{
			MinSignals:   DefaultMinSignals,
			MaxSignals:   DefaultMaxSignals,
			DedupePolicy: "prefer_new",
		},
		Ranking: Ranking{
			Categories: []Category{
				{Key: "action_strength", Label: "Action Strength", Weight: 30, Description: "How concrete the institutional action is."},
				{Key: "buyer_fit", Label: "Buyer Fit", Weight: 25, Description: "How likely the institution is to buy consulting/services."},
				{Key: "domain_fit", Label: "Domain Fit", Weight: 20, Description: "Alignment with chosen use-case domains."},
				{Key: "seniority", Label: "Seniority", Weight: 15, Description: "Decision-maker level tied to the signal."},
				{Key: "recency", Label: "Recency", Weight: 10, Description: "How recent the signal is."},
			},
			Thresholds: Thresholds{Hot: 80, Warm: 60, Nurture: 40},
		},
	}
	p.Normalize(time.Now().UTC())
	return p
}
