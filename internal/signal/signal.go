// Package signal holds the scoring, deduplication, and ranking core of
// the pipeline. Everything here is pure computation over value types;
// persistence and transport live elsewhere.
package signal

import (
	"fmt"
	"time"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

// Tier is the discretized priority derived from a total score.
type Tier string

const (
	TierHot     Tier = "HOT"
	TierWarm    Tier = "WARM"
	TierNurture Tier = "NURTURE"
	TierHold    Tier = "HOLD"
)

// Severity orders tiers for ranking: HOT sorts first.
func (t Tier) Severity() int {
	switch t {
	case TierHot:
		return 0
	case TierWarm:
		return 1
	case TierNurture:
		return 2
	default:
		return 3
	}
}

// TierFor maps a total score onto a tier using the profile thresholds.
func TierFor(total int, th profile.Thresholds) Tier {
	switch {
	case total >= th.Hot:
		return TierHot
	case total >= th.Warm:
		return TierWarm
	case total >= th.Nurture:
		return TierNurture
	default:
		return TierHold
	}
}

// Signal is one observed, dated, sourced buying-signal event as handed
// over by a discovery source. Date carries the day the signal was
// observed in the world, not when it was fetched.
type Signal struct {
	Institution     string    `json:"institution"`
	Country         string    `json:"country"`
	Region          string    `json:"region"`
	Type            string    `json:"signal_type"`
	Domain          string    `json:"domain"`
	InstitutionTier string    `json:"institution_tier"`
	Seniority       string    `json:"seniority"`
	SourceURL       string    `json:"source_url"`
	Summary         string    `json:"summary"`
	Date            time.Time `json:"signal_date"`
}

// Scored is a Signal plus the five computed point categories, the
// derived total and tier, and the scoring timestamp.
type Scored struct {
	Signal

	ActionPts         int       `json:"action_pts"`
	SeniorityPts      int       `json:"seniority_pts"`
	DomainPts         int       `json:"domain_pts"`
	AccessibilityPts  int       `json:"accessibility_pts"`
	RecencyPts        int       `json:"recency_pts"`
	SeniorityInferred bool      `json:"seniority_inferred"`
	TotalScore        int       `json:"total_score"`
	Tier              Tier      `json:"priority_tier"`
	ScoredAt          time.Time `json:"scored_at"`
}

// ValidationError reports a raw signal missing a required field. Such
// signals are rejected from scoring, never silently zero-scored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("signal validation: field %s %s", e.Field, e.Reason)
}
