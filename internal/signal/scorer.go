package signal

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kakaur/tensr-signal-agent/internal/profile"
)

// Per-category point ceilings. The five maxes sum to 100 so that the
// unweighted total is directly comparable to the tier thresholds.
const (
	MaxActionPts        = 30
	MaxSeniorityPts     = 20
	MaxDomainPts        = 25
	MaxAccessibilityPts = 15
	MaxRecencyPts       = 10
)

// ErrOutsideWindow marks a signal older than the profile's trailing
// time window. Such signals are excluded before scoring rather than
// scored with zero recency.
var ErrOutsideWindow = errors.New("signal outside profile time window")

// actionTypeScores maps the declared signal type onto the action scale.
// Concrete execution (launch, filing) outranks exploratory activity.
var actionTypeScores = map[string]int{
	"launch":        30,
	"filing":        25,
	"pilot":         22,
	"hire":          20,
	"job_posting":   20,
	"partnership":   15,
	"investment":    10,
	"conference":    10,
	"press_release": 15,
	"other":         5,
}

// actionScale is the ordinal ladder execution-stage keywords move
// signals along. Must stay sorted ascending.
var actionScale = []int{5, 10, 15, 20, 22, 25, 30}

var executionKeywords = []string{
	"launching", "launched", "deploying", "deployed",
	"rolling out", "rolled out", "went live", "in production", "go-live",
}

var exploratoryKeywords = []string{
	"exploring", "considering", "evaluating", "researching", "studying the",
}

var seniorityScores = map[string]int{
	"c-suite":        20,
	"board":          20,
	"md":             20,
	"c-suite/md":     20,
	"vp":             15,
	"director":       15,
	"vp/director":    15,
	"senior":         10,
	"manager":        10,
	"senior/manager": 10,
	"unknown":        5,
}

// domainFitScores is the fallback scale when the profile declares no
// domain allow-list of its own.
var domainFitScores = map[string]int{
	"stablecoin":         25,
	"digital_assets":     22,
	"agentic_automation": 20,
	"ai_compliance_risk": 18,
	"ai_implementation":  16,
	"ai_transformation":  14,
	"other":              5,
}

// institutionScores favours smaller, directly reachable institutions
// with faster procurement cycles.
var institutionScores = map[string]int{
	"series a+ fintech":       15,
	"regional/community bank": 12,
	"mid-tier bank":           8,
	"consortium":              6,
	"unknown":                 5,
}

// componentAliases maps profile ranking category keys onto the
// concrete point buckets they weight.
var componentAliases = map[string]string{
	"action_strength":           "action",
	"action_type":               "action",
	"seniority":                 "seniority",
	"domain_fit":                "domain",
	"buyer_fit":                 "accessibility",
	"institution_fit":           "accessibility",
	"institution_accessibility": "accessibility",
	"recency":                   "recency",
}

var componentMax = map[string]int{
	"action":        MaxActionPts,
	"seniority":     MaxSeniorityPts,
	"domain":        MaxDomainPts,
	"accessibility": MaxAccessibilityPts,
	"recency":       MaxRecencyPts,
}

// Score computes the five point categories, total, and tier for one
// raw signal under the given profile. It is a pure function of its
// arguments; now is the reference clock for recency.
func Score(sig Signal, p *profile.Profile, now time.Time) (Scored, error) {
	if strings.TrimSpace(sig.Institution) == "" {
		return Scored{}, &ValidationError{Field: "institution", Reason: "is required"}
	}
	if sig.Date.IsZero() {
		return Scored{}, &ValidationError{Field: "signal_date", Reason: "is required"}
	}

	daysOld := int(now.Sub(sig.Date).Hours() / 24)
	if p.TimeWindowDays > 0 && daysOld > p.TimeWindowDays {
		return Scored{}, ErrOutsideWindow
	}

	scored := Scored{Signal: sig, ScoredAt: now}
	scored.ActionPts = actionPoints(sig)
	scored.SeniorityPts, scored.SeniorityInferred = seniorityPoints(sig)
	scored.DomainPts = domainPoints(sig.Domain, p.Domains)
	scored.AccessibilityPts = accessibilityPoints(sig.InstitutionTier)
	scored.RecencyPts = recencyPoints(daysOld)

	scored.TotalScore = totalScore(scored, p.Ranking.Categories)
	scored.Tier = TierFor(scored.TotalScore, p.Ranking.Thresholds)
	return scored, nil
}

func actionPoints(sig Signal) int {
	pts, ok := actionTypeScores[normalizeKey(sig.Type)]
	if !ok {
		pts = 5
	}

	summary := strings.ToLower(sig.Summary)
	if containsAny(summary, executionKeywords) {
		pts = scaleStep(pts, 1)
	} else if containsAny(summary, exploratoryKeywords) {
		pts = scaleStep(pts, -1)
	}
	return pts
}

// scaleStep moves a value one rung along the action scale, clamped at
// both ends so category maxes always hold.
func scaleStep(pts, dir int) int {
	idx := 0
	for i, v := range actionScale {
		if v <= pts {
			idx = i
		}
	}
	idx += dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(actionScale) {
		idx = len(actionScale) - 1
	}
	return actionScale[idx]
}

func seniorityPoints(sig Signal) (int, bool) {
	key := normalizeKey(sig.Seniority)
	if key == "" {
		key = "unknown"
	}
	if pts, ok := seniorityScores[key]; ok && key != "unknown" {
		return pts, false
	}

	// Strategic partnerships and launches in money domains carry an
	// implicit senior sponsor even when no name is attached.
	sigType := normalizeKey(sig.Type)
	domain := normalizeKey(sig.Domain)
	if domain == "stablecoin" || domain == "digital_assets" {
		switch sigType {
		case "partnership":
			return 15, true
		case "launch":
			return 12, true
		}
	}
	return seniorityScores["unknown"], false
}

func domainPoints(domain string, allowed []string) int {
	key := normalizeKey(domain)
	for _, a := range allowed {
		if normalizeKey(a) == key {
			return MaxDomainPts
		}
	}
	for _, a := range allowed {
		if relatedDomains(normalizeKey(a), key) {
			return 18
		}
	}
	if pts, ok := domainFitScores[key]; ok {
		return pts
	}
	return 5
}

// relatedDomains treats domains sharing a leading token ("ai_...") or
// belonging to the digital-money group as adjacent.
func relatedDomains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	moneyGroup := map[string]bool{"stablecoin": true, "digital_assets": true}
	if moneyGroup[a] && moneyGroup[b] {
		return true
	}
	ta, _, okA := strings.Cut(a, "_")
	tb, _, okB := strings.Cut(b, "_")
	return okA && okB && ta == tb
}

func accessibilityPoints(tier string) int {
	if pts, ok := institutionScores[normalizeKey(tier)]; ok {
		return pts
	}
	return institutionScores["unknown"]
}

// recencyPoints applies the step decay from signal date to now.
func recencyPoints(daysOld int) int {
	switch {
	case daysOld < 0:
		return 0
	case daysOld < 30:
		return 10
	case daysOld <= 90:
		return 7
	case daysOld <= 180:
		return 4
	case daysOld <= 365:
		return 2
	default:
		return 0
	}
}

// totalScore sums the five buckets, or computes the weight-normalized
// total when the profile declares ranking categories. Either way the
// result stays within [0, 100].
func totalScore(s Scored, categories []profile.Category) int {
	if len(categories) == 0 {
		return s.ActionPts + s.SeniorityPts + s.DomainPts + s.AccessibilityPts + s.RecencyPts
	}

	points := map[string]int{
		"action":        s.ActionPts,
		"seniority":     s.SeniorityPts,
		"domain":        s.DomainPts,
		"accessibility": s.AccessibilityPts,
		"recency":       s.RecencyPts,
	}

	weighted := decimal.Zero
	for _, cat := range categories {
		component, ok := componentAliases[normalizeKey(cat.Key)]
		if !ok {
			// Unknown custom category: neutral half-weight contribution.
			weighted = weighted.Add(decimal.NewFromInt(int64(cat.Weight)).Div(decimal.NewFromInt(2)))
			continue
		}
		normalized := decimal.NewFromInt(int64(points[component])).
			Div(decimal.NewFromInt(int64(componentMax[component])))
		if normalized.GreaterThan(decimal.NewFromInt(1)) {
			normalized = decimal.NewFromInt(1)
		}
		weighted = weighted.Add(normalized.Mul(decimal.NewFromInt(int64(cat.Weight))))
	}

	total := int(weighted.Round(0).IntPart())
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " / ", "/")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
