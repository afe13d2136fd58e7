package signal

import (
	"fmt"
	"strings"
)

// Policy selects which duplicate survives within a batch.
type Policy string

const (
	PolicyPreferNew       Policy = "prefer_new"
	PolicyPreferHighScore Policy = "prefer_high_score"
	PolicyKeepAll         Policy = "keep_all"
)

// PolicyError reports an unrecognized dedupe policy value. Callers fall
// back to prefer_new instead of failing the run.
type PolicyError struct {
	Value string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("unknown dedupe_policy %q, falling back to prefer_new", e.Value)
}

// ParsePolicy resolves a profile's dedupe_policy string. Unknown values
// return PolicyPreferNew together with a PolicyError so the run can
// continue with a warning.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case PolicyPreferNew, "":
		return PolicyPreferNew, nil
	case PolicyPreferHighScore:
		return PolicyPreferHighScore, nil
	case PolicyKeepAll:
		return PolicyKeepAll, nil
	default:
		return PolicyPreferNew, &PolicyError{Value: value}
	}
}

// Dedupe resolves duplicate signals within one run's candidate pool.
// Two signals are duplicates when they share a source URL, or when the
// normalized institution name and signal type match. The survivor is a
// selection, never a merge, and ties break to the earlier-appearing
// candidate so the result is deterministic for a fixed input ordering.
func Dedupe(candidates []Scored, policy Policy) []Scored {
	if policy == PolicyKeepAll || len(candidates) == 0 {
		return candidates
	}

	kept := make([]Scored, 0, len(candidates))
	slot := make(map[string]int, len(candidates))

	for _, cand := range candidates {
		key := Fingerprint(cand.Signal)
		idx, seen := slot[key]
		if !seen {
			slot[key] = len(kept)
			kept = append(kept, cand)
			continue
		}
		if wins(cand, kept[idx], policy) {
			kept[idx] = cand
		}
	}
	return kept
}

// wins reports whether the challenger strictly beats the incumbent
// under the policy. Equal candidates keep the incumbent.
func wins(challenger, incumbent Scored, policy Policy) bool {
	switch policy {
	case PolicyPreferHighScore:
		return challenger.TotalScore > incumbent.TotalScore
	default: // prefer_new
		return challenger.Date.After(incumbent.Date)
	}
}

// Fingerprint returns the stable duplicate key for a signal: the
// lowercased source URL when present, otherwise the normalized
// institution name joined with the signal type.
func Fingerprint(sig Signal) string {
	if url := strings.ToLower(strings.TrimSpace(sig.SourceURL)); url != "" {
		return "url::" + url
	}
	return "pair::" + NormalizeInstitution(sig.Institution) + "|" + normalizeKey(sig.Type)
}

// legalSuffixes are corporate designators stripped during institution
// name normalization so "Acme Inc." and "Acme" collapse together.
var legalSuffixes = map[string]bool{
	"inc": true, "corp": true, "corporation": true, "llc": true,
	"ltd": true, "plc": true, "co": true, "company": true,
	"group": true, "holdings": true, "sa": true, "ag": true, "nv": true,
}

// NormalizeInstitution lowercases, strips punctuation, and drops
// trailing legal designators from an institution name.
func NormalizeInstitution(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
