package signal

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func scoredSignal(institution, sigType, url string, date time.Time, total int) Scored {
	return Scored{
		Signal: Signal{
			Institution: institution,
			Type:        sigType,
			SourceURL:   url,
			Date:        date,
		},
		TotalScore: total,
	}
}

func TestDedupePreferNew(t *testing.T) {
	older := scoredSignal("Truist Financial", "hire", "", testNow.AddDate(0, 0, -10), 80)
	newer := scoredSignal("Truist Financial Inc.", "hire", "", testNow.AddDate(0, 0, -8), 70)

	kept := Dedupe([]Scored{older, newer}, PolicyPreferNew)
	if len(kept) != 1 {
		t.Fatalf("kept %d signals, want 1", len(kept))
	}
	if !kept[0].Date.Equal(newer.Date) {
		t.Errorf("survivor date = %s, want the newer signal", kept[0].Date)
	}
}

func TestDedupePreferNewTieKeepsFirst(t *testing.T) {
	date := testNow.AddDate(0, 0, -10)
	first := scoredSignal("Truist Financial", "hire", "", date, 80)
	second := scoredSignal("Truist Financial", "hire", "", date, 70)

	kept := Dedupe([]Scored{first, second}, PolicyPreferNew)
	if len(kept) != 1 {
		t.Fatalf("kept %d signals, want 1", len(kept))
	}
	if kept[0].TotalScore != 80 {
		t.Errorf("tie should keep the earlier-appearing candidate, got score %d", kept[0].TotalScore)
	}
}

func TestDedupePreferHighScore(t *testing.T) {
	low := scoredSignal("Truist Financial", "hire", "", testNow.AddDate(0, 0, -2), 60)
	high := scoredSignal("Truist Financial", "hire", "", testNow.AddDate(0, 0, -30), 90)

	kept := Dedupe([]Scored{low, high}, PolicyPreferHighScore)
	if len(kept) != 1 || kept[0].TotalScore != 90 {
		t.Fatalf("kept %+v, want single survivor with score 90", kept)
	}
}

func TestDedupeKeepAll(t *testing.T) {
	a := scoredSignal("Truist Financial", "hire", "", testNow, 80)
	b := scoredSignal("Truist Financial", "hire", "", testNow, 70)

	kept := Dedupe([]Scored{a, b}, PolicyKeepAll)
	if len(kept) != 2 {
		t.Fatalf("keep_all kept %d signals, want 2", len(kept))
	}
}

func TestDedupeBySourceURL(t *testing.T) {
	a := scoredSignal("Truist Financial", "hire", "https://example.com/a", testNow.AddDate(0, 0, -3), 80)
	b := scoredSignal("Completely Different Name", "launch", "HTTPS://example.com/a", testNow.AddDate(0, 0, -1), 70)

	kept := Dedupe([]Scored{a, b}, PolicyPreferNew)
	if len(kept) != 1 {
		t.Fatalf("kept %d signals, want 1 for shared URL", len(kept))
	}
}

func TestDedupeDistinctTypesSurvive(t *testing.T) {
	hire := scoredSignal("Truist Financial", "hire", "", testNow, 80)
	launch := scoredSignal("Truist Financial", "launch", "", testNow, 70)

	kept := Dedupe([]Scored{hire, launch}, PolicyPreferNew)
	if len(kept) != 2 {
		t.Fatalf("kept %d signals, want 2 for distinct types", len(kept))
	}
}

func TestDedupeIdempotent(t *testing.T) {
	pool := []Scored{
		scoredSignal("Truist Financial", "hire", "", testNow.AddDate(0, 0, -10), 80),
		scoredSignal("Truist Financial Inc.", "hire", "", testNow.AddDate(0, 0, -8), 70),
		scoredSignal("Acme Fintech", "launch", "", testNow.AddDate(0, 0, -1), 95),
	}

	once := Dedupe(pool, PolicyPreferNew)
	twice := Dedupe(once, PolicyPreferNew)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedupe is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); p != PolicyPreferNew || err != nil {
		t.Errorf("empty policy = %s, %v; want prefer_new, nil", p, err)
	}
	if p, err := ParsePolicy("prefer_high_score"); p != PolicyPreferHighScore || err != nil {
		t.Errorf("prefer_high_score = %s, %v", p, err)
	}

	p, err := ParsePolicy("prefer_shiny")
	if p != PolicyPreferNew {
		t.Errorf("unknown policy should fall back to prefer_new, got %s", p)
	}
	var pErr *PolicyError
	if !errors.As(err, &pErr) || pErr.Value != "prefer_shiny" {
		t.Errorf("err = %v, want PolicyError for prefer_shiny", err)
	}
}

func TestNormalizeInstitution(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Truist Financial Inc.", "truist financial"},
		{"TRUIST FINANCIAL", "truist financial"},
		{"Acme Holdings, Ltd.", "acme"},
		{"Banco Santander S.A.", "banco santander s a"},
		{"Co", "co"},
	}
	for _, tc := range cases {
		if got := NormalizeInstitution(tc.in); got != tc.want {
			t.Errorf("NormalizeInstitution(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
