package recurring

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConfidenceThreeCleanMonthlyCharges(t *testing.T) {
	now := time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)
	first := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	got := confidence(1, 1, 3, 3, first, now)
	want := 0.60 + 0.25*0.5 + 0.15*(74.0/365.0)
	if !closeTo(got, want) {
		t.Fatalf("confidence = %v, want %v", got, want)
	}
	if got <= 0.7 {
		t.Fatalf("three clean monthly charges must cross the default threshold, got %v", got)
	}
}

func TestConfidenceSaturates(t *testing.T) {
	now := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	first := now.AddDate(-2, 0, 0)
	got := confidence(1, 1, 10, 3, first, now)
	if !closeTo(got, 1) {
		t.Fatalf("saturated confidence = %v, want 1", got)
	}
}

func TestConfidenceMoreEvidenceNeverHurts(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	first := now.AddDate(0, -6, 0)
	prev := 0.0
	for n := 3; n <= 8; n++ {
		got := confidence(1, 1, n, 3, first, now)
		if got < prev {
			t.Fatalf("confidence dropped from %v to %v at %d occurrences", prev, got, n)
		}
		prev = got
	}
}

func TestRiskTiers(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-1, 0, 0)
	recent := now.AddDate(0, 0, -30)
	large := decimal.NewFromInt(10000)
	medium := decimal.NewFromInt(5000)

	cases := []struct {
		name  string
		conf  float64
		mean  string
		occ   int
		first time.Time
		want  float64
	}{
		{"calm", 1, "100", 6, old, 0},
		{"large amount", 1, "12000", 6, old, 0.3},
		{"medium amount", 1, "6000", 6, old, 0.15},
		{"thin history", 1, "100", 3, old, 0.2},
		{"short window", 1, "100", 6, recent, 0.1},
		{"worst case clamps", 0, "20000", 2, recent, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := riskScore(tc.conf, decimal.RequireFromString(tc.mean), tc.occ, tc.first, now, large, medium)
			if !closeTo(got, tc.want) {
				t.Fatalf("riskScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	if clamp01(-0.2) != 0 || clamp01(1.7) != 1 || clamp01(0.4) != 0.4 {
		t.Fatal("clamp01 out of range")
	}
}
