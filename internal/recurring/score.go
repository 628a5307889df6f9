package recurring

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
)

const daysPerYear = 365.0

// confidence blends amount consistency and timing regularity with how
// much evidence backs the pattern:
//
//	0.60 * mean(amountScore, timingScore)
//	0.25 * min(occurrences / (2*minOccurrences), 1)
//	0.15 * min(daysObserved / 365, 1)
func confidence(amountScore, timingScore float64, occurrences, minOccurrences int, firstSeen, now time.Time) float64 {
	base := (amountScore + timingScore) / 2
	countWeight := math.Min(float64(occurrences)/float64(2*minOccurrences), 1)
	ageWeight := math.Min(float64(ledger.DaysBetween(firstSeen, now))/daysPerYear, 1)
	return clamp01(0.60*base + 0.25*countWeight + 0.15*ageWeight)
}

// riskScore estimates the exposure an unconfirmed pattern represents.
// Low confidence, large average charges, thin history and a short
// observation window all push it up.
func riskScore(conf float64, mean decimal.Decimal, occurrences int, firstSeen, now time.Time, large, medium decimal.Decimal) float64 {
	risk := (1 - conf) * 0.4
	switch {
	case mean.GreaterThanOrEqual(large):
		risk += 0.3
	case mean.GreaterThanOrEqual(medium):
		risk += 0.15
	}
	if occurrences < 5 {
		risk += 0.2
	}
	if ledger.DaysBetween(firstSeen, now) < 90 {
		risk += 0.1
	}
	return clamp01(risk)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
