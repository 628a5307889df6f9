package recurring

import (
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
)

// frequencyCandidates is the evaluation order for cadence inference.
// Monthly sits first so that ties between bands resolve to monthly.
var frequencyCandidates = []ledger.Frequency{
	ledger.Monthly,
	ledger.Weekly,
	ledger.Quarterly,
	ledger.Yearly,
}

// toleranceMultiplier widens the configured date variance for longer
// cadences, where billing dates drift more.
var toleranceMultiplier = map[ledger.Frequency]int{
	ledger.Weekly:    1,
	ledger.Monthly:   2,
	ledger.Quarterly: 3,
	ledger.Yearly:    7,
}

// meanAmount averages the absolute observation amounts at full decimal
// precision.
func meanAmount(obs []Observation) decimal.Decimal {
	if len(obs) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, o := range obs {
		sum = sum.Add(o.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(obs))))
}

// amountConsistency is the fraction of observations whose amount falls
// within tolerancePct percent of the mean.
func amountConsistency(obs []Observation, mean decimal.Decimal, tolerancePct float64) float64 {
	if len(obs) == 0 {
		return 0
	}
	band := mean.Mul(decimal.NewFromFloat(tolerancePct)).Div(decimal.NewFromInt(100))
	matched := 0
	for _, o := range obs {
		if o.Amount.Sub(mean).Abs().LessThanOrEqual(band) {
			matched++
		}
	}
	return float64(matched) / float64(len(obs))
}

// dayGaps returns the whole-day gaps between consecutive observations,
// which must already be sorted by date.
func dayGaps(obs []Observation) []int {
	if len(obs) < 2 {
		return nil
	}
	gaps := make([]int, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		gaps = append(gaps, ledger.DaysBetween(obs[i-1].Date, obs[i].Date))
	}
	return gaps
}

// inferFrequency picks the cadence whose nominal interval the observed
// gaps hit most often, each cadence judged inside its own variance
// window. The timing score is the winning hit fraction. A group with a
// single observation reports monthly at score zero.
func inferFrequency(obs []Observation, varianceDays int) (ledger.Frequency, float64) {
	gaps := dayGaps(obs)
	if len(gaps) == 0 {
		return ledger.Monthly, 0
	}
	best := ledger.Monthly
	bestScore := -1.0
	for _, freq := range frequencyCandidates {
		window := varianceDays * toleranceMultiplier[freq]
		expected := freq.IntervalDays()
		hits := 0
		for _, gap := range gaps {
			diff := gap - expected
			if diff < 0 {
				diff = -diff
			}
			if diff <= window {
				hits++
			}
		}
		if score := float64(hits) / float64(len(gaps)); score > bestScore {
			best = freq
			bestScore = score
		}
	}
	return best, bestScore
}
