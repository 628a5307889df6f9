package recurring

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
	"salaryman/internal/merchant"
)

// reconcileTolerance is the +/- fraction of the observed mean inside
// which a declared payment amount counts as the same obligation.
var reconcileTolerance = decimal.NewFromFloat(0.10)

// Detector mines confident recurring patterns out of raw transactions.
type Detector struct {
	opts   Options
	logger zerolog.Logger
}

// NewDetector builds a detector. Fields whose zero value is meaningless
// (occurrence floor, lookback, risk amounts) fall back to the defaults;
// zero tolerances and a zero threshold are honored as configured.
func NewDetector(opts Options, logger zerolog.Logger) *Detector {
	def := DefaultOptions()
	if opts.MinOccurrences == 0 {
		opts.MinOccurrences = def.MinOccurrences
	}
	if opts.LookbackMonths == 0 {
		opts.LookbackMonths = def.LookbackMonths
	}
	if opts.LargeAmount.IsZero() {
		opts.LargeAmount = def.LargeAmount
	}
	if opts.MediumAmount.IsZero() {
		opts.MediumAmount = def.MediumAmount
	}
	return &Detector{opts: opts, logger: logger}
}

type group struct {
	account   uuid.UUID
	signature string
}

// Detect mines patterns from the user's transactions and reconciles them
// against declared payments. Transactions may arrive in any order; only
// expense rows inside the lookback window ending at now participate.
// Results come back sorted by confidence, highest first.
func (d *Detector) Detect(now time.Time, txns []ledger.Transaction, declared []ledger.RecurringPayment) []Detection {
	since := now.AddDate(0, -d.opts.LookbackMonths, 0)
	groups := make(map[group][]ledger.Transaction)
	var order []group
	for _, t := range txns {
		if !t.IsExpense() || t.OccurredAt.Before(since) || t.OccurredAt.After(now) {
			continue
		}
		sig := merchant.Normalize(t.Description)
		if sig == "" {
			continue
		}
		key := group{account: t.AccountID, signature: sig}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	detections := make([]Detection, 0, len(order))
	for _, key := range order {
		members := groups[key]
		if len(members) < d.opts.MinOccurrences {
			continue
		}
		det, ok := d.analyze(now, key, members, declared)
		if !ok {
			continue
		}
		detections = append(detections, det)
	}

	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].Pattern.Confidence != detections[j].Pattern.Confidence {
			return detections[i].Pattern.Confidence > detections[j].Pattern.Confidence
		}
		return detections[i].Pattern.Signature < detections[j].Pattern.Signature
	})
	d.logger.Debug().
		Int("groups", len(order)).
		Int("detections", len(detections)).
		Msg("detection pass complete")
	return detections
}

func (d *Detector) analyze(now time.Time, key group, members []ledger.Transaction, declared []ledger.RecurringPayment) (Detection, bool) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].OccurredAt.Before(members[j].OccurredAt)
	})
	obs := make([]Observation, len(members))
	for i, t := range members {
		obs[i] = Observation{Amount: t.Amount.Abs(), Date: t.OccurredAt}
	}

	mean := meanAmount(obs)
	amountScore := amountConsistency(obs, mean, d.opts.AmountTolerancePct)
	freq, timingScore := inferFrequency(obs, d.opts.DateVarianceDays)

	first, last := obs[0].Date, obs[len(obs)-1].Date
	conf := confidence(amountScore, timingScore, len(obs), d.opts.MinOccurrences, first, now)
	if conf < d.opts.ConfidenceThreshold {
		return Detection{}, false
	}

	p := Pattern{
		AccountID:     key.account,
		Signature:     key.signature,
		Observations:  obs,
		Frequency:     freq,
		Confidence:    conf,
		AverageAmount: mean,
		FirstSeen:     first,
		LastSeen:      last,
		PredictedNext: freq.Advance(last),
		CategoryID:    dominantCategory(members),
	}
	det := Detection{
		Pattern:             p,
		SuggestedName:       merchant.TitleCase(key.signature) + " (" + string(freq) + ")",
		SuggestedCategoryID: p.CategoryID,
		Risk:                riskScore(conf, mean, len(obs), first, now, d.opts.LargeAmount, d.opts.MediumAmount),
	}
	if match := matchDeclared(key.account, mean, declared); match != nil {
		id := match.ID
		det.MatchedPaymentID = &id
		det.AlreadyTracked = true
	}
	return det, true
}

// matchDeclared finds the first declared active payment on the same
// account whose amount sits within the reconcile tolerance of the
// observed mean.
func matchDeclared(account uuid.UUID, mean decimal.Decimal, declared []ledger.RecurringPayment) *ledger.RecurringPayment {
	band := mean.Mul(reconcileTolerance)
	for i := range declared {
		p := &declared[i]
		if p.AccountID != account || !p.Active {
			continue
		}
		if p.Amount.Sub(mean).Abs().LessThanOrEqual(band) {
			return p
		}
	}
	return nil
}

// dominantCategory picks the most frequent category among the group's
// transactions; ties go to the category seen earliest.
func dominantCategory(members []ledger.Transaction) string {
	counts := make(map[string]int, len(members))
	for _, t := range members {
		counts[t.CategoryID]++
	}
	best := ""
	bestCount := 0
	seen := make(map[string]struct{}, len(counts))
	for _, t := range members {
		if _, dup := seen[t.CategoryID]; dup {
			continue
		}
		seen[t.CategoryID] = struct{}{}
		if counts[t.CategoryID] > bestCount {
			best = t.CategoryID
			bestCount = counts[t.CategoryID]
		}
	}
	return best
}
