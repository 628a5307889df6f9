package costs

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
	"salaryman/internal/merchant"
)

var (
	three   = decimal.NewFromInt(3)
	ten     = decimal.NewFromInt(10)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

const incomeWindowDays = 30

// Options tune the analyzer.
type Options struct {
	// BudgetFraction is the share of trailing monthly income treated as
	// spendable budget.
	BudgetFraction float64
}

// Analyzer projects the cost impact of a user's recurring payments.
type Analyzer struct {
	opts   Options
	logger zerolog.Logger
}

// NewAnalyzer builds an analyzer. An out-of-range budget fraction falls
// back to 0.8.
func NewAnalyzer(opts Options, logger zerolog.Logger) *Analyzer {
	if opts.BudgetFraction <= 0 || opts.BudgetFraction > 1 {
		opts.BudgetFraction = 0.8
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Analyze computes the cost picture for one user. Inactive payments are
// skipped; income rows outside the trailing window are skipped. Analyze
// never mutates its inputs, and the same inputs always produce the same
// analysis.
func (a *Analyzer) Analyze(now time.Time, payments []ledger.RecurringPayment, income []ledger.Transaction) *Analysis {
	active := make([]ledger.RecurringPayment, 0, len(payments))
	for _, p := range payments {
		if p.Active {
			active = append(active, p)
		}
	}

	monthly := decimal.Zero
	perCategory := make(map[string]decimal.Decimal)
	var categoryOrder []string
	freqCount := make(map[ledger.Frequency]int)
	freqTotal := make(map[ledger.Frequency]decimal.Decimal)
	for _, p := range active {
		eq := p.Frequency.MonthlyEquivalent(p.Amount)
		monthly = monthly.Add(eq)
		if _, seen := perCategory[p.CategoryID]; !seen {
			categoryOrder = append(categoryOrder, p.CategoryID)
		}
		perCategory[p.CategoryID] = perCategory[p.CategoryID].Add(eq)
		freqCount[p.Frequency]++
		freqTotal[p.Frequency] = freqTotal[p.Frequency].Add(p.Amount)
	}

	analysis := &Analysis{
		GeneratedAt:    now,
		MonthlyTotal:   monthly,
		QuarterlyTotal: monthly.Mul(three),
		YearlyTotal:    monthly.Mul(twelve),
		Categories:     categoryBreakdown(perCategory, categoryOrder, monthly),
		Frequencies:    frequencyBreakdown(freqCount, freqTotal),
		Trend:          trend(now, active),
		Budget:         a.budget(now, monthly, income),
		Suggestions:    suggestions(active),
	}
	a.logger.Debug().
		Int("active_payments", len(active)).
		Str("monthly_total", monthly.StringFixed(2)).
		Int("suggestions", len(analysis.Suggestions)).
		Msg("cost analysis computed")
	return analysis
}

func categoryBreakdown(perCategory map[string]decimal.Decimal, order []string, monthlyTotal decimal.Decimal) []CategoryCost {
	out := make([]CategoryCost, 0, len(order))
	for _, id := range order {
		m := perCategory[id]
		cc := CategoryCost{
			CategoryID: id,
			Monthly:    m,
			Quarterly:  m.Mul(three),
			Yearly:     m.Mul(twelve),
		}
		if monthlyTotal.IsPositive() {
			cc.Percent = m.Div(monthlyTotal).Mul(hundred).InexactFloat64()
		}
		out = append(out, cc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Monthly.Equal(out[j].Monthly) {
			return out[i].Monthly.GreaterThan(out[j].Monthly)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

func frequencyBreakdown(count map[ledger.Frequency]int, total map[ledger.Frequency]decimal.Decimal) []FrequencyCost {
	out := make([]FrequencyCost, 0, len(ledger.Frequencies))
	for _, freq := range ledger.Frequencies {
		cycleTotal := decimal.Zero
		if t, ok := total[freq]; ok {
			cycleTotal = t
		}
		out = append(out, FrequencyCost{Frequency: freq, Count: count[freq], Total: cycleTotal})
	}
	return out
}

func trend(now time.Time, active []ledger.RecurringPayment) Trend {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)
	quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
	quarterStart := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
	prevQuarterStart := quarterStart.AddDate(0, -3, 0)

	t := Trend{
		CurrentMonth:    createdBetween(active, monthStart, monthStart.AddDate(0, 1, 0)),
		PreviousMonth:   createdBetween(active, prevMonthStart, monthStart),
		CurrentQuarter:  createdBetween(active, quarterStart, quarterStart.AddDate(0, 3, 0)),
		PreviousQuarter: createdBetween(active, prevQuarterStart, quarterStart),
	}
	t.MonthChangePct = changePct(t.CurrentMonth, t.PreviousMonth)
	t.QuarterChangePct = changePct(t.CurrentQuarter, t.PreviousQuarter)
	return t
}

func createdBetween(payments []ledger.RecurringPayment, start, end time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if !p.CreatedAt.Before(start) && p.CreatedAt.Before(end) {
			sum = sum.Add(p.Frequency.MonthlyEquivalent(p.Amount))
		}
	}
	return sum
}

// changePct reports the percentage move from previous to current, and 0
// when there is no previous baseline to compare against.
func changePct(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).InexactFloat64()
}

func (a *Analyzer) budget(now time.Time, recurring decimal.Decimal, income []ledger.Transaction) Budget {
	since := now.AddDate(0, 0, -incomeWindowDays)
	total := decimal.Zero
	for _, t := range income {
		if t.Amount.IsPositive() && t.OccurredAt.After(since) && !t.OccurredAt.After(now) {
			total = total.Add(t.Amount)
		}
	}
	b := Budget{
		MonthlyIncome:  total,
		Budget:         total.Mul(decimal.NewFromFloat(a.opts.BudgetFraction)),
		RecurringSpend: recurring,
		Available:      decimal.Zero,
	}
	if b.Budget.IsPositive() {
		b.UtilizationPct = recurring.Div(b.Budget).Mul(hundred).InexactFloat64()
	}
	if available := b.Budget.Sub(recurring); available.IsPositive() {
		b.Available = available
	}
	return b
}

// suggestions flags exact duplicates, near-duplicate names and the most
// expensive slice of active payments, in that order.
func suggestions(active []ledger.RecurringPayment) []Suggestion {
	byCreation := make([]ledger.RecurringPayment, len(active))
	copy(byCreation, active)
	sort.SliceStable(byCreation, func(i, j int) bool {
		if !byCreation[i].CreatedAt.Equal(byCreation[j].CreatedAt) {
			return byCreation[i].CreatedAt.Before(byCreation[j].CreatedAt)
		}
		return byCreation[i].ID.String() < byCreation[j].ID.String()
	})

	groups := make(map[string][]ledger.RecurringPayment)
	var order []string
	for _, p := range byCreation {
		sig := merchant.Normalize(p.Name)
		if sig == "" {
			continue
		}
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], p)
	}

	var out []Suggestion
	for _, sig := range order {
		members := groups[sig]
		for _, dup := range members[1:] {
			out = append(out, Suggestion{
				Kind:            SuggestionDuplicate,
				Priority:        PriorityHigh,
				PaymentIDs:      []uuid.UUID{members[0].ID, dup.ID},
				Message:         fmt.Sprintf("%s looks like a duplicate of %s", dup.Name, members[0].Name),
				EstimatedSaving: dup.Amount,
			})
		}
	}

	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			first, second := groups[order[i]][0], groups[order[j]][0]
			if !merchant.Similar(first.Name, second.Name) {
				continue
			}
			saving := first.Amount
			if second.Amount.LessThan(saving) {
				saving = second.Amount
			}
			out = append(out, Suggestion{
				Kind:            SuggestionNearDuplicate,
				Priority:        PriorityMedium,
				PaymentIDs:      []uuid.UUID{first.ID, second.ID},
				Message:         fmt.Sprintf("%s and %s may be the same service", first.Name, second.Name),
				EstimatedSaving: saving,
			})
		}
	}

	byAmount := make([]ledger.RecurringPayment, len(active))
	copy(byAmount, active)
	sort.SliceStable(byAmount, func(i, j int) bool {
		if !byAmount[i].Amount.Equal(byAmount[j].Amount) {
			return byAmount[i].Amount.GreaterThan(byAmount[j].Amount)
		}
		return byAmount[i].ID.String() < byAmount[j].ID.String()
	})
	top := (len(byAmount) + 4) / 5
	for _, p := range byAmount[:top] {
		out = append(out, Suggestion{
			Kind:            SuggestionExpensive,
			Priority:        PriorityLow,
			PaymentIDs:      []uuid.UUID{p.ID},
			Message:         fmt.Sprintf("%s is among your most expensive recurring payments", p.Name),
			EstimatedSaving: p.Amount.Div(ten),
		})
	}
	return out
}
