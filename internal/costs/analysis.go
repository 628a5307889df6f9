// Package costs aggregates active recurring payments into normalized
// cost projections, budget utilization and saving suggestions.
package costs

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
)

// Analysis is the full cost picture for one user at a point in time.
// Quarterly and yearly totals are derived from the monthly total, never
// recomputed, so the three figures always agree.
type Analysis struct {
	GeneratedAt    time.Time
	MonthlyTotal   decimal.Decimal
	QuarterlyTotal decimal.Decimal
	YearlyTotal    decimal.Decimal
	Categories     []CategoryCost
	Frequencies    []FrequencyCost
	Trend          Trend
	Budget         Budget
	Suggestions    []Suggestion
}

// CategoryCost is the projected spend attributed to one category.
type CategoryCost struct {
	CategoryID string
	Monthly    decimal.Decimal
	Quarterly  decimal.Decimal
	Yearly     decimal.Decimal
	Percent    float64
}

// FrequencyCost counts payments billed at one cadence, with their raw
// per-cycle total.
type FrequencyCost struct {
	Frequency ledger.Frequency
	Count     int
	Total     decimal.Decimal
}

// Trend compares the recurring spend committed in the current calendar
// month and quarter against the previous ones, keyed by when payments
// were created.
type Trend struct {
	CurrentMonth     decimal.Decimal
	PreviousMonth    decimal.Decimal
	MonthChangePct   float64
	CurrentQuarter   decimal.Decimal
	PreviousQuarter  decimal.Decimal
	QuarterChangePct float64
}

// Budget relates recurring spend to income deposited over the trailing
// thirty days.
type Budget struct {
	MonthlyIncome  decimal.Decimal
	Budget         decimal.Decimal
	RecurringSpend decimal.Decimal
	UtilizationPct float64
	Available      decimal.Decimal
}

// Suggestion kinds.
const (
	SuggestionDuplicate     = "duplicate"
	SuggestionNearDuplicate = "near_duplicate"
	SuggestionExpensive     = "expensive"
)

// Suggestion priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Suggestion flags a payment the user could cut or review.
type Suggestion struct {
	Kind            string
	Priority        string
	PaymentIDs      []uuid.UUID
	Message         string
	EstimatedSaving decimal.Decimal
}
