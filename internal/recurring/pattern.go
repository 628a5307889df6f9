// Package recurring mines transaction history for merchants charged on a
// regular cadence and scores how confident the engine is in each one.
package recurring

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
)

// Observation is one dated charge inside a candidate pattern. Amounts are
// recorded as absolute values; the sign convention stays in the ledger.
type Observation struct {
	Amount decimal.Decimal
	Date   time.Time
}

// Pattern is a recurring candidate mined from one (account, signature)
// transaction group.
type Pattern struct {
	AccountID     uuid.UUID
	Signature     string
	Observations  []Observation
	Frequency     ledger.Frequency
	Confidence    float64
	AverageAmount decimal.Decimal
	FirstSeen     time.Time
	LastSeen      time.Time
	PredictedNext time.Time
	CategoryID    string
}

// Detection pairs a confident pattern with its reconciliation against the
// user's declared recurring payments.
type Detection struct {
	Pattern             Pattern
	SuggestedName       string
	SuggestedCategoryID string
	MatchedPaymentID    *uuid.UUID
	AlreadyTracked      bool
	Risk                float64
}

// Options tune the detector.
type Options struct {
	MinOccurrences      int
	AmountTolerancePct  float64
	DateVarianceDays    int
	LookbackMonths      int
	ConfidenceThreshold float64
	LargeAmount         decimal.Decimal
	MediumAmount        decimal.Decimal
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MinOccurrences:      3,
		AmountTolerancePct:  5,
		DateVarianceDays:    3,
		LookbackMonths:      12,
		ConfidenceThreshold: 0.7,
		LargeAmount:         decimal.NewFromInt(10000),
		MediumAmount:        decimal.NewFromInt(5000),
	}
}

// Validate rejects option sets that would make detection meaningless.
func (o Options) Validate() error {
	if o.MinOccurrences < 1 {
		return &ledger.ValidationError{Field: "min_occurrences", Reason: "must be at least 1"}
	}
	if o.AmountTolerancePct < 0 {
		return &ledger.ValidationError{Field: "amount_tolerance_pct", Reason: "must not be negative"}
	}
	if o.DateVarianceDays < 0 {
		return &ledger.ValidationError{Field: "date_variance_days", Reason: "must not be negative"}
	}
	if o.LookbackMonths < 1 {
		return &ledger.ValidationError{Field: "lookback_months", Reason: "must be at least 1"}
	}
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return &ledger.ValidationError{Field: "confidence_threshold", Reason: "must be between 0 and 1"}
	}
	if !o.LargeAmount.IsPositive() || !o.MediumAmount.IsPositive() {
		return &ledger.ValidationError{Field: "risk_amounts", Reason: "must be positive"}
	}
	if o.LargeAmount.LessThan(o.MediumAmount) {
		return &ledger.ValidationError{Field: "risk_amounts", Reason: "large threshold must not be below medium"}
	}
	return nil
}
