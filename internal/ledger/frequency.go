package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the billing cadence of a recurring payment.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Frequencies lists every cadence, shortest first. Aggregations that
// report per-cadence rows iterate this to keep output order stable.
var Frequencies = []Frequency{Weekly, Monthly, Quarterly, Yearly}

// ParseFrequency maps the stored string form back to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Weekly, Monthly, Quarterly, Yearly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// IntervalDays returns the nominal gap in days between two occurrences.
func (f Frequency) IntervalDays() int {
	switch f {
	case Weekly:
		return 7
	case Monthly:
		return 30
	case Quarterly:
		return 91
	case Yearly:
		return 365
	default:
		return 0
	}
}

// Advance moves a due date forward one cycle. Month-based cadences clamp
// to the last day of a shorter target month (Jan 31 -> Feb 28) instead of
// letting the calendar normalize past it. The time of day is preserved.
func (f Frequency) Advance(t time.Time) time.Time {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return addMonthsClamped(t, 1)
	case Quarterly:
		return addMonthsClamped(t, 3)
	case Yearly:
		return addMonthsClamped(t, 12)
	default:
		return t
	}
}

// MonthlyEquivalent normalizes an amount billed at this cadence to its
// monthly cost: weekly spreads 52 weeks over 12 months, quarterly and
// yearly divide down. Divisions keep full decimal precision so that
// quarterly and yearly projections derived from the monthly figure stay
// exact multiples of it.
func (f Frequency) MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal {
	switch f {
	case Weekly:
		return amount.Mul(decimal.NewFromInt(52)).Div(decimal.NewFromInt(12))
	case Monthly:
		return amount
	case Quarterly:
		return amount.Div(decimal.NewFromInt(3))
	case Yearly:
		return amount.Div(decimal.NewFromInt(12))
	default:
		return decimal.Zero
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns whole calendar days from a to b, ignoring the
// time-of-day component. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
