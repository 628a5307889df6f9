// Package billing tracks recurring payments through their due cycle:
// missed-payment detection, reminder offsets and schedule advancement.
package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
)

// MissedPayment reports one pending payment whose due date slipped past
// the grace period.
type MissedPayment struct {
	PaymentID         uuid.UUID
	UserID            string
	AccountID         uuid.UUID
	Name              string
	Amount            decimal.Decimal
	ExpectedOn        time.Time
	DaysOverdue       int
	LastPaidAt        *time.Time
	ConsecutiveMisses int
}

// DetectMissed returns the active pending payments whose next due date is
// strictly earlier than today minus the grace period, ordered by how long
// they have been waiting. Days overdue count whole calendar days from the
// due date to now.
func DetectMissed(now time.Time, payments []ledger.RecurringPayment, graceDays int) []MissedPayment {
	cutoff := dateOnly(now).AddDate(0, 0, -graceDays)
	var missed []MissedPayment
	for _, p := range payments {
		if !p.Active || p.Status != ledger.PaymentPending {
			continue
		}
		if !dateOnly(p.NextDueDate).Before(cutoff) {
			continue
		}
		missed = append(missed, MissedPayment{
			PaymentID:         p.ID,
			UserID:            p.UserID,
			AccountID:         p.AccountID,
			Name:              p.Name,
			Amount:            p.Amount,
			ExpectedOn:        p.NextDueDate,
			DaysOverdue:       ledger.DaysBetween(p.NextDueDate, now),
			LastPaidAt:        p.LastPaidAt,
			ConsecutiveMisses: 1,
		})
	}
	sort.SliceStable(missed, func(i, j int) bool {
		if !missed[i].ExpectedOn.Equal(missed[j].ExpectedOn) {
			return missed[i].ExpectedOn.Before(missed[j].ExpectedOn)
		}
		return missed[i].PaymentID.String() < missed[j].PaymentID.String()
	})
	return missed
}

// ReminderOffsetDue reports which configured reminder offset matches the
// whole-day gap between now and the (possibly adjusted) due date. Past
// due dates never match.
func ReminderOffsetDue(p ledger.RecurringPayment, dueDate, now time.Time) (int, bool) {
	days := ledger.DaysBetween(now, dueDate)
	if days < 0 {
		return 0, false
	}
	for _, off := range p.ReminderOffsets {
		if off == days {
			return off, true
		}
	}
	return 0, false
}

// AdvanceSchedule computes the due date after a confirmed payment: one
// frequency cycle forward from the current due date, then business-day
// adjusted when configured.
func AdvanceSchedule(p ledger.RecurringPayment, adj *Adjuster) time.Time {
	return adj.Adjust(p.Frequency.Advance(p.NextDueDate))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
