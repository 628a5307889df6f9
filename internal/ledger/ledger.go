package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single posted account movement. Negative amounts are
// outflows; detection only ever looks at outflows.
type Transaction struct {
	ID                 uuid.UUID
	UserID             string
	AccountID          uuid.UUID
	Amount             decimal.Decimal
	Description        string
	CategoryID         string
	OccurredAt         time.Time
	RecurringPaymentID *uuid.UUID
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// PaymentStatus tracks a recurring payment through its billing cycle.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

// RecurringPayment is a user-declared (or detection-confirmed) recurring
// obligation. Amount is always positive; the sign convention lives on
// transactions only.
type RecurringPayment struct {
	ID              uuid.UUID
	UserID          string
	AccountID       uuid.UUID
	Name            string
	Amount          decimal.Decimal
	Frequency       Frequency
	NextDueDate     time.Time
	CategoryID      string
	Active          bool
	Status          PaymentStatus
	LastPaidAt      *time.Time
	ReminderOffsets []int
	CreatedAt       time.Time
}

// MaxReminderOffset returns the largest configured reminder offset in
// days, or 0 when the payment has none.
func (p RecurringPayment) MaxReminderOffset() int {
	max := 0
	for _, d := range p.ReminderOffsets {
		if d > max {
			max = d
		}
	}
	return max
}

// AlertType names the condition an alert record was fired for.
type AlertType string

const (
	AlertBillReminder      AlertType = "bill_reminder"
	AlertBillMissed        AlertType = "bill_missed"
	AlertInsufficientFunds AlertType = "insufficient_funds"
)

// AlertStatus is the lifecycle state of a fired alert.
type AlertStatus string

const (
	AlertTriggered    AlertStatus = "triggered"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertSnoozed      AlertStatus = "snoozed"
	AlertDismissed    AlertStatus = "dismissed"
)

// CanTransitionTo reports whether the lifecycle allows moving to next.
// Dismissed is terminal, and nothing moves back to triggered: a snoozed
// alert is re-evaluated as a brand-new candidate, never resurrected.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertTriggered:
		return next == AlertAcknowledged || next == AlertSnoozed || next == AlertDismissed
	case AlertSnoozed:
		return next == AlertAcknowledged || next == AlertDismissed
	case AlertAcknowledged:
		return next == AlertDismissed
	default:
		return false
	}
}

// AlertRecord is the persisted audit row for a fired reminder or alert.
// The spam guard reads these back over a time window; the detection path
// never mutates them.
type AlertRecord struct {
	ID           uuid.UUID
	UserID       string
	AccountID    uuid.UUID
	AlertType    AlertType
	Message      string
	TriggeredAt  time.Time
	Status       AlertStatus
	SnoozedUntil *time.Time
}
