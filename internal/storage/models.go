package storage

import (
	"time"

	"salaryman/internal/ledger"
)

// RecurringPaymentUpdate carries a partial update; nil fields keep the
// stored value.
type RecurringPaymentUpdate struct {
	Status      *ledger.PaymentStatus
	NextDueDate *time.Time
	LastPaidAt  *time.Time
	Active      *bool
}
