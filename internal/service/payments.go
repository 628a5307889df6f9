package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salaryman/internal/alerting"
	"salaryman/internal/billing"
	"salaryman/internal/ledger"
	"salaryman/internal/storage"
)

// MarkPaymentAsPaid confirms one cycle of a declared payment: status
// moves to paid, the payment date is recorded, and the next due date
// advances one frequency cycle. Returns (nil, nil) when the payment does
// not exist or is not owned by the user. The confirmation is committed
// before any notification is attempted.
func (e *Engine) MarkPaymentAsPaid(ctx context.Context, paymentID uuid.UUID, userID string, paymentDate *time.Time) (*ledger.RecurringPayment, error) {
	if userID == "" {
		return nil, &ledger.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	now := e.now()
	paidAt := now
	if paymentDate != nil {
		if paymentDate.After(now) {
			return nil, &ledger.ValidationError{Field: "payment_date", Reason: "cannot be in the future"}
		}
		paidAt = *paymentDate
	}

	payment, err := e.payments.GetRecurringPayment(ctx, paymentID, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	nextDue := billing.AdvanceSchedule(*payment, e.adjuster)
	status := ledger.PaymentPaid
	updated, err := e.payments.UpdateRecurringPayment(ctx, paymentID, userID, storage.RecurringPaymentUpdate{
		Status:      &status,
		NextDueDate: &nextDue,
		LastPaidAt:  &paidAt,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}

	e.cache.Invalidate(userID)

	if e.alertsOn && e.notifier != nil {
		note := alerting.Notification{
			UserID:    updated.UserID,
			AccountID: updated.AccountID,
			Name:      updated.Name,
			Amount:    updated.Amount,
			DueDate:   updated.NextDueDate,
			Message:   fmt.Sprintf("%s marked as paid on %s; next due %s", updated.Name, paidAt.Format("2006-01-02"), updated.NextDueDate.Format("2006-01-02")),
			Channels:  e.channels,
		}
		if err := e.notifier.Notify(ctx, note); err != nil {
			e.logger.Error().Err(err).Str("payment", updated.Name).Msg("failed to dispatch payment confirmation")
		}
	}

	e.logger.Info().Str("user_id", userID).
		Str("payment", updated.Name).
		Time("next_due", updated.NextDueDate).
		Msg("payment marked as paid")
	return updated, nil
}

// DetectMissedPayments finds pending payments past their grace period,
// escalates them to overdue, and fires guarded missed-bill alerts.
// Escalation failures abort the call; notification failures are logged
// and swallowed.
func (e *Engine) DetectMissedPayments(ctx context.Context, userID string, graceDays int) ([]billing.MissedPayment, error) {
	if userID == "" {
		return nil, &ledger.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if graceDays < 0 {
		return nil, &ledger.ValidationError{Field: "grace_days", Reason: "cannot be negative"}
	}

	now := e.now()
	payments, err := e.payments.ListActiveRecurringPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load declared payments: %w", err)
	}

	missed := billing.DetectMissed(now, payments, graceDays)
	for _, m := range missed {
		status := ledger.PaymentOverdue
		if _, err := e.payments.UpdateRecurringPayment(ctx, m.PaymentID, userID, storage.RecurringPaymentUpdate{Status: &status}); err != nil {
			return nil, fmt.Errorf("escalate payment %s: %w", m.PaymentID, err)
		}
		e.notifyMissed(ctx, m, now)
	}

	if len(missed) > 0 {
		e.cache.Invalidate(userID)
	}

	e.logger.Info().Str("user_id", userID).
		Int("missed", len(missed)).
		Msg("missed-payment scan completed")
	return missed, nil
}

func (e *Engine) notifyMissed(ctx context.Context, m billing.MissedPayment, now time.Time) {
	if !e.alertsOn {
		return
	}

	allowed, err := e.guard.Allow(ctx, m.UserID, m.AccountID, ledger.AlertBillMissed, now)
	if err != nil {
		e.logger.Error().Err(err).Str("payment", m.Name).Msg("missed-payment guard check failed")
		return
	}
	if !allowed {
		return
	}

	message := fmt.Sprintf("%s was due on %s and is %d days overdue", m.Name, m.ExpectedOn.Format("2006-01-02"), m.DaysOverdue)
	record := ledger.AlertRecord{
		ID:          uuid.New(),
		UserID:      m.UserID,
		AccountID:   m.AccountID,
		AlertType:   ledger.AlertBillMissed,
		Message:     message,
		TriggeredAt: now,
		Status:      ledger.AlertTriggered,
	}
	if _, err := e.alerts.InsertAlertRecord(ctx, record); err != nil {
		e.logger.Error().Err(err).Str("payment", m.Name).Msg("failed to persist alert record")
	}

	if e.notifier == nil {
		return
	}
	note := alerting.Notification{
		UserID:    m.UserID,
		AccountID: m.AccountID,
		Type:      ledger.AlertBillMissed,
		Name:      m.Name,
		Amount:    m.Amount,
		DueDate:   m.ExpectedOn,
		Message:   message,
		Channels:  e.channels,
	}
	if err := e.notifier.Notify(ctx, note); err != nil {
		e.logger.Error().Err(err).Str("payment", m.Name).Msg("failed to dispatch alert")
	}
}
