package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salaryman/internal/alerting"
	"salaryman/internal/billing"
	"salaryman/internal/ledger"
)

// ReminderRun summarises one daily batch pass.
type ReminderRun struct {
	RunAt                     time.Time
	ProcessedCount            int
	TriggeredCount            int
	CreatedAlerts             []ledger.AlertRecord
	InsufficientFundsWarnings int
	Skipped                   bool
}

// ProcessDailyReminders 执行单次每日提醒批处理。
// Walks the pending payments due inside the reminder horizon across all
// users, fires a reminder for every payment whose configured offset
// matches today, and warns when the paying account cannot cover the
// amount. Re-running within a day is harmless: the spam guard blocks
// reminders already fired.
func (e *Engine) ProcessDailyReminders(ctx context.Context) (*ReminderRun, error) {
	now := e.now()

	unlock, proceed, err := e.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	if !proceed {
		e.logger.Debug().Time("run_at", now).Msg("skip reminder run because advisory lock held elsewhere")
		return &ReminderRun{RunAt: now, Skipped: true}, nil
	}
	if unlock != nil {
		defer unlock()
	}

	horizon := now.AddDate(0, 0, e.reminderHorizonDays)
	due, err := e.payments.ListRecurringPaymentsDueWithin(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("load due payments: %w", err)
	}

	run := &ReminderRun{RunAt: now}
	for _, payment := range due {
		run.ProcessedCount++

		dueDate := e.adjuster.Adjust(payment.NextDueDate)
		offset, ok := billing.ReminderOffsetDue(payment, dueDate, now)
		if !ok {
			continue
		}

		e.fireReminder(ctx, run, payment, dueDate, offset, now)
		e.warnInsufficientFunds(ctx, run, payment, dueDate, now)
	}

	e.logger.Info().Time("run_at", now).
		Int("processed", run.ProcessedCount).
		Int("triggered", run.TriggeredCount).
		Int("funds_warnings", run.InsufficientFundsWarnings).
		Msg("reminder run complete")
	return run, nil
}

func (e *Engine) fireReminder(ctx context.Context, run *ReminderRun, payment ledger.RecurringPayment, dueDate time.Time, offset int, now time.Time) {
	if !e.alertsOn {
		return
	}

	allowed, err := e.guard.Allow(ctx, payment.UserID, payment.AccountID, ledger.AlertBillReminder, now)
	if err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("reminder guard check failed")
		return
	}
	if !allowed {
		return
	}

	message := fmt.Sprintf("%s (%s) is due in %d days on %s", payment.Name, payment.Amount.StringFixed(2), offset, dueDate.Format("2006-01-02"))
	if offset == 0 {
		message = fmt.Sprintf("%s (%s) is due today", payment.Name, payment.Amount.StringFixed(2))
	}

	record := ledger.AlertRecord{
		ID:          uuid.New(),
		UserID:      payment.UserID,
		AccountID:   payment.AccountID,
		AlertType:   ledger.AlertBillReminder,
		Message:     message,
		TriggeredAt: now,
		Status:      ledger.AlertTriggered,
	}
	stored, err := e.alerts.InsertAlertRecord(ctx, record)
	if err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("failed to persist alert record")
	} else {
		run.CreatedAlerts = append(run.CreatedAlerts, stored)
	}
	run.TriggeredCount++

	if e.notifier == nil {
		return
	}
	note := alerting.Notification{
		UserID:    payment.UserID,
		AccountID: payment.AccountID,
		Type:      ledger.AlertBillReminder,
		Name:      payment.Name,
		Amount:    payment.Amount,
		DueDate:   dueDate,
		Message:   message,
		Channels:  e.channels,
	}
	if err := e.notifier.Notify(ctx, note); err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("failed to dispatch alert")
	}
}

func (e *Engine) warnInsufficientFunds(ctx context.Context, run *ReminderRun, payment ledger.RecurringPayment, dueDate time.Time, now time.Time) {
	if !e.alertsOn || e.accounts == nil {
		return
	}

	balance, err := e.accounts.AccountBalance(ctx, payment.AccountID)
	if err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("failed to read account balance")
		return
	}
	if balance.GreaterThanOrEqual(payment.Amount) {
		return
	}

	allowed, err := e.guard.Allow(ctx, payment.UserID, payment.AccountID, ledger.AlertInsufficientFunds, now)
	if err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("funds guard check failed")
		return
	}
	if !allowed {
		return
	}

	message := fmt.Sprintf("balance %s cannot cover %s due for %s on %s", balance.StringFixed(2), payment.Amount.StringFixed(2), payment.Name, dueDate.Format("2006-01-02"))
	record := ledger.AlertRecord{
		ID:          uuid.New(),
		UserID:      payment.UserID,
		AccountID:   payment.AccountID,
		AlertType:   ledger.AlertInsufficientFunds,
		Message:     message,
		TriggeredAt: now,
		Status:      ledger.AlertTriggered,
	}
	stored, err := e.alerts.InsertAlertRecord(ctx, record)
	if err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("failed to persist alert record")
	} else {
		run.CreatedAlerts = append(run.CreatedAlerts, stored)
	}
	run.InsufficientFundsWarnings++

	if e.notifier == nil {
		return
	}
	note := alerting.Notification{
		UserID:    payment.UserID,
		AccountID: payment.AccountID,
		Type:      ledger.AlertInsufficientFunds,
		Name:      payment.Name,
		Amount:    payment.Amount,
		DueDate:   dueDate,
		Message:   message,
		Channels:  e.channels,
	}
	if err := e.notifier.Notify(ctx, note); err != nil {
		e.logger.Error().Err(err).Str("payment", payment.Name).Msg("failed to dispatch alert")
	}
}
