package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"salaryman/internal/ledger"
)

func pendingPayment(userID string, account uuid.UUID, name string, amount int64, due time.Time, offsets []int) ledger.RecurringPayment {
	return ledger.RecurringPayment{
		ID:              uuid.New(),
		UserID:          userID,
		AccountID:       account,
		Name:            name,
		Amount:          decimal.NewFromInt(amount),
		Frequency:       ledger.Monthly,
		NextDueDate:     due,
		Active:          true,
		Status:          ledger.PaymentPending,
		ReminderOffsets: offsets,
		CreatedAt:       due.AddDate(-1, 0, 0),
	}
}

func TestProcessDailyRemindersFiresOnOffsetDay(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{}
	account := uuid.New()
	stores.balances[account] = decimal.NewFromInt(10000)

	netflix := pendingPayment("user-1", account, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{1, 3, 7})
	spotify := pendingPayment("user-1", account, "Spotify", 119, time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC), []int{1, 3})
	stores.addPayment(netflix)
	stores.addPayment(spotify)

	engine := newTestEngine(stores, notifier, clock)

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.False(t, run.Skipped)
	require.Equal(t, 2, run.ProcessedCount)
	require.Equal(t, 1, run.TriggeredCount)
	require.Equal(t, 0, run.InsufficientFundsWarnings)

	require.Len(t, run.CreatedAlerts, 1)
	require.Equal(t, ledger.AlertBillReminder, run.CreatedAlerts[0].AlertType)
	require.Contains(t, run.CreatedAlerts[0].Message, "due in 3 days")

	require.Len(t, notifier.notes, 1)
	require.Equal(t, "Netflix", notifier.notes[0].Name)
	require.Equal(t, 1, stores.lockAcquisitions)
}

func TestProcessDailyRemindersIdempotentWithinDay(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{}
	account := uuid.New()
	stores.balances[account] = decimal.NewFromInt(10000)
	stores.addPayment(pendingPayment("user-1", account, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))

	engine := newTestEngine(stores, notifier, clock)
	ctx := context.Background()

	first, err := engine.ProcessDailyReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.TriggeredCount)

	second, err := engine.ProcessDailyReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, second.ProcessedCount)
	require.Equal(t, 0, second.TriggeredCount)
	require.Empty(t, second.CreatedAlerts)
	require.Len(t, stores.records, 1)
	require.Len(t, notifier.notes, 1)
}

func TestProcessDailyRemindersWarnsOnInsufficientFunds(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{}
	account := uuid.New()
	stores.balances[account] = decimal.NewFromInt(100)
	stores.addPayment(pendingPayment("user-1", account, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))

	engine := newTestEngine(stores, notifier, clock)

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, run.TriggeredCount)
	require.Equal(t, 1, run.InsufficientFundsWarnings)
	require.Len(t, run.CreatedAlerts, 2)

	require.Len(t, stores.records, 2)
	require.Equal(t, ledger.AlertBillReminder, stores.records[0].AlertType)
	require.Equal(t, ledger.AlertInsufficientFunds, stores.records[1].AlertType)
	require.Len(t, notifier.notes, 2)
	require.Contains(t, notifier.notes[1].Message, "cannot cover")
}

func TestProcessDailyRemindersSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	stores.lockHeldElsewhere = true
	account := uuid.New()
	stores.addPayment(pendingPayment("user-1", account, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))

	engine := newTestEngine(stores, &fakeNotifier{}, clock)

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.True(t, run.Skipped)
	require.Equal(t, 0, run.ProcessedCount)
	require.Empty(t, stores.records)
}

func TestProcessDailyRemindersNotifierFailureStillRecords(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	account := uuid.New()
	stores.balances[account] = decimal.NewFromInt(10000)
	stores.addPayment(pendingPayment("user-1", account, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))

	engine := newTestEngine(stores, notifier, clock)

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, run.TriggeredCount)
	require.Len(t, run.CreatedAlerts, 1)
	require.Len(t, stores.records, 1)
}

func TestProcessDailyRemindersInsertFailureStillNotifies(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{}
	account := uuid.New()
	stores.balances[account] = decimal.NewFromInt(10000)
	stores.addPayment(pendingPayment("user-1", account, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))
	stores.insertErr = errors.New("connection reset")

	engine := newTestEngine(stores, notifier, clock)

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, run.TriggeredCount)
	require.Empty(t, run.CreatedAlerts)
	require.Len(t, notifier.notes, 1)
}

func TestProcessDailyRemindersCrossUser(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{}
	accountA := uuid.New()
	accountB := uuid.New()
	stores.balances[accountA] = decimal.NewFromInt(10000)
	stores.balances[accountB] = decimal.NewFromInt(10000)
	stores.addPayment(pendingPayment("user-1", accountA, "Netflix", 599, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))
	stores.addPayment(pendingPayment("user-2", accountB, "Rent", 15000, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), []int{3}))

	engine := newTestEngine(stores, notifier, clock)

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, run.TriggeredCount)

	users := map[string]bool{}
	for _, note := range notifier.notes {
		users[note.UserID] = true
	}
	require.True(t, users["user-1"])
	require.True(t, users["user-2"])
}

func TestProcessDailyRemindersBusinessDayAdjustment(t *testing.T) {
	t.Parallel()

	// June 14 2025 is a Saturday; forward adjustment moves the due date
	// to Monday June 16, four days out from June 12.
	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	stores := newFakeStores()
	notifier := &fakeNotifier{}
	account := uuid.New()
	stores.balances[account] = decimal.NewFromInt(10000)
	stores.addPayment(pendingPayment("user-1", account, "Insurance", 2500, time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC), []int{4}))

	cfg := testConfig()
	cfg.Billing.BusinessDay.Enabled = true
	engine := New(cfg, nil, stores, stores, stores, stores, notifier, zerolog.Nop(), WithClock(clock.Now))

	run, err := engine.ProcessDailyReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, run.TriggeredCount)
	require.Contains(t, run.CreatedAlerts[0].Message, "2025-06-16")
}

func TestRunRequiresScheduler(t *testing.T) {
	t.Parallel()

	clock := &testClock{now: time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)}
	engine := newTestEngine(newFakeStores(), &fakeNotifier{}, clock)

	err := engine.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "scheduler not configured")
}
