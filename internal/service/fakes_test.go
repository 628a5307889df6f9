package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salaryman/internal/alerting"
	"salaryman/internal/config"
	"salaryman/internal/ledger"
	"salaryman/internal/storage"
)

// fakeStores implements every storage interface in memory.
type fakeStores struct {
	expenses []ledger.Transaction
	income   []ledger.Transaction
	payments map[uuid.UUID]*ledger.RecurringPayment
	records  []ledger.AlertRecord
	balances map[uuid.UUID]decimal.Decimal

	expenseCalls int
	paymentCalls int
	updateCalls  int

	updateErr error
	insertErr error

	lockHeldElsewhere bool
	lockAcquisitions  int
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		payments: make(map[uuid.UUID]*ledger.RecurringPayment),
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakeStores) addPayment(p ledger.RecurringPayment) {
	cp := p
	f.payments[p.ID] = &cp
}

func (f *fakeStores) ListExpenseTransactions(_ context.Context, userID string, since time.Time) ([]ledger.Transaction, error) {
	f.expenseCalls++
	var out []ledger.Transaction
	for _, txn := range f.expenses {
		if txn.UserID == userID && !txn.OccurredAt.Before(since) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeStores) ListIncomeTransactions(_ context.Context, userID string, since time.Time) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, txn := range f.income {
		if txn.UserID == userID && !txn.OccurredAt.Before(since) {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeStores) ListActiveRecurringPayments(_ context.Context, userID string) ([]ledger.RecurringPayment, error) {
	f.paymentCalls++
	var out []ledger.RecurringPayment
	for _, p := range f.payments {
		if p.UserID == userID && p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStores) GetRecurringPayment(_ context.Context, id uuid.UUID, userID string) (*ledger.RecurringPayment, error) {
	p, ok := f.payments[id]
	if !ok || p.UserID != userID {
		return nil, ledger.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStores) UpdateRecurringPayment(_ context.Context, id uuid.UUID, userID string, update storage.RecurringPaymentUpdate) (*ledger.RecurringPayment, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.payments[id]
	if !ok || p.UserID != userID {
		return nil, ledger.ErrNotFound
	}
	if update.Status != nil {
		p.Status = *update.Status
	}
	if update.NextDueDate != nil {
		p.NextDueDate = *update.NextDueDate
	}
	if update.LastPaidAt != nil {
		ts := *update.LastPaidAt
		p.LastPaidAt = &ts
	}
	if update.Active != nil {
		p.Active = *update.Active
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStores) ListRecurringPaymentsDueWithin(_ context.Context, by time.Time) ([]ledger.RecurringPayment, error) {
	var out []ledger.RecurringPayment
	for _, p := range f.payments {
		if p.Active && p.Status == ledger.PaymentPending && !p.NextDueDate.After(by) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out, nil
}

func (f *fakeStores) InsertAlertRecord(_ context.Context, record ledger.AlertRecord) (ledger.AlertRecord, error) {
	if f.insertErr != nil {
		return ledger.AlertRecord{}, f.insertErr
	}
	f.records = append(f.records, record)
	return record, nil
}

func (f *fakeStores) GetAlertRecord(_ context.Context, id uuid.UUID, userID string) (*ledger.AlertRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id && rec.UserID == userID {
			cp := rec
			return &cp, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (f *fakeStores) ListAlertRecords(_ context.Context, userID string, accountID uuid.UUID, alertType ledger.AlertType, since time.Time) ([]ledger.AlertRecord, error) {
	var out []ledger.AlertRecord
	for _, rec := range f.records {
		if rec.UserID == userID && rec.AccountID == accountID && rec.AlertType == alertType && rec.TriggeredAt.After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStores) CountAlertRecords(_ context.Context, userID string, accountID uuid.UUID, since time.Time) (int, error) {
	count := 0
	for _, rec := range f.records {
		if rec.UserID == userID && rec.AccountID == accountID && rec.TriggeredAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStores) ListRecentAlerts(_ context.Context, userID string, limit int) ([]ledger.AlertRecord, error) {
	var out []ledger.AlertRecord
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStores) UpdateAlertStatus(_ context.Context, id uuid.UUID, userID string, status ledger.AlertStatus, snoozedUntil *time.Time) (*ledger.AlertRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id && f.records[i].UserID == userID {
			f.records[i].Status = status
			f.records[i].SnoozedUntil = snoozedUntil
			cp := f.records[i]
			return &cp, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (f *fakeStores) AccountBalance(_ context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	balance, ok := f.balances[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrNotFound
	}
	return balance, nil
}

func (f *fakeStores) TryAdvisoryLock(_ context.Context, _ int64) (func(), bool, error) {
	if f.lockHeldElsewhere {
		return nil, false, nil
	}
	f.lockAcquisitions++
	return func() {}, true, nil
}

var (
	_ storage.TransactionStore      = (*fakeStores)(nil)
	_ storage.RecurringPaymentStore = (*fakeStores)(nil)
	_ storage.AlertStore            = (*fakeStores)(nil)
	_ storage.AccountStore          = (*fakeStores)(nil)
	_ storage.AdvisoryLocker        = (*fakeStores)(nil)
)

// fakeNotifier records deliveries and optionally fails them.
type fakeNotifier struct {
	notes []alerting.Notification
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, note alerting.Notification) error {
	f.notes = append(f.notes, note)
	return f.err
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Detection = config.DetectionConfig{
		MinOccurrences:      3,
		AmountTolerancePct:  5,
		DateVarianceDays:    3,
		LookbackMonths:      12,
		ConfidenceThreshold: 0.7,
		LargeAmount:         10000,
		MediumAmount:        5000,
	}
	cfg.Costs = config.CostsConfig{BudgetFraction: 0.8, AnalysisCacheTTL: 15 * time.Minute}
	cfg.Billing.GracePeriodDays = 3
	cfg.Billing.ReminderHorizonDays = 60
	cfg.Billing.BusinessDay.Direction = "forward"
	cfg.Guard = config.GuardConfig{MinInterval: time.Hour, DailyCap: 10}
	cfg.Alerting.Enabled = true
	cfg.Alerting.Channels = []string{"telegram"}
	cfg.Scheduler.AdvisoryLockKey = 0x736c7279
	return cfg
}
