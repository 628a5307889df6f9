package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"salaryman/internal/ledger"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listExpenseTransactionsSQL = `SELECT
        id,
        user_id,
        account_id,
        amount::text,
        description,
        category_id,
        occurred_at,
        recurring_payment_id
    FROM transactions
    WHERE user_id = $1
      AND occurred_at >= $2
      AND amount < 0
    ORDER BY occurred_at, id;`

	listIncomeTransactionsSQL = `SELECT
        id,
        user_id,
        account_id,
        amount::text,
        description,
        category_id,
        occurred_at,
        recurring_payment_id
    FROM transactions
    WHERE user_id = $1
      AND occurred_at >= $2
      AND amount > 0
    ORDER BY occurred_at, id;`

	listActivePaymentsSQL = `SELECT
        id,
        user_id,
        account_id,
        name,
        amount::text,
        frequency,
        next_due_date,
        category_id,
        active,
        status,
        last_paid_at,
        reminder_offsets,
        created_at
    FROM recurring_payments
    WHERE user_id = $1
      AND active
    ORDER BY created_at, id;`

	getPaymentSQL = `SELECT
        id,
        user_id,
        account_id,
        name,
        amount::text,
        frequency,
        next_due_date,
        category_id,
        active,
        status,
        last_paid_at,
        reminder_offsets,
        created_at
    FROM recurring_payments
    WHERE id = $1
      AND user_id = $2;`

	updatePaymentSQL = `UPDATE recurring_payments
    SET
        status        = COALESCE($3, status),
        next_due_date = COALESCE($4, next_due_date),
        last_paid_at  = COALESCE($5, last_paid_at),
        active        = COALESCE($6, active)
    WHERE id = $1
      AND user_id = $2
    RETURNING id, user_id, account_id, name, amount::text, frequency, next_due_date,
        category_id, active, status, last_paid_at, reminder_offsets, created_at;`

	listPaymentsDueWithinSQL = `SELECT
        id,
        user_id,
        account_id,
        name,
        amount::text,
        frequency,
        next_due_date,
        category_id,
        active,
        status,
        last_paid_at,
        reminder_offsets,
        created_at
    FROM recurring_payments
    WHERE active
      AND status = 'pending'
      AND next_due_date <= $1
    ORDER BY next_due_date, id;`

	insertAlertRecordSQL = `INSERT INTO alert_records (
        id,
        user_id,
        account_id,
        alert_type,
        message,
        triggered_at,
        status,
        snoozed_until
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, user_id, account_id, alert_type, message, triggered_at, status, snoozed_until;`

	getAlertRecordSQL = `SELECT
        id,
        user_id,
        account_id,
        alert_type,
        message,
        triggered_at,
        status,
        snoozed_until
    FROM alert_records
    WHERE id = $1
      AND user_id = $2;`

	listAlertRecordsSQL = `SELECT
        id,
        user_id,
        account_id,
        alert_type,
        message,
        triggered_at,
        status,
        snoozed_until
    FROM alert_records
    WHERE user_id = $1
      AND account_id = $2
      AND alert_type = $3
      AND triggered_at > $4
    ORDER BY triggered_at DESC;`

	countAlertRecordsSQL = `SELECT COUNT(*)
    FROM alert_records
    WHERE user_id = $1
      AND account_id = $2
      AND triggered_at > $3;`

	listRecentAlertsSQL = `SELECT
        id,
        user_id,
        account_id,
        alert_type,
        message,
        triggered_at,
        status,
        snoozed_until
    FROM alert_records
    WHERE user_id = $1
    ORDER BY triggered_at DESC
    LIMIT $2;`

	updateAlertStatusSQL = `UPDATE alert_records
    SET
        status        = $3,
        snoozed_until = $4
    WHERE id = $1
      AND user_id = $2
    RETURNING id, user_id, account_id, alert_type, message, triggered_at, status, snoozed_until;`

	accountBalanceSQL = `SELECT balance::text FROM accounts WHERE id = $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// TransactionStore defines read access to the posted ledger rows.
type TransactionStore interface {
	ListExpenseTransactions(ctx context.Context, userID string, since time.Time) ([]ledger.Transaction, error)
	ListIncomeTransactions(ctx context.Context, userID string, since time.Time) ([]ledger.Transaction, error)
}

// RecurringPaymentStore defines operations for declared recurring payments.
type RecurringPaymentStore interface {
	ListActiveRecurringPayments(ctx context.Context, userID string) ([]ledger.RecurringPayment, error)
	GetRecurringPayment(ctx context.Context, id uuid.UUID, userID string) (*ledger.RecurringPayment, error)
	UpdateRecurringPayment(ctx context.Context, id uuid.UUID, userID string, update RecurringPaymentUpdate) (*ledger.RecurringPayment, error)
	ListRecurringPaymentsDueWithin(ctx context.Context, by time.Time) ([]ledger.RecurringPayment, error)
}

// AlertStore defines operations for alert records and their lifecycle.
type AlertStore interface {
	InsertAlertRecord(ctx context.Context, record ledger.AlertRecord) (ledger.AlertRecord, error)
	GetAlertRecord(ctx context.Context, id uuid.UUID, userID string) (*ledger.AlertRecord, error)
	ListAlertRecords(ctx context.Context, userID string, accountID uuid.UUID, alertType ledger.AlertType, since time.Time) ([]ledger.AlertRecord, error)
	CountAlertRecords(ctx context.Context, userID string, accountID uuid.UUID, since time.Time) (int, error)
	ListRecentAlerts(ctx context.Context, userID string, limit int) ([]ledger.AlertRecord, error)
	UpdateAlertStatus(ctx context.Context, id uuid.UUID, userID string, status ledger.AlertStatus, snoozedUntil *time.Time) (*ledger.AlertRecord, error)
}

// AccountStore defines read access to account balances.
type AccountStore interface {
	AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to transactions, recurring payments, alert
// records and account balances.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListExpenseTransactions lists a user's outflows since the given time,
// oldest first.
func (s *Store) ListExpenseTransactions(ctx context.Context, userID string, since time.Time) ([]ledger.Transaction, error) {
	return s.listTransactions(ctx, listExpenseTransactionsSQL, "list expense transactions", userID, since)
}

// ListIncomeTransactions lists a user's inflows since the given time,
// oldest first.
func (s *Store) ListIncomeTransactions(ctx context.Context, userID string, since time.Time) ([]ledger.Transaction, error) {
	return s.listTransactions(ctx, listIncomeTransactionsSQL, "list income transactions", userID, since)
}

func (s *Store) listTransactions(ctx context.Context, query, op string, userID string, since time.Time) ([]ledger.Transaction, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, query, userID, since)
	if queryErr != nil {
		return nil, fmt.Errorf("%s: %w", op, queryErr)
	}
	defer rows.Close()

	txns := make([]ledger.Transaction, 0)
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, txn)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return txns, nil
}

// ListActiveRecurringPayments lists a user's active declared payments in
// creation order.
func (s *Store) ListActiveRecurringPayments(ctx context.Context, userID string) ([]ledger.RecurringPayment, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActivePaymentsSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list active recurring payments: %w", queryErr)
	}
	defer rows.Close()

	payments := make([]ledger.RecurringPayment, 0)
	for rows.Next() {
		payment, scanErr := scanRecurringPayment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, payment)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return payments, nil
}

// GetRecurringPayment fetches one payment owned by the user.
func (s *Store) GetRecurringPayment(ctx context.Context, id uuid.UUID, userID string) (*ledger.RecurringPayment, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	payment, scanErr := scanRecurringPayment(pool.QueryRow(ctx, getPaymentSQL, id, userID))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("get recurring payment: %w", scanErr)
	}
	return &payment, nil
}

// UpdateRecurringPayment applies the non-nil fields of the update and
// returns the stored row.
func (s *Store) UpdateRecurringPayment(ctx context.Context, id uuid.UUID, userID string, update RecurringPaymentUpdate) (*ledger.RecurringPayment, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var status interface{}
	if update.Status != nil {
		status = string(*update.Status)
	}

	var nextDue interface{}
	if update.NextDueDate != nil {
		nextDue = *update.NextDueDate
	}

	var lastPaid interface{}
	if update.LastPaidAt != nil {
		lastPaid = *update.LastPaidAt
	}

	var active interface{}
	if update.Active != nil {
		active = *update.Active
	}

	row := pool.QueryRow(ctx, updatePaymentSQL, id, userID, status, nextDue, lastPaid, active)
	payment, scanErr := scanRecurringPayment(row)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("update recurring payment: %w", scanErr)
	}
	return &payment, nil
}

// ListRecurringPaymentsDueWithin lists pending active payments across all
// users whose next due date is at or before the given time.
func (s *Store) ListRecurringPaymentsDueWithin(ctx context.Context, by time.Time) ([]ledger.RecurringPayment, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPaymentsDueWithinSQL, by)
	if queryErr != nil {
		return nil, fmt.Errorf("list recurring payments due within: %w", queryErr)
	}
	defer rows.Close()

	payments := make([]ledger.RecurringPayment, 0)
	for rows.Next() {
		payment, scanErr := scanRecurringPayment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, payment)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return payments, nil
}

// InsertAlertRecord persists a triggered alert.
func (s *Store) InsertAlertRecord(ctx context.Context, record ledger.AlertRecord) (ledger.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return ledger.AlertRecord{}, err
	}

	var snoozed interface{}
	if record.SnoozedUntil != nil {
		snoozed = *record.SnoozedUntil
	}

	row := pool.QueryRow(ctx, insertAlertRecordSQL,
		record.ID,
		record.UserID,
		record.AccountID,
		string(record.AlertType),
		record.Message,
		record.TriggeredAt,
		string(record.Status),
		snoozed,
	)

	rec, scanErr := scanAlertRecord(row)
	if scanErr != nil {
		return ledger.AlertRecord{}, fmt.Errorf("insert alert record: %w", scanErr)
	}
	return rec, nil
}

// GetAlertRecord fetches one alert record owned by the user.
func (s *Store) GetAlertRecord(ctx context.Context, id uuid.UUID, userID string) (*ledger.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rec, scanErr := scanAlertRecord(pool.QueryRow(ctx, getAlertRecordSQL, id, userID))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("get alert record: %w", scanErr)
	}
	return &rec, nil
}

// ListAlertRecords lists alerts for one (user, account, type) triple
// triggered strictly after the given time, newest first.
func (s *Store) ListAlertRecords(ctx context.Context, userID string, accountID uuid.UUID, alertType ledger.AlertType, since time.Time) ([]ledger.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertRecordsSQL, userID, accountID, string(alertType), since)
	if queryErr != nil {
		return nil, fmt.Errorf("list alert records: %w", queryErr)
	}
	defer rows.Close()

	records := make([]ledger.AlertRecord, 0)
	for rows.Next() {
		rec, scanErr := scanAlertRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// CountAlertRecords counts all alerts for a (user, account) pair
// triggered strictly after the given time.
func (s *Store) CountAlertRecords(ctx context.Context, userID string, accountID uuid.UUID, since time.Time) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int
	if scanErr := pool.QueryRow(ctx, countAlertRecordsSQL, userID, accountID, since).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count alert records: %w", scanErr)
	}
	return count, nil
}

// ListRecentAlerts lists a user's most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, userID string, limit int) ([]ledger.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, userID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]ledger.AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlertRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// UpdateAlertStatus moves an alert to a new lifecycle status and stores
// or clears the snooze deadline.
func (s *Store) UpdateAlertStatus(ctx context.Context, id uuid.UUID, userID string, status ledger.AlertStatus, snoozedUntil *time.Time) (*ledger.AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var snoozed interface{}
	if snoozedUntil != nil {
		snoozed = *snoozedUntil
	}

	row := pool.QueryRow(ctx, updateAlertStatusSQL, id, userID, string(status), snoozed)
	rec, scanErr := scanAlertRecord(row)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("update alert status: %w", scanErr)
	}
	return &rec, nil
}

// AccountBalance fetches the current balance of one account.
func (s *Store) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	pool, err := s.getPool()
	if err != nil {
		return decimal.Zero, err
	}

	var balanceStr string
	if scanErr := pool.QueryRow(ctx, accountBalanceSQL, accountID).Scan(&balanceStr); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return decimal.Zero, ledger.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("account balance: %w", scanErr)
	}

	balance, convErr := decimal.NewFromString(balanceStr)
	if convErr != nil {
		return decimal.Zero, fmt.Errorf("parse balance: %w", convErr)
	}
	return balance, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		txn       ledger.Transaction
		amountStr string
		paymentID *uuid.UUID
	)

	if err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.AccountID,
		&amountStr,
		&txn.Description,
		&txn.CategoryID,
		&txn.OccurredAt,
		&paymentID,
	); err != nil {
		return ledger.Transaction{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	txn.Amount = amount
	txn.RecurringPaymentID = paymentID

	return txn, nil
}

func scanRecurringPayment(row rowScanner) (ledger.RecurringPayment, error) {
	var (
		payment   ledger.RecurringPayment
		amountStr string
		freqStr   string
		statusStr string
		lastPaid  sql.NullTime
		offsets   []int32
	)

	if err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.AccountID,
		&payment.Name,
		&amountStr,
		&freqStr,
		&payment.NextDueDate,
		&payment.CategoryID,
		&payment.Active,
		&statusStr,
		&lastPaid,
		&offsets,
		&payment.CreatedAt,
	); err != nil {
		return ledger.RecurringPayment{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return ledger.RecurringPayment{}, fmt.Errorf("parse amount: %w", err)
	}
	payment.Amount = amount

	freq, err := ledger.ParseFrequency(freqStr)
	if err != nil {
		return ledger.RecurringPayment{}, fmt.Errorf("parse frequency: %w", err)
	}
	payment.Frequency = freq
	payment.Status = ledger.PaymentStatus(statusStr)

	if lastPaid.Valid {
		ts := lastPaid.Time
		payment.LastPaidAt = &ts
	}
	if len(offsets) > 0 {
		payment.ReminderOffsets = make([]int, len(offsets))
		for i, off := range offsets {
			payment.ReminderOffsets[i] = int(off)
		}
	}

	return payment, nil
}

func scanAlertRecord(row rowScanner) (ledger.AlertRecord, error) {
	var (
		rec       ledger.AlertRecord
		typeStr   string
		statusStr string
		snoozed   sql.NullTime
	)

	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.AccountID,
		&typeStr,
		&rec.Message,
		&rec.TriggeredAt,
		&statusStr,
		&snoozed,
	); err != nil {
		return ledger.AlertRecord{}, err
	}

	rec.AlertType = ledger.AlertType(typeStr)
	rec.Status = ledger.AlertStatus(statusStr)

	if snoozed.Valid {
		ts := snoozed.Time
		rec.SnoozedUntil = &ts
	}

	return rec, nil
}
