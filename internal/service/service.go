package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"salaryman/internal/alerting"
	"salaryman/internal/billing"
	"salaryman/internal/cache"
	"salaryman/internal/config"
	"salaryman/internal/costs"
	"salaryman/internal/guard"
	"salaryman/internal/ledger"
	"salaryman/internal/recurring"
	"salaryman/internal/scheduler"
	"salaryman/internal/storage"
)

// Engine orchestrates pattern detection, cost analysis, due-date
// tracking and alert delivery.
type Engine struct {
	scheduler *scheduler.Scheduler
	txns      storage.TransactionStore
	payments  storage.RecurringPaymentStore
	alerts    storage.AlertStore
	accounts  storage.AccountStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	detector *recurring.Detector
	analyzer *costs.Analyzer
	guard    *guard.Guard
	adjuster *billing.Adjuster
	cache    *cache.Cache[*costs.Analysis]

	detectOpts          recurring.Options
	reminderHorizonDays int
	channels            []string
	alertsOn            bool
	locker              storage.AdvisoryLocker
	lockKey             int64
	now                 func() time.Time
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithClock injects the time source used by every operation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New constructs the engine.
func New(cfg *config.Config, sched *scheduler.Scheduler, txns storage.TransactionStore, payments storage.RecurringPaymentStore, alerts storage.AlertStore, accounts storage.AccountStore, notifier alerting.Notifier, logger zerolog.Logger, opts ...Option) *Engine {
	detectOpts := recurring.Options{
		MinOccurrences:      cfg.Detection.MinOccurrences,
		AmountTolerancePct:  cfg.Detection.AmountTolerancePct,
		DateVarianceDays:    cfg.Detection.DateVarianceDays,
		LookbackMonths:      cfg.Detection.LookbackMonths,
		ConfidenceThreshold: cfg.Detection.ConfidenceThreshold,
		LargeAmount:         decimal.NewFromFloat(cfg.Detection.LargeAmount),
		MediumAmount:        decimal.NewFromFloat(cfg.Detection.MediumAmount),
	}

	var locker storage.AdvisoryLocker
	if l, ok := payments.(storage.AdvisoryLocker); ok {
		locker = l
	}

	e := &Engine{
		scheduler:           sched,
		txns:                txns,
		payments:            payments,
		alerts:              alerts,
		accounts:            accounts,
		notifier:            notifier,
		logger:              logger.With().Str("component", "service").Logger(),
		detectOpts:          detectOpts,
		reminderHorizonDays: cfg.Billing.ReminderHorizonDays,
		channels:            cfg.Alerting.Channels,
		alertsOn:            cfg.Alerting.Enabled,
		locker:              locker,
		lockKey:             cfg.Scheduler.AdvisoryLockKey,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.detector = recurring.NewDetector(detectOpts, logger)
	e.analyzer = costs.NewAnalyzer(costs.Options{BudgetFraction: cfg.Costs.BudgetFraction}, logger)
	e.guard = guard.New(alerts, guard.Options{
		MinInterval: cfg.Guard.MinInterval,
		DailyCap:    cfg.Guard.DailyCap,
	}, logger)
	e.adjuster = billing.NewAdjuster(billing.BusinessDayConfig{
		Enabled:   cfg.Billing.BusinessDay.Enabled,
		Direction: cfg.Billing.BusinessDay.Direction,
		Holidays:  cfg.Billing.Holidays(),
	})
	e.cache = cache.New[*costs.Analysis](cache.Options{
		TTL: cfg.Costs.AnalysisCacheTTL,
		Now: func() time.Time { return e.now() },
	})

	return e
}

// Run begins the aligned daily batch loop.
func (e *Engine) Run(ctx context.Context) error {
	if e.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return e.scheduler.Run(ctx, func(ctx context.Context, _ time.Time) error {
		_, err := e.ProcessDailyReminders(ctx)
		return err
	})
}

// DetectRecurringPatterns mines a user's expense history for recurring
// merchants. Read-only; any internal failure aborts the whole call.
func (e *Engine) DetectRecurringPatterns(ctx context.Context, userID string, override *recurring.Options) ([]recurring.Detection, error) {
	if userID == "" {
		return nil, &ledger.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	opts := e.detectOpts
	detector := e.detector
	if override != nil {
		if err := override.Validate(); err != nil {
			return nil, err
		}
		opts = *override
		detector = recurring.NewDetector(opts, e.logger)
	}

	now := e.now()
	since := now.AddDate(0, -opts.LookbackMonths, 0)

	txns, err := e.txns.ListExpenseTransactions(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	declared, err := e.payments.ListActiveRecurringPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load declared payments: %w", err)
	}

	detections := detector.Detect(now, txns, declared)
	e.logger.Info().Str("user_id", userID).
		Int("transactions", len(txns)).
		Int("detections", len(detections)).
		Msg("recurring detection completed")
	return detections, nil
}

// GetCostAnalysis aggregates the recurring cost picture for one user.
// Results are cached per user until the TTL lapses or a payment write
// invalidates them; an explicit override bypasses the cache.
func (e *Engine) GetCostAnalysis(ctx context.Context, userID string, override *costs.Options) (*costs.Analysis, error) {
	if userID == "" {
		return nil, &ledger.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	if override == nil {
		if cached, ok := e.cache.Get(userID); ok {
			return cached, nil
		}
	}

	now := e.now()
	payments, err := e.payments.ListActiveRecurringPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load declared payments: %w", err)
	}
	income, err := e.txns.ListIncomeTransactions(ctx, userID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("load income: %w", err)
	}

	analyzer := e.analyzer
	if override != nil {
		analyzer = costs.NewAnalyzer(*override, e.logger)
	}

	analysis := analyzer.Analyze(now, payments, income)
	if override == nil {
		e.cache.Set(userID, analysis)
	}
	return analysis, nil
}

func (e *Engine) acquireLock(ctx context.Context) (func(), bool, error) {
	if e.lockKey == 0 || e.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := e.locker.TryAdvisoryLock(ctx, e.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
