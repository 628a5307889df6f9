package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"salaryman/internal/alerting"
	"salaryman/internal/config"
	"salaryman/internal/scheduler"
	"salaryman/internal/service"
	"salaryman/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		telegram := alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
		return alerting.NewBreakerNotifier(telegram, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	if path := a.Config.Database.MigrationsPath; path != "" {
		a.Logger.Debug().Str("path", path).Msg("applying database migrations")
		if err := storage.RunMigrations(a.Config.Database.DSN, path); err != nil {
			return nil, nil, err
		}
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newEngine(store *storage.Store, sched *scheduler.Scheduler) *service.Engine {
	return service.New(a.Config, sched, store, store, store, store, a.newNotifier(), a.Logger)
}

// Run executes the long-running reminder service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; the reminder service needs persistence")
	}
	defer closeStore()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	engine := a.newEngine(store, sched)

	a.Logger.Info().Msg("starting reminder service")
	err = engine.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("reminder service stopped")
	return nil
}

// DetectOptions configure the detect command.
type DetectOptions struct {
	UserID              string
	MinOccurrences      int
	LookbackMonths      int
	ConfidenceThreshold float64
}

// CostsOptions configure the costs command.
type CostsOptions struct {
	UserID         string
	BudgetFraction float64
}

// MissedOptions configure the missed-payment scan.
type MissedOptions struct {
	UserID    string
	GraceDays int
}

// MarkPaidOptions identify the payment being settled.
type MarkPaidOptions struct {
	PaymentID uuid.UUID
	UserID    string
	PaidOn    *time.Time
}

// AlertsOptions configure the alerts listing.
type AlertsOptions struct {
	UserID string
	Limit  int
}

// ExportOptions hold parameters for exporting the cost breakdown.
type ExportOptions struct {
	UserID  string
	CSVPath string
	PNGPath string
}

// SimulateOptions describe the synthetic reminder to send.
type SimulateOptions struct {
	Name      string
	Amount    decimal.Decimal
	DueInDays int
}
