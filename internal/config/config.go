package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"salaryman/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Detection DetectionConfig `mapstructure:"detection"`
	Costs     CostsConfig     `mapstructure:"costs"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs the daily batch cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToStart    bool          `mapstructure:"align_to_start"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// DetectionConfig tunes recurring-pattern mining.
type DetectionConfig struct {
	MinOccurrences      int     `mapstructure:"min_occurrences"`
	AmountTolerancePct  float64 `mapstructure:"amount_tolerance_pct"`
	DateVarianceDays    int     `mapstructure:"date_variance_days"`
	LookbackMonths      int     `mapstructure:"lookback_months"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	LargeAmount         float64 `mapstructure:"large_amount"`
	MediumAmount        float64 `mapstructure:"medium_amount"`
}

// CostsConfig tunes cost aggregation.
type CostsConfig struct {
	BudgetFraction   float64       `mapstructure:"budget_fraction"`
	AnalysisCacheTTL time.Duration `mapstructure:"analysis_cache_ttl"`
}

// BillingConfig governs due-date tracking and reminders.
type BillingConfig struct {
	GracePeriodDays     int               `mapstructure:"grace_period_days"`
	ReminderHorizonDays int               `mapstructure:"reminder_horizon_days"`
	BusinessDay         BusinessDayConfig `mapstructure:"business_day"`
}

// BusinessDayConfig controls weekend/holiday due-date adjustment.
type BusinessDayConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Direction string   `mapstructure:"direction"`
	Holidays  []string `mapstructure:"holidays"`
}

// GuardConfig throttles repeated alerts.
type GuardConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
	DailyCap    int           `mapstructure:"daily_cap"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SALARYMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "salaryman")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "24h")
	v.SetDefault("scheduler.align_to_start", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x736c7279))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("detection.min_occurrences", 3)
	v.SetDefault("detection.amount_tolerance_pct", 5.0)
	v.SetDefault("detection.date_variance_days", 3)
	v.SetDefault("detection.lookback_months", 12)
	v.SetDefault("detection.confidence_threshold", 0.7)
	v.SetDefault("detection.large_amount", 10000.0)
	v.SetDefault("detection.medium_amount", 5000.0)

	v.SetDefault("costs.budget_fraction", 0.8)
	v.SetDefault("costs.analysis_cache_ttl", "15m")

	v.SetDefault("billing.grace_period_days", 3)
	v.SetDefault("billing.reminder_horizon_days", 60)
	v.SetDefault("billing.business_day.enabled", false)
	v.SetDefault("billing.business_day.direction", "forward")
	v.SetDefault("billing.business_day.holidays", []string{})

	v.SetDefault("guard.min_interval", "60m")
	v.SetDefault("guard.daily_cap", 10)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.output_dir", "exports")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Detection.MinOccurrences < 1 {
		return fmt.Errorf("detection.min_occurrences must be at least one")
	}
	if c.Detection.AmountTolerancePct < 0 {
		return fmt.Errorf("detection.amount_tolerance_pct cannot be negative")
	}
	if c.Detection.DateVarianceDays < 0 {
		return fmt.Errorf("detection.date_variance_days cannot be negative")
	}
	if c.Detection.LookbackMonths < 1 {
		return fmt.Errorf("detection.lookback_months must be at least one")
	}
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return fmt.Errorf("detection.confidence_threshold must be within [0,1]")
	}
	if c.Costs.BudgetFraction <= 0 || c.Costs.BudgetFraction > 1 {
		return fmt.Errorf("costs.budget_fraction must be within (0,1]")
	}
	if c.Billing.GracePeriodDays < 0 {
		return fmt.Errorf("billing.grace_period_days cannot be negative")
	}
	if c.Billing.ReminderHorizonDays < 1 {
		return fmt.Errorf("billing.reminder_horizon_days must be at least one")
	}
	if d := c.Billing.BusinessDay.Direction; d != "forward" && d != "backward" {
		return fmt.Errorf("billing.business_day.direction must be forward or backward")
	}
	for _, h := range c.Billing.BusinessDay.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("billing.business_day.holidays entry %q: %w", h, err)
		}
	}
	if c.Guard.MinInterval <= 0 {
		return fmt.Errorf("guard.min_interval must be greater than zero")
	}
	if c.Guard.DailyCap < 1 {
		return fmt.Errorf("guard.daily_cap must be at least one")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveGraceDays returns either the CLI override or config default.
func (c *Config) ResolveGraceDays(override int) int {
	if override >= 0 {
		return override
	}
	return c.Billing.GracePeriodDays
}

// Holidays parses the configured holiday dates. Validate has already
// rejected malformed entries.
func (c *BillingConfig) Holidays() []time.Time {
	if len(c.BusinessDay.Holidays) == 0 {
		return nil
	}
	days := make([]time.Time, 0, len(c.BusinessDay.Holidays))
	for _, h := range c.BusinessDay.Holidays {
		t, err := time.Parse("2006-01-02", h)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	return days
}
