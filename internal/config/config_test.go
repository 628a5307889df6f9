package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "app:\n  name: salaryman-test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "salaryman-test" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.Detection.MinOccurrences != 3 {
		t.Errorf("min occurrences = %d, want 3", cfg.Detection.MinOccurrences)
	}
	if cfg.Detection.ConfidenceThreshold != 0.7 {
		t.Errorf("confidence threshold = %v, want 0.7", cfg.Detection.ConfidenceThreshold)
	}
	if cfg.Costs.BudgetFraction != 0.8 {
		t.Errorf("budget fraction = %v, want 0.8", cfg.Costs.BudgetFraction)
	}
	if cfg.Costs.AnalysisCacheTTL != 15*time.Minute {
		t.Errorf("cache ttl = %v, want 15m", cfg.Costs.AnalysisCacheTTL)
	}
	if cfg.Billing.GracePeriodDays != 3 {
		t.Errorf("grace period = %d, want 3", cfg.Billing.GracePeriodDays)
	}
	if cfg.Guard.MinInterval != time.Hour {
		t.Errorf("guard interval = %v, want 1h", cfg.Guard.MinInterval)
	}
	if cfg.Guard.DailyCap != 10 {
		t.Errorf("daily cap = %d, want 10", cfg.Guard.DailyCap)
	}
	if cfg.Scheduler.Interval != 24*time.Hour {
		t.Errorf("scheduler interval = %v, want 24h", cfg.Scheduler.Interval)
	}
	if cfg.Billing.BusinessDay.Direction != "forward" {
		t.Errorf("business day direction = %q", cfg.Billing.BusinessDay.Direction)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SALARYMAN_DETECTION_MIN_OCCURRENCES", "4")
	t.Setenv("SALARYMAN_GUARD_DAILY_CAP", "5")

	path := writeConfigFile(t, "app:\n  name: salaryman\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Detection.MinOccurrences != 4 {
		t.Errorf("min occurrences = %d, want env override 4", cfg.Detection.MinOccurrences)
	}
	if cfg.Guard.DailyCap != 5 {
		t.Errorf("daily cap = %d, want env override 5", cfg.Guard.DailyCap)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "zero min occurrences",
			body: "detection:\n  min_occurrences: 0\n",
			want: "detection.min_occurrences",
		},
		{
			name: "threshold above one",
			body: "detection:\n  confidence_threshold: 1.5\n",
			want: "detection.confidence_threshold",
		},
		{
			name: "budget fraction zero",
			body: "costs:\n  budget_fraction: 0\n",
			want: "costs.budget_fraction",
		},
		{
			name: "negative grace",
			body: "billing:\n  grace_period_days: -1\n",
			want: "billing.grace_period_days",
		},
		{
			name: "bad direction",
			body: "billing:\n  business_day:\n    direction: sideways\n",
			want: "billing.business_day.direction",
		},
		{
			name: "bad holiday",
			body: "billing:\n  business_day:\n    holidays:\n      - not-a-date\n",
			want: "billing.business_day.holidays",
		},
		{
			name: "telegram enabled without token",
			body: "alerting:\n  telegram:\n    enabled: true\n    chat_id: \"42\"\n",
			want: "alerting.telegram.bot_token",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestResolveGraceDays(t *testing.T) {
	cfg := &Config{}
	cfg.Billing.GracePeriodDays = 3

	if got := cfg.ResolveGraceDays(-1); got != 3 {
		t.Errorf("ResolveGraceDays(-1) = %d, want config value 3", got)
	}
	if got := cfg.ResolveGraceDays(0); got != 0 {
		t.Errorf("ResolveGraceDays(0) = %d, want explicit 0", got)
	}
	if got := cfg.ResolveGraceDays(7); got != 7 {
		t.Errorf("ResolveGraceDays(7) = %d, want override 7", got)
	}
}

func TestHolidays(t *testing.T) {
	cfg := BillingConfig{}
	cfg.BusinessDay.Holidays = []string{"2025-01-26", "2025-08-15"}

	days := cfg.Holidays()
	if len(days) != 2 {
		t.Fatalf("holidays = %d entries, want 2", len(days))
	}
	if days[0].Month() != time.January || days[0].Day() != 26 {
		t.Errorf("first holiday = %v", days[0])
	}
}
