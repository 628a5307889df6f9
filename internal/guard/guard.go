// Package guard rate-limits alert delivery so reminder runs cannot spam
// a user.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salaryman/internal/ledger"
)

// AlertHistory is the slice of the alert store the guard reads.
type AlertHistory interface {
	ListAlertRecords(ctx context.Context, userID string, accountID uuid.UUID, alertType ledger.AlertType, since time.Time) ([]ledger.AlertRecord, error)
	CountAlertRecords(ctx context.Context, userID string, accountID uuid.UUID, since time.Time) (int, error)
}

// Options tune the guard.
type Options struct {
	// MinInterval is the shortest allowed gap between two alerts of the
	// same type for the same user and account.
	MinInterval time.Duration
	// DailyCap is the most alerts of any type one user and account pair
	// may receive inside a trailing 24 hour window.
	DailyCap int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{MinInterval: time.Hour, DailyCap: 10}
}

// Guard decides whether an alert may fire now.
type Guard struct {
	history AlertHistory
	opts    Options
	logger  zerolog.Logger
}

// New builds a guard. Zero options fall back to the defaults.
func New(history AlertHistory, opts Options, logger zerolog.Logger) *Guard {
	def := DefaultOptions()
	if opts.MinInterval <= 0 {
		opts.MinInterval = def.MinInterval
	}
	if opts.DailyCap <= 0 {
		opts.DailyCap = def.DailyCap
	}
	return &Guard{history: history, opts: opts, logger: logger}
}

// Allow reports whether an alert of alertType may fire for the user and
// account at now. A record strictly newer than now minus the minimum
// interval blocks; a record exactly one interval old does not. The daily
// cap counts alerts of every type over the trailing 24 hours.
func (g *Guard) Allow(ctx context.Context, userID string, accountID uuid.UUID, alertType ledger.AlertType, now time.Time) (bool, error) {
	intervalCutoff := now.Add(-g.opts.MinInterval)
	recent, err := g.history.ListAlertRecords(ctx, userID, accountID, alertType, intervalCutoff)
	if err != nil {
		return false, fmt.Errorf("list alert records: %w", err)
	}
	for _, r := range recent {
		if r.TriggeredAt.After(intervalCutoff) {
			g.logger.Debug().
				Str("user_id", userID).
				Str("alert_type", string(alertType)).
				Time("last_fired", r.TriggeredAt).
				Msg("alert suppressed inside minimum interval")
			return false, nil
		}
	}

	count, err := g.history.CountAlertRecords(ctx, userID, accountID, now.Add(-24*time.Hour))
	if err != nil {
		return false, fmt.Errorf("count alert records: %w", err)
	}
	if count >= g.opts.DailyCap {
		g.logger.Debug().
			Str("user_id", userID).
			Int("count", count).
			Int("cap", g.opts.DailyCap).
			Msg("alert suppressed by daily cap")
		return false, nil
	}
	return true, nil
}
