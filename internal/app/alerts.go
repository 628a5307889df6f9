package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"salaryman/internal/service"
)

// Alerts prints the most recent alert records for one user.
func (a *App) Alerts(ctx context.Context, opts AlertsOptions) error {
	return a.withEngine(ctx, func(engine *service.Engine) error {
		records, err := engine.ListRecentAlerts(ctx, opts.UserID, opts.Limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stdout, "no alerts found")
			return nil
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tType\tStatus\tTriggered (UTC)\tSnoozed Until\tMessage")

		for _, rec := range records {
			snoozed := ""
			if rec.SnoozedUntil != nil {
				snoozed = rec.SnoozedUntil.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
				rec.ID,
				rec.AlertType,
				rec.Status,
				rec.TriggeredAt.UTC().Format(time.RFC3339),
				snoozed,
				sanitizeInline(rec.Message),
			)
		}

		writer.Flush()
		return nil
	})
}

// AcknowledgeAlert moves one alert to acknowledged.
func (a *App) AcknowledgeAlert(ctx context.Context, alertID uuid.UUID, userID string) error {
	return a.withEngine(ctx, func(engine *service.Engine) error {
		record, err := engine.AcknowledgeAlert(ctx, alertID, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "alert %s acknowledged\n", record.ID)
		return nil
	})
}

// SnoozeAlert silences one alert until the given time.
func (a *App) SnoozeAlert(ctx context.Context, alertID uuid.UUID, userID string, until time.Time) error {
	return a.withEngine(ctx, func(engine *service.Engine) error {
		record, err := engine.SnoozeAlert(ctx, alertID, userID, until)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "alert %s snoozed until %s\n", record.ID, until.UTC().Format(time.RFC3339))
		return nil
	})
}

// DismissAlert closes one alert for good.
func (a *App) DismissAlert(ctx context.Context, alertID uuid.UUID, userID string) error {
	return a.withEngine(ctx, func(engine *service.Engine) error {
		record, err := engine.DismissAlert(ctx, alertID, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "alert %s dismissed\n", record.ID)
		return nil
	})
}

func (a *App) withEngine(ctx context.Context, fn func(*service.Engine) error) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot manage alerts")
	}
	defer closeStore()

	return fn(a.newEngine(store, nil))
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
