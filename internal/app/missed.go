package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
)

// Missed scans for overdue payments, escalates them and prints the result.
func (a *App) Missed(ctx context.Context, opts MissedOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot scan for missed payments")
	}
	defer closeStore()

	engine := a.newEngine(store, nil)

	missed, err := engine.DetectMissedPayments(ctx, opts.UserID, a.Config.ResolveGraceDays(opts.GraceDays))
	if err != nil {
		return err
	}
	if len(missed) == 0 {
		fmt.Fprintln(os.Stdout, "no missed payments")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Name\tDue\tDays Overdue\tAmount\tMisses\tLast Paid")

	for _, m := range missed {
		lastPaid := "never"
		if m.LastPaidAt != nil {
			lastPaid = m.LastPaidAt.Format("2006-01-02")
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%d\t%s\n",
			m.Name,
			m.ExpectedOn.Format("2006-01-02"),
			m.DaysOverdue,
			formatDecimal(m.Amount, 2),
			m.ConsecutiveMisses,
			lastPaid,
		)
	}

	writer.Flush()
	return nil
}
