package app

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// MarkPaid settles one payment and advances its schedule.
func (a *App) MarkPaid(ctx context.Context, opts MarkPaidOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot mark payments")
	}
	defer closeStore()

	engine := a.newEngine(store, nil)

	payment, err := engine.MarkPaymentAsPaid(ctx, opts.PaymentID, opts.UserID, opts.PaidOn)
	if err != nil {
		return err
	}
	if payment == nil {
		fmt.Fprintln(os.Stdout, "payment not found")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%s marked as paid; next due %s\n",
		payment.Name, payment.NextDueDate.Format("2006-01-02"))
	return nil
}
