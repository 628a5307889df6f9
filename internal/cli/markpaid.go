package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	markPaidPayment string
	markPaidUser    string
	markPaidDate    string
)

var markPaidCmd = &cobra.Command{
	Use:   "mark-paid",
	Short: "Mark a recurring payment as paid and advance its due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		if markPaidPayment == "" || markPaidUser == "" {
			return fmt.Errorf("--payment and --user must be provided")
		}

		paymentID, err := uuid.Parse(markPaidPayment)
		if err != nil {
			return fmt.Errorf("invalid --payment value: %w", err)
		}

		opts := app.MarkPaidOptions{
			PaymentID: paymentID,
			UserID:    markPaidUser,
		}

		if markPaidDate != "" {
			paidOn, err := time.Parse("2006-01-02", markPaidDate)
			if err != nil {
				return fmt.Errorf("invalid --date value: %w", err)
			}
			opts.PaidOn = &paidOn
		}

		return getApp().MarkPaid(cmd.Context(), opts)
	},
}

func init() {
	markPaidCmd.Flags().StringVar(&markPaidPayment, "payment", "", "Payment ID (UUID)")
	markPaidCmd.Flags().StringVar(&markPaidUser, "user", "", "User ID owning the payment")
	markPaidCmd.Flags().StringVar(&markPaidDate, "date", "", "Payment date (YYYY-MM-DD, defaults to today)")
}
