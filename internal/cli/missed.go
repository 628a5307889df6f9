package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	missedUser  string
	missedGrace int
)

var missedCmd = &cobra.Command{
	Use:   "missed",
	Short: "Scan for missed payments and escalate them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if missedUser == "" {
			return fmt.Errorf("--user must be provided")
		}

		opts := app.MissedOptions{
			UserID:    missedUser,
			GraceDays: missedGrace,
		}

		return getApp().Missed(cmd.Context(), opts)
	},
}

func init() {
	missedCmd.Flags().StringVar(&missedUser, "user", "", "User ID to scan")
	missedCmd.Flags().IntVar(&missedGrace, "grace", -1, "Days past due before a payment counts as missed (defaults to config)")
}
