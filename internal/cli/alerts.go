package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	alertsUser  string
	alertsLimit int
	alertsID    string
	alertsUntil string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and manage fired alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Display recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertsUser == "" {
			return fmt.Errorf("--user must be provided")
		}
		if alertsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.AlertsOptions{
			UserID: alertsUser,
			Limit:  alertsLimit,
		}

		return getApp().Alerts(cmd.Context(), opts)
	},
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack",
	Short: "Acknowledge an alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		alertID, userID, err := alertTarget()
		if err != nil {
			return err
		}
		return getApp().AcknowledgeAlert(cmd.Context(), alertID, userID)
	},
}

var alertsSnoozeCmd = &cobra.Command{
	Use:   "snooze",
	Short: "Snooze an alert until a later time",
	RunE: func(cmd *cobra.Command, args []string) error {
		alertID, userID, err := alertTarget()
		if err != nil {
			return err
		}

		if alertsUntil == "" {
			return fmt.Errorf("--until must be provided")
		}
		until, err := time.Parse(time.RFC3339, alertsUntil)
		if err != nil {
			return fmt.Errorf("invalid --until value: %w", err)
		}

		return getApp().SnoozeAlert(cmd.Context(), alertID, userID, until)
	},
}

var alertsDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss an alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		alertID, userID, err := alertTarget()
		if err != nil {
			return err
		}
		return getApp().DismissAlert(cmd.Context(), alertID, userID)
	},
}

func alertTarget() (uuid.UUID, string, error) {
	if alertsID == "" || alertsUser == "" {
		return uuid.Nil, "", fmt.Errorf("--id and --user must be provided")
	}

	alertID, err := uuid.Parse(alertsID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid --id value: %w", err)
	}
	return alertID, alertsUser, nil
}

func init() {
	alertsListCmd.Flags().StringVar(&alertsUser, "user", "", "User ID to list alerts for")
	alertsListCmd.Flags().IntVar(&alertsLimit, "limit", 20, "Number of alerts to display")

	for _, cmd := range []*cobra.Command{alertsAckCmd, alertsSnoozeCmd, alertsDismissCmd} {
		cmd.Flags().StringVar(&alertsID, "id", "", "Alert ID (UUID)")
		cmd.Flags().StringVar(&alertsUser, "user", "", "User ID owning the alert")
	}
	alertsSnoozeCmd.Flags().StringVar(&alertsUntil, "until", "", "Snooze until (RFC3339)")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsAckCmd)
	alertsCmd.AddCommand(alertsSnoozeCmd)
	alertsCmd.AddCommand(alertsDismissCmd)
}
