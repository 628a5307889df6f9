package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	detectUser       string
	detectMinOcc     int
	detectLookback   int
	detectConfidence float64
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect recurring payment patterns for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if detectUser == "" {
			return fmt.Errorf("--user must be provided")
		}

		opts := app.DetectOptions{
			UserID:              detectUser,
			MinOccurrences:      detectMinOcc,
			LookbackMonths:      detectLookback,
			ConfidenceThreshold: detectConfidence,
		}

		return getApp().Detect(cmd.Context(), opts)
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectUser, "user", "", "User ID to scan")
	detectCmd.Flags().IntVar(&detectMinOcc, "min-occurrences", 0, "Minimum charges before a pattern counts (defaults to config)")
	detectCmd.Flags().IntVar(&detectLookback, "lookback-months", 0, "Months of history to mine (defaults to config)")
	detectCmd.Flags().Float64Var(&detectConfidence, "confidence", 0, "Confidence threshold between 0 and 1 (defaults to config)")
}
