package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	costsUser           string
	costsBudgetFraction float64
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Summarize recurring payment costs for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if costsUser == "" {
			return fmt.Errorf("--user must be provided")
		}

		opts := app.CostsOptions{
			UserID:         costsUser,
			BudgetFraction: costsBudgetFraction,
		}

		return getApp().Costs(cmd.Context(), opts)
	},
}

func init() {
	costsCmd.Flags().StringVar(&costsUser, "user", "", "User ID to analyze")
	costsCmd.Flags().Float64Var(&costsBudgetFraction, "budget-fraction", 0, "Share of income treated as budget (defaults to config)")
}
