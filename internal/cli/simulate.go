package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	simulateName   string
	simulateAmount float64
	simulateDays   int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-reminder",
	Short: "模拟一次账单提醒并发送告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateAmount <= 0 {
			return errors.New("--amount 必须大于 0")
		}

		opts := app.SimulateOptions{
			Name:      simulateName,
			Amount:    decimal.NewFromFloat(simulateAmount),
			DueInDays: simulateDays,
		}

		return getApp().SimulateReminder(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateName, "name", "Test Bill", "账单名称")
	simulateCmd.Flags().Float64Var(&simulateAmount, "amount", 0, "账单金额")
	simulateCmd.Flags().IntVar(&simulateDays, "days", 3, "距离到期的天数")
}
