package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"salaryman/internal/app"
)

var (
	exportUser    string
	exportCSVPath string
	exportPNGPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the cost breakdown as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportUser == "" {
			return fmt.Errorf("--user must be provided")
		}

		opts := app.ExportOptions{
			UserID:  exportUser,
			CSVPath: exportCSVPath,
			PNGPath: exportPNGPath,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "User ID to export")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
}
