package cli

import (
	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Run one reminder batch immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RemindersOnce(cmd.Context())
	},
}
