package app

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// RemindersOnce 立即执行一次提醒批处理，不启动调度器。
func (a *App) RemindersOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn 未配置，无法执行提醒批处理")
	}
	defer closeStore()

	engine := a.newEngine(store, nil)

	run, err := engine.ProcessDailyReminders(ctx)
	if err != nil {
		return err
	}
	if run.Skipped {
		fmt.Fprintln(os.Stdout, "another instance holds the reminder lock; nothing to do")
		return nil
	}

	fmt.Fprintf(os.Stdout, "processed %d payments: %d reminders fired, %d insufficient-funds warnings\n",
		run.ProcessedCount, run.TriggeredCount, run.InsufficientFundsWarnings)
	return nil
}
