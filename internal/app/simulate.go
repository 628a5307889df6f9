package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salaryman/internal/alerting"
	"salaryman/internal/ledger"
)

// SimulateReminder 构造一条测试提醒并发送，用于验证告警链路。
func (a *App) SimulateReminder(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	due := time.Now().UTC().AddDate(0, 0, opts.DueInDays)
	note := alerting.Notification{
		UserID:   "simulated",
		Type:     ledger.AlertBillReminder,
		Name:     opts.Name,
		Amount:   opts.Amount,
		DueDate:  due,
		Message:  fmt.Sprintf("%s (%s) is due in %d days on %s", opts.Name, opts.Amount.StringFixed(2), opts.DueInDays, due.Format("2006-01-02")),
		Channels: a.Config.Alerting.Channels,
	}

	return notifier.Notify(ctx, note)
}
