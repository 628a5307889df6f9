package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsExpense(t *testing.T) {
	out := Transaction{Amount: decimal.NewFromInt(-599)}
	in := Transaction{Amount: decimal.NewFromInt(50000)}
	zero := Transaction{Amount: decimal.Zero}
	if !out.IsExpense() {
		t.Fatal("outflow not classified as expense")
	}
	if in.IsExpense() || zero.IsExpense() {
		t.Fatal("inflow or zero classified as expense")
	}
}

func TestMaxReminderOffset(t *testing.T) {
	p := RecurringPayment{ReminderOffsets: []int{1, 7, 3}}
	if got := p.MaxReminderOffset(); got != 7 {
		t.Fatalf("MaxReminderOffset = %d, want 7", got)
	}
	if got := (RecurringPayment{}).MaxReminderOffset(); got != 0 {
		t.Fatalf("MaxReminderOffset with no offsets = %d, want 0", got)
	}
}

func TestAlertStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AlertStatus
		ok       bool
	}{
		{AlertTriggered, AlertAcknowledged, true},
		{AlertTriggered, AlertSnoozed, true},
		{AlertTriggered, AlertDismissed, true},
		{AlertSnoozed, AlertAcknowledged, true},
		{AlertSnoozed, AlertDismissed, true},
		{AlertSnoozed, AlertTriggered, false},
		{AlertAcknowledged, AlertDismissed, true},
		{AlertAcknowledged, AlertSnoozed, false},
		{AlertAcknowledged, AlertTriggered, false},
		{AlertDismissed, AlertAcknowledged, false},
		{AlertDismissed, AlertSnoozed, false},
		{AlertDismissed, AlertTriggered, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}
