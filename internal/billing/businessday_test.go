package billing

import (
	"testing"
	"time"
)

// June 2025: the 13th is a Friday, 14th Saturday, 15th Sunday, 16th Monday.
func TestAdjustWeekend(t *testing.T) {
	saturday := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

	forward := NewAdjuster(BusinessDayConfig{Enabled: true, Direction: DirectionForward})
	if got := forward.Adjust(saturday); got.Day() != 16 {
		t.Fatalf("forward from Saturday = %s, want Monday the 16th", got)
	}

	backward := NewAdjuster(BusinessDayConfig{Enabled: true, Direction: DirectionBackward})
	if got := backward.Adjust(saturday); got.Day() != 13 {
		t.Fatalf("backward from Saturday = %s, want Friday the 13th", got)
	}
}

func TestAdjustSkipsHolidays(t *testing.T) {
	saturday := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2025, time.June, 13, 0, 0, 0, 0, time.UTC)

	adj := NewAdjuster(BusinessDayConfig{
		Enabled:   true,
		Direction: DirectionBackward,
		Holidays:  []time.Time{friday},
	})
	if got := adj.Adjust(saturday); got.Day() != 12 {
		t.Fatalf("backward over a holiday Friday = %s, want Thursday the 12th", got)
	}
}

func TestAdjustDisabledAndNil(t *testing.T) {
	saturday := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	off := NewAdjuster(BusinessDayConfig{})
	if got := off.Adjust(saturday); !got.Equal(saturday) {
		t.Fatal("disabled adjuster must not move dates")
	}
	var nilAdj *Adjuster
	if got := nilAdj.Adjust(saturday); !got.Equal(saturday) {
		t.Fatal("nil adjuster must not move dates")
	}
	weekday := time.Date(2025, time.June, 17, 0, 0, 0, 0, time.UTC)
	on := NewAdjuster(BusinessDayConfig{Enabled: true})
	if got := on.Adjust(weekday); !got.Equal(weekday) {
		t.Fatal("business days must pass through unchanged")
	}
}
