package billing

import "time"

// Direction values for business-day adjustment.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
)

// BusinessDayConfig controls optional rolling of due dates off weekends
// and holidays.
type BusinessDayConfig struct {
	Enabled   bool
	Direction string
	Holidays  []time.Time
}

// Adjuster rolls dates onto business days. A nil or disabled adjuster
// leaves dates untouched.
type Adjuster struct {
	enabled  bool
	step     int
	holidays map[string]struct{}
}

const holidayKeyLayout = "2006-01-02"

// NewAdjuster builds an adjuster from config. Unknown directions roll
// forward.
func NewAdjuster(cfg BusinessDayConfig) *Adjuster {
	step := 1
	if cfg.Direction == DirectionBackward {
		step = -1
	}
	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays[h.Format(holidayKeyLayout)] = struct{}{}
	}
	return &Adjuster{enabled: cfg.Enabled, step: step, holidays: holidays}
}

// Adjust rolls t in the configured direction until it lands on a
// business day.
func (a *Adjuster) Adjust(t time.Time) time.Time {
	if a == nil || !a.enabled {
		return t
	}
	for a.isClosed(t) {
		t = t.AddDate(0, 0, a.step)
	}
	return t
}

func (a *Adjuster) isClosed(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}
	_, holiday := a.holidays[t.Format(holidayKeyLayout)]
	return holiday
}
