package alerting

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerNotifier wraps a Notifier with a circuit breaker so a dead
// delivery channel stops consuming the batch run. Trips after five
// consecutive failures.
type BreakerNotifier struct {
	next   Notifier
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

// NewBreakerNotifier 构造带熔断的告警器。
func NewBreakerNotifier(next Notifier, logger zerolog.Logger) *BreakerNotifier {
	componentLogger := logger.With().Str("component", "alert_breaker").Logger()

	settings := gobreaker.Settings{
		Name: "notifier",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			componentLogger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("notifier circuit state changed")
		},
	}

	return &BreakerNotifier{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: componentLogger,
	}
}

// Notify forwards through the breaker; when the circuit is open the
// delivery fails fast without touching the channel.
func (b *BreakerNotifier) Notify(ctx context.Context, note Notification) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Notify(ctx, note)
	})
	return err
}

var _ Notifier = (*BreakerNotifier)(nil)
