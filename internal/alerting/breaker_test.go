package alerting

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) Notify(_ context.Context, _ Notification) error {
	f.calls++
	return f.err
}

func TestBreakerNotifierPassesThrough(t *testing.T) {
	inner := &flakyNotifier{}
	breaker := NewBreakerNotifier(inner, testLogger())

	if err := breaker.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
}

func TestBreakerNotifierOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("telegram down")}
	breaker := NewBreakerNotifier(inner, testLogger())

	for i := 0; i < 5; i++ {
		if err := breaker.Notify(context.Background(), sampleNotification()); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}
	if inner.calls != 5 {
		t.Fatalf("inner calls = %d, want 5 before the circuit opens", inner.calls)
	}

	err := breaker.Notify(context.Background(), sampleNotification())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if inner.calls != 5 {
		t.Fatalf("inner calls = %d, open circuit must not forward", inner.calls)
	}
}
