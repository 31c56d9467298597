package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingSleeper collects requested sleep durations without sleeping.
type recordingSleeper struct {
	slept []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return s.err
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	s := &recordingSleeper{}
	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Second}.Do(context.Background(), s, func(int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(s.slept) != 0 {
		t.Errorf("expected no backoff sleeps, got %v", s.slept)
	}
}

func TestDo_ExponentialBackoff(t *testing.T) {
	s := &recordingSleeper{}
	boom := errors.New("boom")
	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Second}.Do(context.Background(), s, func(int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(s.slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), s.slept)
	}
	for i := range want {
		if s.slept[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], s.slept[i])
		}
	}
}

func TestDo_RecoversOnLaterAttempt(t *testing.T) {
	s := &recordingSleeper{}
	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Second}.Do(context.Background(), s, func(attempt int) error {
		calls++
		if attempt < 1 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	s := &recordingSleeper{err: context.Canceled}
	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Second}.Do(context.Background(), s, func(int) error {
		calls++
		return errors.New("fail")
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected loop to stop after first backoff, got %d calls", calls)
	}
}

func TestDo_CancelledBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Second}.Do(ctx, &recordingSleeper{}, func(int) error {
		calls++
		return nil
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls on cancelled context, got %d", calls)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), &recordingSleeper{}, func(int) error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("expected degenerate policy to still run once, got %d", calls)
	}
}
