package timing

import (
	"context"
	"testing"
	"time"
)

func TestDuration_Bounds(t *testing.T) {
	r := NewSeededRand(1)
	for i := 0; i < 1000; i++ {
		d := Duration(r, 50*time.Millisecond, 150*time.Millisecond)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("duration %v outside [50ms,150ms]", d)
		}
	}
}

func TestDuration_DegenerateRange(t *testing.T) {
	r := NewSeededRand(1)
	if d := Duration(r, time.Second, time.Second); d != time.Second {
		t.Errorf("expected 1s for equal bounds, got %v", d)
	}
	if d := Duration(r, time.Second, 0); d != time.Second {
		t.Errorf("expected min for inverted bounds, got %v", d)
	}
}

func TestRange_Inclusive(t *testing.T) {
	r := NewSeededRand(7)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		n := Range(r, 2, 5)
		if n < 2 || n > 5 {
			t.Fatalf("value %d outside [2,5]", n)
		}
		seen[n] = true
	}
	for want := 2; want <= 5; want++ {
		if !seen[want] {
			t.Errorf("value %d never drawn", want)
		}
	}
}

func TestSleeper_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSleeper().Sleep(ctx, time.Hour)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleeper_ZeroDuration(t *testing.T) {
	if err := NewSleeper().Sleep(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep should not error: %v", err)
	}
}
