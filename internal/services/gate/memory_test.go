package gate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCountersIncrementWithinWindow(t *testing.T) {
	counters := NewMemoryCounters()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counters.clock = func() time.Time { return now }

	for want := 1; want <= 3; want++ {
		count, remaining, err := counters.Increment(context.Background(), "ip|action", time.Minute)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if remaining != time.Minute {
			t.Fatalf("expected full window remaining, got %v", remaining)
		}
	}
}

func TestMemoryCountersResetAfterWindow(t *testing.T) {
	counters := NewMemoryCounters()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counters.clock = func() time.Time { return now }

	if _, _, err := counters.Increment(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}

	now = now.Add(time.Minute)
	count, _, err := counters.Increment(context.Background(), "k", time.Minute)
	if err != nil {
		t.Fatalf("increment after window: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected fresh count 1, got %d", count)
	}
}

func TestMemoryCountersRemainingShrinks(t *testing.T) {
	counters := NewMemoryCounters()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counters.clock = func() time.Time { return now }

	if _, _, err := counters.Increment(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}

	now = now.Add(40 * time.Second)
	_, remaining, err := counters.Increment(context.Background(), "k", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if remaining != 20*time.Second {
		t.Fatalf("expected 20s remaining, got %v", remaining)
	}
}

func TestMemoryCountersKeyIsolation(t *testing.T) {
	counters := NewMemoryCounters()
	if _, _, err := counters.Increment(context.Background(), "a|x", time.Minute); err != nil {
		t.Fatalf("increment: %v", err)
	}
	count, _, err := counters.Increment(context.Background(), "b|x", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected isolated counter, got %d", count)
	}
}
