package app

import (
	"context"
	"testing"
	"time"
)

func TestAlertThrottleFiresForNewSet(t *testing.T) {
	sink := &fakeAlertSink{}
	throttle := NewAlertThrottle(sink, time.Hour)
	defer throttle.Close()
	ctx := context.Background()

	decision := throttle.Evaluate(ctx, []string{"A", "B"})
	if !decision.Fire {
		t.Fatal("expected fire for a new invalid set")
	}
	if decision.Count != 2 {
		t.Errorf("expected count 2, got %d", decision.Count)
	}
	if len(sink.all()) != 1 {
		t.Fatalf("expected 1 warning delivered, got %d", len(sink.all()))
	}
}

func TestAlertThrottleSuppressesUnchangedSet(t *testing.T) {
	sink := &fakeAlertSink{}
	throttle := NewAlertThrottle(sink, time.Hour)
	defer throttle.Close()
	ctx := context.Background()

	throttle.Evaluate(ctx, []string{"A", "B"})
	// Same members, different order and a repeat.
	decision := throttle.Evaluate(ctx, []string{"B", "A", "A"})
	if decision.Fire {
		t.Error("expected suppression for unchanged set")
	}
	if len(sink.all()) != 1 {
		t.Errorf("expected 1 warning total, got %d", len(sink.all()))
	}
}

func TestAlertThrottleFiresForChangedSet(t *testing.T) {
	sink := &fakeAlertSink{}
	throttle := NewAlertThrottle(sink, time.Hour)
	defer throttle.Close()
	ctx := context.Background()

	throttle.Evaluate(ctx, []string{"A"})
	decision := throttle.Evaluate(ctx, []string{"A", "B"})
	if !decision.Fire {
		t.Fatal("expected fire when the set gained a member")
	}
	if len(sink.all()) != 2 {
		t.Errorf("expected 2 warnings, got %d", len(sink.all()))
	}
}

func TestAlertThrottleEmptySetClears(t *testing.T) {
	sink := &fakeAlertSink{}
	throttle := NewAlertThrottle(sink, time.Hour)
	defer throttle.Close()
	ctx := context.Background()

	throttle.Evaluate(ctx, []string{"A"})
	decision := throttle.Evaluate(ctx, nil)
	if !decision.Clear {
		t.Fatal("expected clear for empty invalid set")
	}

	// After clearing, the previously suppressed set fires again.
	decision = throttle.Evaluate(ctx, []string{"A"})
	if !decision.Fire {
		t.Error("expected fire after the remembered set was cleared")
	}
}

func TestAlertThrottleCooldownRearms(t *testing.T) {
	sink := &fakeAlertSink{}
	throttle := NewAlertThrottle(sink, 25*time.Millisecond)
	defer throttle.Close()
	ctx := context.Background()

	throttle.Evaluate(ctx, []string{"A", "B"})
	if decision := throttle.Evaluate(ctx, []string{"A", "B"}); decision.Fire {
		t.Fatal("expected suppression before cooldown")
	}

	time.Sleep(80 * time.Millisecond)

	decision := throttle.Evaluate(ctx, []string{"A", "B"})
	if !decision.Fire {
		t.Error("expected the same set to re-alert after cooldown elapsed")
	}
	if len(sink.all()) != 2 {
		t.Errorf("expected 2 warnings, got %d", len(sink.all()))
	}
}

func TestAlertThrottleFiringRestartsCooldown(t *testing.T) {
	sink := &fakeAlertSink{}
	throttle := NewAlertThrottle(sink, 60*time.Millisecond)
	defer throttle.Close()
	ctx := context.Background()

	throttle.Evaluate(ctx, []string{"A"})
	time.Sleep(40 * time.Millisecond)
	// Firing for a changed set re-arms the timer; the original deadline
	// must not clear the new set.
	throttle.Evaluate(ctx, []string{"A", "B"})
	time.Sleep(40 * time.Millisecond)

	if decision := throttle.Evaluate(ctx, []string{"A", "B"}); decision.Fire {
		t.Error("expected suppression: cooldown restarted at the second fire")
	}
}
