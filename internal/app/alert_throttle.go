package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carjohnson/annosync/internal/core/alert"
	"github.com/carjohnson/annosync/internal/metrics"
	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// AlertThrottle owns the last-alerted identifier set and its cooldown
// timer. Decisions are delegated to the pure rules in core/alert; this
// wrapper adds the sink side effect and the timed re-arm.
type AlertThrottle struct {
	sink     secondary.AlertSink
	cooldown time.Duration

	mu          sync.Mutex
	lastAlerted []string
	timer       *time.Timer
	generation  uint64
	closed      bool
}

// NewAlertThrottle creates a throttle delivering warnings to sink.
func NewAlertThrottle(sink secondary.AlertSink, cooldown time.Duration) *AlertThrottle {
	return &AlertThrottle{sink: sink, cooldown: cooldown}
}

// Evaluate applies the throttle rules to the current invalid set and
// surfaces a warning when the rules say to fire. The returned decision
// lets the caller observe whether a warning went out.
func (t *AlertThrottle) Evaluate(ctx context.Context, invalid []string) alert.Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	decision := alert.Evaluate(t.lastAlerted, invalid)

	if decision.Clear {
		t.lastAlerted = nil
		t.stopTimerLocked()
		return decision
	}
	if !decision.Fire {
		metrics.AlertsSuppressed.Inc()
		return decision
	}

	t.lastAlerted = append([]string(nil), invalid...)
	t.armCooldownLocked()
	metrics.AlertsFired.Inc()

	warning := secondary.Warning{
		Title:   "Annotations missing scores",
		Message: fmt.Sprintf("%d annotation(s) have measurements but no valid score (1-5)", decision.Count),
	}
	// Warning delivery is best-effort. A sink failure must not stall the
	// pipeline, and the throttle state already advanced.
	_ = t.sink.Warn(ctx, warning)

	return decision
}

// Close stops the cooldown timer.
func (t *AlertThrottle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.stopTimerLocked()
}

// armCooldownLocked (re)starts the cooldown. When it elapses the
// last-alerted set is cleared unconditionally, so the same invalid set
// can re-alert if the user still has not provided scores.
func (t *AlertThrottle) armCooldownLocked() {
	t.stopTimerLocked()
	t.generation++
	gen := t.generation
	t.timer = time.AfterFunc(t.cooldown, func() {
		t.expire(gen)
	})
}

func (t *AlertThrottle) expire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.generation {
		return
	}
	t.lastAlerted = nil
	t.timer = nil
}

func (t *AlertThrottle) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
