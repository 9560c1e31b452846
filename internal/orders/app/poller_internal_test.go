package app

import (
	"testing"
	"time"
)

func TestNextDelay(t *testing.T) {
	p := &StatusPoller{cfg: PollerConfig{Interval: time.Second, MaxBackoff: 8 * time.Second}}
	b := p.newBackoff()

	if got := p.nextDelay(b, false); got != time.Second {
		t.Fatalf("expected the fixed interval while checks succeed, got %s", got)
	}

	first := p.nextDelay(b, true)
	if first < time.Second || first > 1500*time.Millisecond {
		t.Errorf("expected first backoff between the interval and 1.5x of it, got %s", first)
	}

	var last time.Duration
	for range 20 {
		last = p.nextDelay(b, true)
		if last > 8*time.Second {
			t.Fatalf("backoff exceeded the cap: %s", last)
		}
	}
	if last < 4*time.Second {
		t.Errorf("expected backoff to grow towards the cap, got %s", last)
	}

	if got := p.nextDelay(b, false); got != time.Second {
		t.Errorf("expected a success to reset the delay, got %s", got)
	}
}

func TestNextDelayNeverBelowInterval(t *testing.T) {
	p := &StatusPoller{cfg: PollerConfig{Interval: time.Second, MaxBackoff: 8 * time.Second}}

	for range 200 {
		b := p.newBackoff()
		if got := p.nextDelay(b, true); got < time.Second {
			t.Fatalf("backoff after a failed tick polled faster than the interval: %s", got)
		}
	}
}
