package main

import (
	"testing"
	"time"
)

// TestRotaryRate_AddStep_Basic tests basic step counting in one direction.
func TestRotaryRate_AddStep_Basic(t *testing.T) {
	r := newRotaryRate()

	if count := r.addStep(1, 200*time.Millisecond); count != 1 {
		t.Errorf("expected count=1, got %d", count)
	}
	if count := r.addStep(1, 200*time.Millisecond); count != 2 {
		t.Errorf("expected count=2, got %d", count)
	}
	if count := r.addStep(1, 200*time.Millisecond); count != 3 {
		t.Errorf("expected count=3, got %d", count)
	}
}

// TestRotaryRate_AddStep_DirectionChange tests that opposing detents stay in
// the buffer but do not count toward the returned same-direction total.
func TestRotaryRate_AddStep_DirectionChange(t *testing.T) {
	r := newRotaryRate()
	window := 200 * time.Millisecond

	r.addStep(1, window)
	r.addStep(1, window)
	if count := r.addStep(1, window); count != 3 {
		t.Errorf("expected 3 clockwise steps, got %d", count)
	}

	if count := r.addStep(-1, window); count != 1 {
		t.Errorf("expected count=1 after reversal, got %d", count)
	}
	if count := r.addStep(-1, window); count != 2 {
		t.Errorf("expected count=2 counter-clockwise, got %d", count)
	}

	// The earlier clockwise steps are still inside the window.
	if count := r.addStep(1, window); count != 4 {
		t.Errorf("expected count=4 (3 old + 1 new clockwise), got %d", count)
	}
}

// TestRotaryRate_AddStep_WindowExpiry tests that detents older than the
// window are pruned, using an injected clock instead of sleeping.
func TestRotaryRate_AddStep_WindowExpiry(t *testing.T) {
	clock := newFakeClock()
	r := newRotaryRate()
	r.now = clock.now
	window := 100 * time.Millisecond

	r.addStep(1, window)
	clock.advance(10 * time.Millisecond)
	r.addStep(1, window)
	clock.advance(10 * time.Millisecond)
	if count := r.addStep(1, window); count != 3 {
		t.Errorf("expected count=3 inside the window, got %d", count)
	}

	clock.advance(150 * time.Millisecond)
	if count := r.addStep(1, window); count != 1 {
		t.Errorf("expected count=1 after the window expired, got %d", count)
	}
}
