package main

import "time"

// rotaryRate tracks recent encoder detents so modules can detect "fast
// spinning" and scale their step size (e.g. coarse tempo jumps while the
// sub encoder is whirled, fine steps when it is nudged).
//
// Single-owner: only the control loop goroutine touches it.
type rotaryRate struct {
	recentSteps []rotaryStep
	now         func() time.Time
}

// rotaryStep records a single encoder detent.
type rotaryStep struct {
	at        time.Time
	direction int // +1 clockwise, -1 counter-clockwise
}

func newRotaryRate() *rotaryRate {
	return &rotaryRate{
		recentSteps: make([]rotaryStep, 0, 16),
		now:         time.Now,
	}
}

// addStep records a detent and returns how many detents in the same
// direction landed within the window. Steps older than the window are
// pruned; a direction reversal keeps the opposing steps in the buffer but
// they do not count toward the returned total.
func (r *rotaryRate) addStep(direction int, window time.Duration) int {
	now := r.now()
	cutoff := now.Add(-window)

	filtered := r.recentSteps[:0]
	for _, s := range r.recentSteps {
		if s.at.After(cutoff) {
			filtered = append(filtered, s)
		}
	}
	filtered = append(filtered, rotaryStep{at: now, direction: direction})
	r.recentSteps = filtered

	sameDir := 0
	for _, s := range filtered {
		if s.direction == direction {
			sameDir++
		}
	}
	return sameDir
}
