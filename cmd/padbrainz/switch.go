package main

// EdgeSwitch debounces a digital line into a stable level plus a one-shot
// "changed" flag. The flag is true for exactly one Sample() after a
// transition, then clears on the next Sample() unless the level moved again.
type EdgeSwitch struct {
	pin       DigitalReader
	lastValue bool
	changed   bool
}

// NewEdgeSwitch wraps a digital line. The initial level is latched so the
// first Sample() does not report a spurious transition.
func NewEdgeSwitch(pin DigitalReader) *EdgeSwitch {
	return &EdgeSwitch{
		pin:       pin,
		lastValue: pin.Read(),
	}
}

// Sample reads the line and returns the current logical level.
func (s *EdgeSwitch) Sample() bool {
	v := s.pin.Read()
	if v != s.lastValue {
		s.changed = true
		s.lastValue = v
	} else if s.changed {
		s.changed = false
	}
	return v
}

// Changed reports whether the most recent Sample() saw a transition.
func (s *EdgeSwitch) Changed() bool {
	return s.changed
}

// Value returns the level seen by the most recent Sample() without
// re-reading the line.
func (s *EdgeSwitch) Value() bool {
	return s.lastValue
}
