package main

import (
	"testing"
	"time"
)

// fakeADC is a scripted AnalogReader. It replays the scripted readings in
// order and holds the last one once the script runs out.
type fakeADC struct {
	values []uint16
	idx    int
}

func (a *fakeADC) Read() uint16 {
	if a.idx < len(a.values) {
		v := a.values[a.idx]
		a.idx++
		return v
	}
	if len(a.values) == 0 {
		return 0
	}
	return a.values[len(a.values)-1]
}

// fakeClock is a manually advanced time source for the pad state machine.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testPadConfig() PadConfig {
	return PadConfig{
		MaxValue:  40000,
		MinValue:  4000,
		Threshold: 15000,
		RearmMS:   20,
	}
}

// TestTriggerPad_SingleStrikePerHit drives the raw sequence of one physical
// hit sampled at 10 ms: two resting reads, three reads inside the pulse, two
// back at rest. Exactly one strike fires, at the first below-threshold
// sample; the pad stays cooling for the two samples inside the 20 ms window
// and re-arms on the first sample strictly past it.
func TestTriggerPad_SingleStrikePerHit(t *testing.T) {
	clock := newFakeClock()
	pad := NewTriggerPad(&fakeADC{values: []uint16{40000, 40000, 8000, 8000, 8000, 40000, 40000}}, testPadConfig(), nil)
	pad.now = clock.now

	wantArmed := []bool{true, true, false, false, false, true, true}

	strikes := 0
	for i, want := range wantArmed {
		wasArmed := pad.Armed()
		pad.Sample()
		if wasArmed && !pad.Armed() {
			strikes++
			if i != 2 {
				t.Errorf("expected the strike at sample 2, got one at sample %d", i)
			}
		}
		if pad.Armed() != want {
			t.Errorf("sample %d: expected armed=%v, got %v", i, want, pad.Armed())
		}
		clock.advance(10 * time.Millisecond)
	}
	if strikes != 1 {
		t.Errorf("expected exactly 1 strike for one hit, got %d", strikes)
	}
}

// TestTriggerPad_RearmIsUnconditional tests that the pad re-arms once the
// window elapses even while the signal is still below threshold, so the next
// sample fires a fresh strike.
func TestTriggerPad_RearmIsUnconditional(t *testing.T) {
	clock := newFakeClock()
	pad := NewTriggerPad(&fakeADC{values: []uint16{8000}}, testPadConfig(), nil)
	pad.now = clock.now

	pad.Sample() // strike, enters cooling
	if pad.Armed() {
		t.Fatal("expected pad cooling after strike")
	}

	clock.advance(25 * time.Millisecond)
	pad.Sample() // past the window: re-arms, strike check already ran
	if !pad.Armed() {
		t.Fatal("expected pad re-armed strictly after the window")
	}

	clock.advance(10 * time.Millisecond)
	wasArmed := pad.Armed()
	pad.Sample() // still below threshold, armed again: second strike
	if !(wasArmed && !pad.Armed()) {
		t.Error("expected a fresh strike after unconditional re-arm")
	}
}

// TestTriggerPad_WindowBoundaryIsStrict tests that a sample at exactly the
// re-arm window stays cooling; only strictly-later samples re-arm.
func TestTriggerPad_WindowBoundaryIsStrict(t *testing.T) {
	clock := newFakeClock()
	pad := NewTriggerPad(&fakeADC{values: []uint16{8000}}, testPadConfig(), nil)
	pad.now = clock.now

	pad.Sample() // strike at t=0

	clock.advance(20 * time.Millisecond)
	pad.Sample()
	if pad.Armed() {
		t.Error("expected pad still cooling at exactly the window boundary")
	}

	clock.advance(time.Millisecond)
	pad.Sample()
	if !pad.Armed() {
		t.Error("expected pad re-armed strictly past the window")
	}
}

// TestTriggerPad_VelocityScaleAndClamp tests the MIDI scaling: zero at rest
// offset, full scale at MaxValue, clamped on both sides.
func TestTriggerPad_VelocityScaleAndClamp(t *testing.T) {
	tests := []struct {
		name   string
		sample int
		want   uint8
	}{
		{"zero", 0, 0},
		{"half scale", 20000, 63},
		{"full scale", 40000, 127},
		{"over max clamps", 50000, 127},
		{"negative clamps", -32000, 0},
	}

	pad := NewTriggerPad(&fakeADC{}, testPadConfig(), nil)
	for _, tt := range tests {
		if got := pad.velocityOf(tt.sample); got != tt.want {
			t.Errorf("%s: expected velocity %d, got %d", tt.name, tt.want, got)
		}
	}
}

// TestTriggerPad_VelocityMonotonic tests that velocity never decreases as
// the sample grows.
func TestTriggerPad_VelocityMonotonic(t *testing.T) {
	pad := NewTriggerPad(&fakeADC{}, testPadConfig(), nil)

	prev := pad.velocityOf(-1000)
	for s := 0; s <= 50000; s += 500 {
		v := pad.velocityOf(s)
		if v < prev {
			t.Fatalf("velocity decreased from %d to %d at sample %d", prev, v, s)
		}
		prev = v
	}
}

// TestTriggerPad_ZeroCalibration tests that Zero latches the current reading
// as the offset, so subsequent samples are offset-corrected and drift shows
// up as negative values.
func TestTriggerPad_ZeroCalibration(t *testing.T) {
	clock := newFakeClock()
	pad := NewTriggerPad(&fakeADC{values: []uint16{38000, 38000, 30000}}, testPadConfig(), nil)
	pad.now = clock.now

	pad.Zero() // consumes the first reading

	if got := pad.Sample(); got != 0 {
		t.Errorf("expected 0 at the calibration point, got %d", got)
	}
	clock.advance(time.Second) // let the calibration-point strike expire
	if got := pad.Sample(); got != -8000 {
		t.Errorf("expected negative sample below the zero point, got %d", got)
	}
}

// TestTriggerPad_PercentIntegerDivision tests the integer-division contract:
// Percent is 0 until the sample reaches MaxValue.
func TestTriggerPad_PercentIntegerDivision(t *testing.T) {
	clock := newFakeClock()
	pad := NewTriggerPad(&fakeADC{values: []uint16{39999, 40000}}, testPadConfig(), nil)
	pad.now = clock.now

	if got := pad.Percent(); got != 0 {
		t.Errorf("expected percent 0 below max, got %d", got)
	}
	if got := pad.Percent(); got != 1 {
		t.Errorf("expected percent 1 at max, got %d", got)
	}
}

// TestTriggerPad_SmoothedStrike runs the full pipeline with the default
// smoother: the filter settles at the resting level, then a sustained drop
// crosses the threshold after the smoothing lag and fires a strike. The lag
// is the point: a single-sample glitch would not get through.
func TestTriggerPad_SmoothedStrike(t *testing.T) {
	clock := newFakeClock()
	adc := &fakeADC{}
	pad := NewTriggerPad(adc, testPadConfig(), NewDefaultKalmanSmoother(10*time.Millisecond))
	pad.now = clock.now

	// Settle at rest. The estimate starts at half the reading and climbs,
	// so it never dips below threshold during convergence.
	adc.values = []uint16{40000}
	for i := 0; i < 100; i++ {
		pad.Sample()
		if !pad.Armed() {
			t.Fatalf("spurious strike while settling, sample %d", i)
		}
		clock.advance(10 * time.Millisecond)
	}

	// Sustained drop. The smoothed value tracks down over ~25 samples
	// before crossing the threshold.
	adc.values = []uint16{8000}
	adc.idx = 0
	struckAt := -1
	for i := 0; i < 60; i++ {
		wasArmed := pad.Armed()
		pad.Sample()
		if wasArmed && !pad.Armed() && struckAt == -1 {
			struckAt = i
			break
		}
		clock.advance(10 * time.Millisecond)
	}
	if struckAt == -1 {
		t.Fatal("expected a strike within 60 samples of a sustained drop")
	}
	if struckAt < 5 {
		t.Errorf("expected smoothing lag of at least 5 samples, struck at %d", struckAt)
	}
}
