package main

import (
	"math"
	"time"
)

// PadConfig is the tuning for one drum pad.
type PadConfig struct {
	// MaxValue is the raw reading at rest (the piezo line idles high and a
	// strike pulls it low). Velocity and percent are scaled against it.
	MaxValue int `yaml:"max_value"`
	// MinValue is the raw floor of a hard strike. Kept for calibration
	// tooling; the trigger decision only uses Threshold.
	MinValue int `yaml:"min_value"`
	// Threshold is the offset-corrected level a sample must drop below to
	// register a strike while armed.
	Threshold int `yaml:"threshold"`
	// RearmMS is the cooldown after a strike during which the pad stays
	// disarmed, so the decaying pulse of a single hit cannot retrigger.
	RearmMS int `yaml:"rearm_ms"`
	// Smooth enables the Kalman pre-filter on the raw channel.
	Smooth bool `yaml:"smooth"`
}

// TriggerPad converts a continuously sampled analog channel into strike
// events with velocity. It is a two-state machine:
//
//	armed   -> cooling  when the offset-corrected sample drops below the
//	                    trigger threshold; the strike instant is recorded
//	cooling -> armed    unconditionally once the re-arm window has elapsed,
//	                    regardless of the current signal level
//
// A strike can only fire while armed, so one physical hit produces at most
// one logical strike even though its decaying pulse crosses the threshold
// repeatedly.
type TriggerPad struct {
	adc      AnalogReader
	smoother *KalmanSmoother

	offset      int
	maxValue    int
	minValue    int
	threshold   int
	rearmWindow time.Duration

	armed         bool
	lastTriggered time.Time

	now func() time.Time
}

// NewTriggerPad wraps an ADC channel. The pad starts armed with a zero
// offset; call Zero with the pad at rest to calibrate.
func NewTriggerPad(adc AnalogReader, cfg PadConfig, smoother *KalmanSmoother) *TriggerPad {
	return &TriggerPad{
		adc:         adc,
		smoother:    smoother,
		maxValue:    cfg.MaxValue,
		minValue:    cfg.MinValue,
		threshold:   cfg.Threshold,
		rearmWindow: time.Duration(cfg.RearmMS) * time.Millisecond,
		armed:       true,
		now:         time.Now,
	}
}

// Sample reads the channel (through the smoother when configured), runs the
// arm/cool state machine, and returns the offset-corrected value. The value
// is not clamped at zero: a drifted calibration shows up as negative
// readings, which is the caller's cue to re-zero.
func (p *TriggerPad) Sample() int {
	raw := int(p.adc.Read())
	if p.smoother != nil {
		raw = int(math.Round(p.smoother.Step(float64(raw))))
	}
	now := p.now()
	if raw-p.offset < p.threshold && p.armed {
		p.lastTriggered = now
		p.armed = false
	}
	if now.Sub(p.lastTriggered) > p.rearmWindow {
		p.armed = true
	}
	return raw - p.offset
}

// Velocity samples the pad and scales the reading to MIDI range. The result
// is clamped to [0,127] even when the sample exceeds MaxValue or went
// negative. Velocity is read live, not latched at the trigger instant.
func (p *TriggerPad) Velocity() uint8 {
	return p.velocityOf(p.Sample())
}

// velocityOf scales an already-taken sample to MIDI velocity. The control
// loop uses this so a tick samples each pad exactly once.
func (p *TriggerPad) velocityOf(sample int) uint8 {
	v := int(float64(sample) / float64(p.maxValue) * 127)
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// Percent samples the pad and returns the reading as a fraction of MaxValue
// using integer division, so it is 0 until the sample reaches MaxValue.
// Callers that need fractional percent must scale before dividing.
func (p *TriggerPad) Percent() int {
	return p.Sample() / p.maxValue
}

// Armed reports the state-machine phase: false during the re-arm cooldown
// that follows a strike.
func (p *TriggerPad) Armed() bool {
	return p.armed
}

// Zero takes the channel's current raw reading as the calibration zero
// point. Call it with the pad at rest. The armed state is left untouched.
func (p *TriggerPad) Zero() {
	p.offset = int(p.adc.Read())
}
