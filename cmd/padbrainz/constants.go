package main

// Linux input event types and codes (from <linux/input.h>), used by the
// evdev encoder backend.
const (
	EV_REL = 0x02

	// Relative axis codes the gpio-rotary-encoder overlay reports on.
	REL_X     = 0x00
	REL_DIAL  = 0x07
	REL_WHEEL = 0x08
)

// Control loop defaults
const (
	defaultTickHz    = 100 // input sampling frequency; 10 ms period matches the Kalman tuning
	defaultRefreshMS = 33  // render / remote-sync period (~30 fps)
)

// Pad tuning defaults. The piezo line idles near the top of the 16-bit
// range and a strike pulls it down through the threshold.
const (
	defaultPadMax       = 40000
	defaultPadMin       = 4000
	defaultPadThreshold = 15000
	defaultRearmMS      = 20
)

// Engine link defaults
const (
	defaultEngineURL     = "ws://127.0.0.1:5555"
	defaultReadTimeoutMS = 500
)

const defaultLEDCount = 16
