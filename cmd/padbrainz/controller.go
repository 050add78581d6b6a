package main

import (
	"context"
	"log/slog"
	"time"
)

// ControlLoop ties sampling, remote-state polling, and rendering together.
//
// One tick is a single unbroken sequence on the loop goroutine:
//
//  1. sample every switch and pad exactly once into an InputFrame
//  2. turn encoder deltas into a module switch (one step per tick, however
//     far the knob physically moved)
//  3. dispatch the frame to the active module and execute the commands it
//     returns against the engine link
//  4. if the refresh period has elapsed: fetch the engine snapshot, hand it
//     to the module, render both screens and the strip, reset the timer
//
// Step 1 runs every tick regardless of step 4, so input latency is bounded
// by the tick period alone and never by display or network latency. Nothing
// else mutates switch or pad state, so no locking is needed here.
type ControlLoop struct {
	encMode PositionReader
	encSub  PositionReader
	button1 *EdgeSwitch
	button2 *EdgeSwitch
	pads    []*TriggerPad

	link    StateLink
	modules []Module

	primary   Display
	secondary Display
	strip     PixelWriter
	pixels    []RGB

	moduleIdx   int
	lastEncMode int
	lastEncSub  int
	state       SequencerState

	tickPeriod time.Duration
	refresh    time.Duration
	lastRender time.Time

	logger *slog.Logger
}

// LoopConfig is the timing configuration for the control loop.
type LoopConfig struct {
	// TickHz is the input sampling frequency. The default of 100 matches
	// the 10 ms period the Kalman tuning assumes.
	TickHz int `yaml:"tick_hz"`
	// RefreshMS is the render / remote-sync period.
	RefreshMS int `yaml:"refresh_ms"`
}

// ControlLoopDeps bundles everything the loop owns. All fields are
// required except Strip, which may be nil when no LED strip is fitted.
type ControlLoopDeps struct {
	EncMode   PositionReader
	EncSub    PositionReader
	Button1   *EdgeSwitch
	Button2   *EdgeSwitch
	Pads      []*TriggerPad
	Link      StateLink
	Modules   []Module
	Primary   Display
	Secondary Display
	Strip     PixelWriter
	LEDCount  int
	Logger    *slog.Logger
}

func NewControlLoop(deps ControlLoopDeps, cfg LoopConfig) *ControlLoop {
	return &ControlLoop{
		encMode:     deps.EncMode,
		encSub:      deps.EncSub,
		button1:     deps.Button1,
		button2:     deps.Button2,
		pads:        deps.Pads,
		link:        deps.Link,
		modules:     deps.Modules,
		primary:     deps.Primary,
		secondary:   deps.Secondary,
		strip:       deps.Strip,
		pixels:      make([]RGB, deps.LEDCount),
		lastEncMode: deps.EncMode.Position(),
		lastEncSub:  deps.EncSub.Position(),
		tickPeriod:  time.Second / time.Duration(cfg.TickHz),
		refresh:     time.Duration(cfg.RefreshMS) * time.Millisecond,
		logger:      deps.Logger,
	}
}

// Run drives ticks at the configured rate until the context is canceled.
func (c *ControlLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickPeriod)
	defer ticker.Stop()

	c.lastRender = time.Now()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("control loop stopping (context canceled)")
			return
		case now := <-ticker.C:
			c.tick(now)
		}
	}
}

// tick runs one full iteration. It takes the current time as a parameter
// so tests can drive synthetic clocks.
func (c *ControlLoop) tick(now time.Time) {
	frame := c.sampleInputs()

	// Mode encoder switches the active module: exactly one step per tick
	// in the turn's direction, multi-detent turns are not coalesced into
	// multi-module jumps.
	n := len(c.modules)
	if frame.Enc1Delta > 0 {
		c.moduleIdx = (c.moduleIdx + 1) % n
	} else if frame.Enc1Delta < 0 {
		c.moduleIdx = (c.moduleIdx - 1 + n) % n
	}

	active := c.modules[c.moduleIdx]

	for _, cmd := range active.OnInput(frame) {
		if err := c.link.Send(cmd); err != nil {
			// Report and move on. Commands are not idempotent, so the loop
			// never retries on the module's behalf.
			c.logger.Warn("engine command failed", "cmd", cmd.commandName(), "error", err)
		}
	}

	if now.Sub(c.lastRender) > c.refresh {
		c.syncAndRender(active)
		c.lastRender = now
	}
}

// sampleInputs reads every input exactly once, so the frame is stable for
// the rest of the tick.
func (c *ControlLoop) sampleInputs() InputFrame {
	frame := InputFrame{
		Enc1Pos:       c.encMode.Position(),
		Enc2Pos:       c.encSub.Position(),
		PadValues:     make([]int, len(c.pads)),
		PadStruck:     make([]bool, len(c.pads)),
		PadVelocities: make([]uint8, len(c.pads)),
	}
	frame.Enc1Delta = frame.Enc1Pos - c.lastEncMode
	frame.Enc2Delta = frame.Enc2Pos - c.lastEncSub
	c.lastEncMode = frame.Enc1Pos
	c.lastEncSub = frame.Enc2Pos

	frame.Button1 = c.button1.Sample()
	frame.Button1Changed = c.button1.Changed()
	frame.Button2 = c.button2.Sample()
	frame.Button2Changed = c.button2.Changed()

	for i, pad := range c.pads {
		wasArmed := pad.Armed()
		v := pad.Sample()
		frame.PadValues[i] = v
		frame.PadStruck[i] = wasArmed && !pad.Armed()
		frame.PadVelocities[i] = pad.velocityOf(v)
	}
	return frame
}

// syncAndRender fetches the engine snapshot and runs the active module's
// render entry points. A failed fetch keeps the previous snapshot so the
// display degrades to stale rather than blank.
func (c *ControlLoop) syncAndRender(active Module) {
	state, err := c.link.FetchState()
	if err != nil {
		c.logger.Warn("state fetch failed; keeping last snapshot", "error", err)
	} else {
		c.state = state
	}
	active.OnState(c.state)

	clearSurface(c.primary.Surface())
	clearSurface(c.secondary.Surface())
	active.RenderPrimary(c.primary.Surface())
	active.RenderSecondary(c.secondary.Surface())
	if err := c.primary.Flush(); err != nil {
		c.logger.Warn("primary display flush failed", "error", err)
	}
	if err := c.secondary.Flush(); err != nil {
		c.logger.Warn("secondary display flush failed", "error", err)
	}

	if c.strip != nil {
		for i := range c.pixels {
			c.pixels[i] = RGB{}
		}
		active.RenderLEDs(c.pixels)
		if err := c.strip.Write(c.pixels); err != nil {
			c.logger.Warn("led strip write failed", "error", err)
		}
	}
}

// ActiveModule reports the active module's name, for logging.
func (c *ControlLoop) ActiveModule() string {
	return c.modules[c.moduleIdx].Name()
}
