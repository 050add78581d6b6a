package main

import (
	"image/draw"
	"net"
)

// ============================================================================
// UI modules
// ============================================================================
// A module owns one screen of the UI. The control loop dispatches every
// sampled input frame to the active module; the module returns the engine
// commands its business logic wants executed. Modules never perform I/O
// themselves: the loop runs the commands against the link, which keeps side
// effects in one place and modules trivially testable.
//
// Adding a module means adding a type that satisfies Module and registering
// it in the slice built in main; the loop itself never changes.
// ============================================================================

// InputFrame is one tick's worth of sampled input, stable for the duration
// of the dispatch.
type InputFrame struct {
	Enc1Pos   int
	Enc1Delta int
	Enc2Pos   int
	Enc2Delta int

	Button1        bool
	Button1Changed bool
	Button2        bool
	Button2Changed bool

	PadValues     []int
	PadStruck     []bool
	PadVelocities []uint8
}

// button1Pressed reports a fresh press edge on the main button.
func (f InputFrame) button1Pressed() bool { return f.Button1Changed && f.Button1 }

// button2Pressed reports a fresh press edge on the sub button.
func (f InputFrame) button2Pressed() bool { return f.Button2Changed && f.Button2 }

// Module is one screen of the controller UI.
type Module interface {
	Name() string

	// OnState delivers the freshly fetched engine snapshot, once per
	// refresh tick, before rendering.
	OnState(state SequencerState)

	// OnInput receives the sampled input frame every tick and returns the
	// engine commands to execute.
	OnInput(frame InputFrame) []Command

	// Render entry points, invoked once per refresh tick on cleared
	// surfaces / a cleared pixel buffer.
	RenderPrimary(dst draw.Image)
	RenderSecondary(dst draw.Image)
	RenderLEDs(pixels []RGB)
}

// localIP reports the address of the interface that would route to the
// LAN. The dial never sends a packet; an isolated box reports loopback.
func localIP() string {
	conn, err := net.Dial("udp", "10.254.254.254:1")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
