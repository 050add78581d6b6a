package main

// Hardware capability interfaces.
//
// Every physical resource the controller touches is injected through one of
// these narrow interfaces. The sensing code never branches on platform; a
// backend (periph on the Pi, fakes in tests) implements the contract and the
// rest of the daemon is agnostic.

// DigitalReader reads one logical input line. Implementations are expected
// to correct polarity, so true always means "active" (button pressed,
// switch closed) regardless of how the line is wired.
//
// A failed hardware read is reported as the previous level by the backend;
// the sensing layer treats it as "unchanged" and carries no error path.
type DigitalReader interface {
	Read() bool
}

// AnalogReader reads one ADC channel. Values span the full 16-bit range
// regardless of the converter's native resolution (a 10-bit MCP3008 reading
// is left-shifted to 16 bits, matching what the sensing code is tuned for).
type AnalogReader interface {
	Read() uint16
}

// RGB is one pixel of the LED strip.
type RGB struct {
	R, G, B uint8
}

// PixelWriter transmits a full strip's worth of pixels in one call.
type PixelWriter interface {
	Write(pixels []RGB) error
}

// PositionReader reports an incremental encoder's accumulated position.
// The count is monotonic per detent: clockwise increments, counter-clockwise
// decrements. Callers diff successive readings to obtain deltas.
type PositionReader interface {
	Position() int
}
