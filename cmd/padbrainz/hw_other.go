//go:build !linux

package main

import (
	"errors"
	"log/slog"
)

// Hardware only exists on Linux (periph GPIO/SPI/I2C plus evdev encoders).
// The stub keeps `go vet`/`go test` usable on development machines; the
// sensing and loop code is exercised there through the test fakes instead.
type Hardware struct {
	Button1 DigitalReader
	Button2 DigitalReader
	Pads    []AnalogReader
	EncMode PositionReader
	EncSub  PositionReader

	Primary   Display
	Secondary Display
	Strip     PixelWriter
}

func openHardware(Config, *slog.Logger) (*Hardware, error) {
	return nil, errors.New("physical hardware backend requires linux")
}

func (h *Hardware) EncoderErrors() <-chan error { return nil }
func (h *Hardware) Blank()                      {}
func (h *Hardware) Close() error                { return nil }
