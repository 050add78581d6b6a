//go:build linux

package main

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"os"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// Hardware is the physical backend: every capability the control loop
// consumes, opened once at startup and owned for the process lifetime.
type Hardware struct {
	Button1 DigitalReader
	Button2 DigitalReader
	Pads    []AnalogReader
	EncMode PositionReader
	EncSub  PositionReader

	Primary   Display
	Secondary Display
	Strip     PixelWriter // nil when no strip is configured

	ledCount int
	encErr   chan error
	closer   []func() error
}

// openHardware brings up periph, claims the pins and buses named in the
// config, and starts the encoder reader. Everything returned is exclusively
// owned by the control loop from here on.
func openHardware(cfg Config, logger *slog.Logger) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	h := &Hardware{encErr: make(chan error, 1)}

	b1, err := openButton(cfg.Input.Button1Pin)
	if err != nil {
		return nil, err
	}
	b2, err := openButton(cfg.Input.Button2Pin)
	if err != nil {
		return nil, err
	}
	h.Button1, h.Button2 = b1, b2

	// MCP3008 on the main SPI bus. One spi.Conn shared by all channel
	// readers; only the loop goroutine ever transfers, so no locking.
	adcPort, err := spireg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open ADC SPI port: %w", err)
	}
	h.closer = append(h.closer, adcPort.Close)
	adcConn, err := adcPort.Connect(1350*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("connect MCP3008: %w", err)
	}
	for _, ch := range cfg.Pads.Channels {
		h.Pads = append(h.Pads, &mcp3008Channel{conn: adcConn, ch: ch})
	}

	// The two OLED panels share the I2C bus on different addresses.
	bus, err := i2creg.Open(cfg.Display.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus: %w", err)
	}
	h.closer = append(h.closer, bus.Close)
	opts := ssd1306.Opts{W: cfg.Display.Width, H: cfg.Display.Height}
	h.Primary, err = openOLED(remappedBus{Bus: bus, addr: cfg.Display.PrimaryAddr}, opts)
	if err != nil {
		return nil, fmt.Errorf("primary display: %w", err)
	}
	h.Secondary, err = openOLED(remappedBus{Bus: bus, addr: cfg.Display.SecondaryAddr}, opts)
	if err != nil {
		return nil, fmt.Errorf("secondary display: %w", err)
	}

	// WS2812 strip, driven as NRZ over its own SPI port.
	if cfg.LEDs.SPIPort != "" {
		ledPort, err := spireg.Open(cfg.LEDs.SPIPort)
		if err != nil {
			return nil, fmt.Errorf("open LED SPI port: %w", err)
		}
		h.closer = append(h.closer, ledPort.Close)
		dev, err := nrzled.NewSPI(ledPort, &nrzled.Opts{
			NumPixels: cfg.LEDs.Count,
			Channels:  3,
			Freq:      2500 * physic.KiloHertz,
		})
		if err != nil {
			return nil, fmt.Errorf("led strip: %w", err)
		}
		h.Strip = &ledStrip{dev: dev, buf: make([]byte, 0, cfg.LEDs.Count*3)}
		h.ledCount = cfg.LEDs.Count
	}

	// Encoders come in through evdev (gpio-rotary-encoder overlay), read by
	// one epoll goroutine for both knobs.
	encMode := &EvdevEncoder{}
	encSub := &EvdevEncoder{}
	var files []*os.File
	for _, dev := range []string{cfg.Input.ModeEncoderDevice, cfg.Input.SubEncoderDevice} {
		f, err := os.Open(dev)
		if err != nil {
			return nil, fmt.Errorf("open encoder device %s: %w (run as root or join the 'input' group)", dev, err)
		}
		h.closer = append(h.closer, f.Close)
		files = append(files, f)
	}
	go runEncoderEpoll(files, []*EvdevEncoder{encMode, encSub}, h.encErr)
	h.EncMode, h.EncSub = encMode, encSub

	logger.Info("hardware up",
		"pads", len(h.Pads),
		"leds", cfg.LEDs.Count,
		"displays", 2)
	return h, nil
}

// EncoderErrors reports a fatal encoder-reader failure, at most once.
func (h *Hardware) EncoderErrors() <-chan error {
	return h.encErr
}

// Blank clears both panels and the strip. Called on shutdown so the box
// does not keep showing a frozen UI.
func (h *Hardware) Blank() {
	clearSurface(h.Primary.Surface())
	clearSurface(h.Secondary.Surface())
	h.Primary.Flush()
	h.Secondary.Flush()
	if h.Strip != nil {
		h.Strip.Write(make([]RGB, h.ledCount))
	}
}

// Close releases every claimed resource in reverse open order.
func (h *Hardware) Close() error {
	var firstErr error
	for i := len(h.closer) - 1; i >= 0; i-- {
		if err := h.closer[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// gpioButton reads an active-low pushbutton with the internal pull-up.
type gpioButton struct {
	pin gpio.PinIO
}

func openButton(name string) (*gpioButton, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such GPIO pin %q", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure pin %s: %w", name, err)
	}
	return &gpioButton{pin: pin}, nil
}

// Read reports true while the button is held (line pulled low).
func (b *gpioButton) Read() bool {
	return b.pin.Read() == gpio.Low
}

// mcp3008Channel reads one single-ended channel of the MCP3008 and scales
// the 10-bit conversion to the 16-bit range the sensing code expects. A
// failed transfer repeats the previous reading, which the debounce and
// trigger logic treat as "unchanged".
type mcp3008Channel struct {
	conn spi.Conn
	ch   int
	last uint16
}

func (c *mcp3008Channel) Read() uint16 {
	w := []byte{0x01, byte(0x80 | c.ch<<4), 0x00}
	r := make([]byte, 3)
	if err := c.conn.Tx(w, r); err != nil {
		return c.last
	}
	c.last = (uint16(r[1]&0x03)<<8 | uint16(r[2])) << 6
	return c.last
}

// remappedBus rewrites the target address of every transaction.
// ssd1306.NewI2C always talks to the panel's default address; the second
// panel straps to 0x3D, so its bus is wrapped instead.
type remappedBus struct {
	i2c.Bus
	addr uint16
}

func (b remappedBus) Tx(addr uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// oledDisplay renders into an off-screen 1-bit buffer and pushes it to the
// panel on Flush.
type oledDisplay struct {
	dev *ssd1306.Dev
	img *image1bit.VerticalLSB
}

func openOLED(bus i2c.Bus, opts ssd1306.Opts) (*oledDisplay, error) {
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, err
	}
	return &oledDisplay{
		dev: dev,
		img: image1bit.NewVerticalLSB(image.Rect(0, 0, opts.W, opts.H)),
	}, nil
}

func (d *oledDisplay) Surface() draw.Image {
	return d.img
}

func (d *oledDisplay) Flush() error {
	return d.dev.Draw(d.dev.Bounds(), d.img, image.Point{})
}

// ledStrip adapts the nrzled device to the PixelWriter capability.
type ledStrip struct {
	dev *nrzled.Dev
	buf []byte
}

func (s *ledStrip) Write(pixels []RGB) error {
	s.buf = s.buf[:0]
	for _, p := range pixels {
		s.buf = append(s.buf, p.R, p.G, p.B)
	}
	_, err := s.dev.Write(s.buf)
	return err
}
