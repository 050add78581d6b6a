package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the padbrainz daemon.
//
// The config file is the primary configuration surface; flags exist for
// small overrides (engine URL, log level) where a file is awkward.
// Defaults and validation live here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Sequencer engine connection
	Engine EngineConfig `yaml:"engine"`

	// Control loop timing
	Loop LoopConfig `yaml:"loop"`

	// Drum pad tuning and ADC channel assignment
	Pads PadsConfig `yaml:"pads"`

	// Encoders and buttons
	Input InputConfig `yaml:"input"`

	// The two OLED panels
	Display DisplayConfig `yaml:"display"`

	// LED strip
	LEDs LEDConfig `yaml:"leds"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type EngineConfig struct {
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type PadsConfig struct {
	// Tuning applies to every pad; per-pad calibration happens at runtime
	// via zeroing, not in the file.
	PadConfig `yaml:",inline"`

	// Channels lists the ADC channel per pad, in pad order.
	Channels []int `yaml:"channels"`
}

type InputConfig struct {
	// Encoder event devices as exposed by the gpio-rotary-encoder overlay.
	// Stable by-path names survive reboots; bare eventN works too.
	ModeEncoderDevice string `yaml:"mode_encoder_device"`
	SubEncoderDevice  string `yaml:"sub_encoder_device"`

	// Button pins by periph gpioreg name. Lines are active-low with the
	// internal pull-up, matching the board wiring.
	Button1Pin string `yaml:"button1_pin"`
	Button2Pin string `yaml:"button2_pin"`
}

type DisplayConfig struct {
	I2CBus        string `yaml:"i2c_bus"` // empty = first available
	PrimaryAddr   uint16 `yaml:"primary_addr"`
	SecondaryAddr uint16 `yaml:"secondary_addr"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
}

type LEDConfig struct {
	SPIPort string `yaml:"spi_port"` // empty = no strip fitted
	Count   int    `yaml:"count"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go and the CLI flag defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			URL:       defaultEngineURL,
			TimeoutMS: defaultReadTimeoutMS,
		},
		Loop: LoopConfig{
			TickHz:    defaultTickHz,
			RefreshMS: defaultRefreshMS,
		},
		Pads: PadsConfig{
			PadConfig: PadConfig{
				MaxValue:  defaultPadMax,
				MinValue:  defaultPadMin,
				Threshold: defaultPadThreshold,
				RearmMS:   defaultRearmMS,
				Smooth:    true,
			},
			Channels: []int{0, 1, 2, 3, 4, 5, 6, 7},
		},
		Input: InputConfig{
			ModeEncoderDevice: "/dev/input/by-path/platform-rotary_mode-event",
			SubEncoderDevice:  "/dev/input/by-path/platform-rotary_sub-event",
			Button1Pin:        "GPIO15",
			Button2Pin:        "GPIO27",
		},
		Display: DisplayConfig{
			PrimaryAddr:   0x3C,
			SecondaryAddr: 0x3D,
			Width:         128,
			Height:        64,
		},
		LEDs: LEDConfig{
			SPIPort: "SPI1.0",
			Count:   defaultLEDCount,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads a YAML config file over the defaults. Unknown fields
// are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// Validate checks cross-field consistency. Called once after flags are
// merged; everything downstream assumes a valid config.
func (c Config) Validate() error {
	if c.Engine.URL == "" {
		return errors.New("engine.url must be set")
	}
	if c.Engine.TimeoutMS <= 0 {
		return errors.New("engine.timeout_ms must be > 0")
	}
	if c.Loop.TickHz <= 0 || c.Loop.TickHz > 1000 {
		return errors.New("loop.tick_hz must be between 1 and 1000")
	}
	if c.Loop.RefreshMS <= 0 {
		return errors.New("loop.refresh_ms must be > 0")
	}
	if c.Pads.MaxValue <= 0 {
		return errors.New("pads.max_value must be > 0")
	}
	if c.Pads.Threshold <= 0 || c.Pads.Threshold >= c.Pads.MaxValue {
		return errors.New("pads.threshold must be between 1 and pads.max_value")
	}
	if c.Pads.RearmMS < 0 {
		return errors.New("pads.rearm_ms must be >= 0")
	}
	if len(c.Pads.Channels) == 0 {
		return errors.New("pads.channels must list at least one ADC channel")
	}
	for _, ch := range c.Pads.Channels {
		if ch < 0 || ch > 7 {
			return fmt.Errorf("pads.channels: channel %d out of MCP3008 range 0-7", ch)
		}
	}
	if c.LEDs.SPIPort != "" && c.LEDs.Count <= 0 {
		return errors.New("leds.count must be > 0 when a strip is configured")
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return errors.New("display.width and display.height must be > 0")
	}
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
