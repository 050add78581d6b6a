package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("padbrainz v%s\n", version)
	fmt.Println("Percussion pad controller front-end for the RDUM sequencer engine")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  padbrainz [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that samples the drum pads, buttons and encoders, drives the")
	fmt.Println("  two OLED panels and the LED strip, and keeps the UI in sync with the")
	fmt.Println("  sequencer engine over a synchronous websocket request/reply channel.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (defaults apply when omitted)")
	fmt.Println()
	fmt.Println("  -engine-url string")
	fmt.Printf("        Sequencer engine websocket URL (default %q)\n", defaultEngineURL)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with defaults, engine on the same box")
	fmt.Println("  padbrainz")
	fmt.Println()
	fmt.Println("  # Engine on another machine, tuned pads")
	fmt.Println("  padbrainz -config /etc/padbrainz.yaml -engine-url ws://192.168.68.73:5555")
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		engineURL   = flag.String("engine-url", "", "Sequencer engine websocket URL (overrides config)")
		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug (overrides config)")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
	if *engineURL != "" {
		cfg.Engine.URL = *engineURL
	}
	if *logLevelStr != "" {
		cfg.Logging.Level = *logLevelStr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	hw, err := openHardware(cfg, logger)
	if err != nil {
		logger.Error("hardware init failed", "error", err)
		os.Exit(1)
	}
	defer hw.Close()

	// One pad per configured ADC channel, each with its own smoother tuned
	// to the sampling period.
	samplePeriod := time.Second / time.Duration(cfg.Loop.TickHz)
	pads := make([]*TriggerPad, 0, len(hw.Pads))
	for _, adc := range hw.Pads {
		var smoother *KalmanSmoother
		if cfg.Pads.Smooth {
			smoother = NewDefaultKalmanSmoother(samplePeriod)
		}
		pads = append(pads, NewTriggerPad(adc, cfg.Pads.PadConfig, smoother))
	}

	// Calibrate with the pads at rest, before anything can touch them.
	for _, p := range pads {
		p.Zero()
	}
	logger.Info("pads calibrated", "count", len(pads))

	link, err := NewEngineClient(cfg.Engine.URL, logger, time.Duration(cfg.Engine.TimeoutMS)*time.Millisecond)
	if err != nil {
		logger.Error("engine connection failed", "error", err)
		os.Exit(1)
	}
	defer link.Close()

	loop := NewControlLoop(ControlLoopDeps{
		EncMode:   hw.EncMode,
		EncSub:    hw.EncSub,
		Button1:   NewEdgeSwitch(hw.Button1),
		Button2:   NewEdgeSwitch(hw.Button2),
		Pads:      pads,
		Link:      link,
		Modules:   []Module{NewStatusModule(), NewPlaybackModule(), NewStepEditModule()},
		Primary:   hw.Primary,
		Secondary: hw.Secondary,
		Strip:     hw.Strip,
		LEDCount:  cfg.LEDs.Count,
		Logger:    logger,
	}, cfg.Loop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigc:
			logger.Info("shutting down", "signal", sig.String())
			cancel()
		case err := <-hw.EncoderErrors():
			logger.Error("encoder reader failed", "error", err)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("padbrainz started", "engine", cfg.Engine.URL, "module", loop.ActiveModule())
	loop.Run(ctx)

	// Leave the panels and the strip dark instead of frozen mid-frame.
	hw.Blank()
	logger.Info("displays cleared")
}
