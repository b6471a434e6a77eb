package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"runtime"

	"flightsim/internal/logger"
	"flightsim/pkg/config"
	"flightsim/pkg/engine"
	"flightsim/pkg/sim"
)

func init() {
	// GLFW requires the program to be running on the main thread
	runtime.LockOSThread()
}

// asciiLogFile receives the log in terminal mode when none is configured
const asciiLogFile = "flightsim.log"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	seed := flag.Int64("seed", 0, "Terrain seed (overrides the config)")
	display := flag.String("display", "", "Display mode: opengl or ascii (overrides the config)")
	level := flag.String("log-level", "", "Log level (overrides the config)")
	writeDefault := flag.Bool("write-default", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		log.Printf("Default configuration written to %s", *configPath)
		return
	}

	cfg, cfgErr := config.LoadConfig(*configPath)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Noise.Seed = *seed
		case "display":
			cfg.Graphics.DisplayMode = *display
		case "log-level":
			cfg.Log.Level = *level
		}
	})

	appLog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer appLog.Close()

	if cfgErr != nil {
		if errors.Is(cfgErr, fs.ErrNotExist) {
			appLog.Infof("no config at %s, using defaults", *configPath)
		} else {
			appLog.Warnf("%v, using defaults", cfgErr)
		}
	}
	appLog.Infof("Starting flightsim, seed %d, display %s", cfg.Noise.Seed, cfg.Graphics.DisplayMode)

	s, err := sim.New(cfg, appLog)
	if err != nil {
		appLog.Fatalf("Failed to build simulation: %v", err)
	}

	game, err := engine.NewEngine(cfg, s, appLog)
	if err != nil {
		appLog.Fatalf("Failed to initialize engine: %v", err)
	}

	appLog.Info("Engine initialized, starting main loop...")
	game.Run()
}

// newLogger keeps the terminal clean in ascii mode by logging to a file
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	switch {
	case cfg.Graphics.DisplayMode == config.DisplayASCII && cfg.Log.File == "":
		return logger.NewFileLogger(cfg.Log.Level, asciiLogFile)
	case cfg.Graphics.DisplayMode == config.DisplayASCII:
		return logger.NewFileLogger(cfg.Log.Level, cfg.Log.File)
	case cfg.Log.File != "":
		return logger.NewMultiLogger(cfg.Log.Level, cfg.Log.File)
	default:
		return logger.NewLogger(cfg.Log.Level), nil
	}
}
