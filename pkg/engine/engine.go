package engine

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/glfw/v3.3/glfw"

	"flightsim/internal/logger"
	"flightsim/pkg/config"
	"flightsim/pkg/sim"
)

// Engine runs the frame loop: input, simulation, audio, rendering
type Engine struct {
	window      *glfw.Window // nil in ascii mode
	config      *config.Config
	logger      *logger.Logger
	sim         *sim.Simulation
	renderer    Renderer
	input       InputSource
	audioEngine *AudioEngine
	isRunning   bool
	lastUpdate  time.Time
	frameRate   int
}

// NewEngine creates the frontend selected by cfg.Graphics.DisplayMode
func NewEngine(cfg *config.Config, s *sim.Simulation, log *logger.Logger) (*Engine, error) {
	e := &Engine{
		config:    cfg,
		logger:    log.Named("engine"),
		sim:       s,
		frameRate: cfg.Graphics.FrameRate,
	}

	var err error
	switch cfg.Graphics.DisplayMode {
	case config.DisplayASCII:
		err = e.initASCII()
	default:
		err = e.initOpenGL()
	}
	if err != nil {
		return nil, err
	}

	e.audioEngine, err = NewAudioEngine(cfg.Audio, log)
	if err != nil {
		e.logger.Warnf("continuing without audio: %v", err)
		e.audioEngine, _ = NewAudioEngine(config.AudioConfig{}, log)
	}

	s.OnCollision(func(ev sim.CollisionEvent) {
		e.logger.Warnf("crashed at %.0f m/s, press R to restart", ev.Speed)
	})
	return e, nil
}

// initOpenGL opens the window and the 3D renderer
func (e *Engine) initOpenGL() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// Set window hints
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor
	if e.config.Graphics.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	window, err := glfw.CreateWindow(e.config.Graphics.Width, e.config.Graphics.Height, "flightsim", monitor, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if e.config.Graphics.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	renderer, err := NewOpenGLRenderer(e.config.Graphics, e.sim.Chunks(), e.logger)
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return err
	}

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		renderer.UpdateResolution(width, height)
	})

	e.window = window
	e.renderer = renderer
	e.input = NewInputHandler(window)
	return nil
}

// initASCII takes over the terminal
func (e *Engine) initASCII() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal screen: %w", err)
	}
	// the map spans the view distance across an 80 column terminal
	renderer, err := NewASCIIRenderer(screen, e.sim.Chunks().ViewDistance()/40, e.logger)
	if err != nil {
		return err
	}
	e.renderer = renderer
	e.input = renderer
	return nil
}

// Run starts the main loop and returns when the pilot quits
func (e *Engine) Run() {
	e.isRunning = true
	e.lastUpdate = time.Now()

	fps := 0.0
	for e.isRunning && (e.window == nil || !e.window.ShouldClose()) {
		currentTime := time.Now()
		deltaTime := currentTime.Sub(e.lastUpdate).Seconds()
		e.lastUpdate = currentTime
		if deltaTime > 0 {
			fps = fps*0.9 + 0.1/deltaTime
		}

		e.processInput(deltaTime)
		e.render(fps)

		if e.window != nil {
			e.window.SwapBuffers()
			glfw.PollEvents()
		}

		// Cap the frame rate
		if e.frameRate > 0 {
			frameTime := time.Since(currentTime)
			targetFrameTime := time.Second / time.Duration(e.frameRate)
			if frameTime < targetFrameTime {
				time.Sleep(targetFrameTime - frameTime)
			}
		}
	}

	e.cleanup()
}

// processInput applies the pilot's intent and advances the simulation
func (e *Engine) processInput(deltaTime float64) {
	intent := e.input.Poll()
	if intent.Quit {
		e.isRunning = false
		return
	}
	if intent.Reset {
		e.logger.Info("restarting flight")
		e.sim.Reset()
	}
	if intent.TogglePause {
		e.sim.TogglePause()
	}

	e.sim.Advance(intent.Controls, deltaTime)

	t := e.sim.Telemetry()
	e.audioEngine.Update(t.Throttle, t.SpeedMS, e.sim.Mode() == sim.ModeCrashed)
}

// render draws the current frame
func (e *Engine) render(fps float64) {
	frame := newFrame(e.sim, fps)
	e.renderer.Render(frame)
	if e.window != nil {
		e.window.SetTitle(fmt.Sprintf("flightsim  %s  [%s]", frame.Telemetry, frame.Mode))
	}
}

// cleanup performs necessary cleanup before exiting
func (e *Engine) cleanup() {
	e.logger.Info("Shutting down engine...")
	e.audioEngine.Shutdown()
	e.renderer.Close()
	if e.window != nil {
		e.window.Destroy()
		glfw.Terminate()
	}
}
