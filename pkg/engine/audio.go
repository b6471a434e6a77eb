package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"flightsim/internal/logger"
	noise "flightsim/internal/math"
	"flightsim/internal/synth"
	"flightsim/pkg/config"
)

const (
	sampleRate      = 44100
	framesPerBuffer = 1024
	numChannels     = 2
)

// AudioEngine plays the engine drone through the default output device
type AudioEngine struct {
	logger      *logger.Logger
	stream      *portaudio.Stream
	drone       *synth.Drone
	volume      float32
	masterMutex sync.Mutex
	isRunning   bool
}

// NewAudioEngine opens the output stream. A disabled config yields a
// silent engine whose methods are no-ops.
func NewAudioEngine(cfg config.AudioConfig, log *logger.Logger) (*AudioEngine, error) {
	ae := &AudioEngine{
		logger: log.Named("audio"),
		volume: float32(cfg.Volume),
	}
	if !cfg.Enabled {
		ae.logger.Info("audio disabled")
		return ae, nil
	}

	wind, err := noise.NewSource(noise.SourceSimplex, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}
	ae.drone = synth.NewDrone(sampleRate, wind)

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	ae.stream, err = portaudio.OpenDefaultStream(0, numChannels, sampleRate, framesPerBuffer, ae.audioCallback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := ae.stream.Start(); err != nil {
		ae.stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	ae.isRunning = true
	return ae, nil
}

// audioCallback is called by PortAudio to fill the output buffer
func (ae *AudioEngine) audioCallback(out []float32) {
	ae.masterMutex.Lock()
	defer ae.masterMutex.Unlock()
	ae.drone.Fill(out, numChannels, ae.volume)
}

// Update retargets the drone from throttle and airspeed
func (ae *AudioEngine) Update(throttle, speed float64, crashed bool) {
	if !ae.isRunning {
		return
	}
	ae.masterMutex.Lock()
	defer ae.masterMutex.Unlock()
	if crashed {
		ae.drone.Silence()
		return
	}
	ae.drone.SetEngine(throttle, speed)
}

// Shutdown stops the stream and releases PortAudio
func (ae *AudioEngine) Shutdown() {
	if !ae.isRunning {
		return
	}
	ae.isRunning = false

	if err := ae.stream.Stop(); err != nil {
		ae.logger.Warnf("failed to stop audio stream: %v", err)
	}
	if err := ae.stream.Close(); err != nil {
		ae.logger.Warnf("failed to close audio stream: %v", err)
	}
	if err := portaudio.Terminate(); err != nil {
		ae.logger.Warnf("failed to terminate PortAudio: %v", err)
	}
}
