package engine

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"flightsim/pkg/physics"
)

// flightKeys are the keys polled every frame
var flightKeys = []glfw.Key{
	glfw.KeyW, glfw.KeyS, glfw.KeyA, glfw.KeyD, glfw.KeyQ, glfw.KeyE,
	glfw.KeyUp, glfw.KeyDown, glfw.KeyLeft, glfw.KeyRight,
	glfw.KeyLeftShift, glfw.KeyLeftControl,
	glfw.KeyR, glfw.KeyP, glfw.KeyEscape,
}

// InputHandler polls the glfw keyboard and maps it to flight controls
type InputHandler struct {
	window       *glfw.Window
	currentKeys  map[glfw.Key]bool
	previousKeys map[glfw.Key]bool
}

// NewInputHandler creates a new input handler
func NewInputHandler(window *glfw.Window) *InputHandler {
	return &InputHandler{
		window:       window,
		currentKeys:  make(map[glfw.Key]bool),
		previousKeys: make(map[glfw.Key]bool),
	}
}

// Update snapshots the key state
func (ih *InputHandler) Update() {
	ih.previousKeys, ih.currentKeys = ih.currentKeys, ih.previousKeys
	for _, key := range flightKeys {
		ih.currentKeys[key] = ih.window.GetKey(key) == glfw.Press
	}
}

// IsKeyDown checks if a key is held
func (ih *InputHandler) IsKeyDown(key glfw.Key) bool {
	return ih.currentKeys[key]
}

// IsKeyPressed checks if a key went down this frame
func (ih *InputHandler) IsKeyPressed(key glfw.Key) bool {
	return ih.currentKeys[key] && !ih.previousKeys[key]
}

func (ih *InputHandler) axis(positive, negative glfw.Key) float64 {
	v := 0.0
	if ih.IsKeyDown(positive) {
		v++
	}
	if ih.IsKeyDown(negative) {
		v--
	}
	return v
}

// Poll maps W/S (or arrows) to pitch, A/D to roll, Q/E to yaw,
// Shift/Ctrl to throttle, R to reset, P to pause and Esc to quit
func (ih *InputHandler) Poll() Intent {
	ih.Update()

	pitch := ih.axis(glfw.KeyS, glfw.KeyW) + ih.axis(glfw.KeyDown, glfw.KeyUp)
	roll := ih.axis(glfw.KeyD, glfw.KeyA) + ih.axis(glfw.KeyRight, glfw.KeyLeft)

	return Intent{
		Controls: physics.ControlInput{
			Pitch:         clampUnit(pitch),
			Roll:          clampUnit(roll),
			Yaw:           ih.axis(glfw.KeyE, glfw.KeyQ),
			ThrottleDelta: ih.axis(glfw.KeyLeftShift, glfw.KeyLeftControl),
		},
		Quit:        ih.IsKeyDown(glfw.KeyEscape),
		Reset:       ih.IsKeyPressed(glfw.KeyR),
		TogglePause: ih.IsKeyPressed(glfw.KeyP),
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
