package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"flightsim/internal/logger"
	"flightsim/pkg/physics"
	"flightsim/pkg/sim"
)

// keyHold is how long a terminal key press keeps its control deflected.
// Terminals report no key releases, so auto-repeat refreshes the hold.
const keyHold = 150 * time.Millisecond

// hudRows is the number of text rows reserved above the map
const hudRows = 2

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHUD     = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleCrashed = styleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed).Bold(true)
	stylePaused  = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleCraft   = styleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// control is one key-driven action
type control int

const (
	ctrlPitchUp control = iota
	ctrlPitchDown
	ctrlRollLeft
	ctrlRollRight
	ctrlYawLeft
	ctrlYawRight
	ctrlThrottleUp
	ctrlThrottleDown
	numControls
)

// ASCIIRenderer draws a top-down shaded map of the streamed terrain in a
// terminal and reads the pilot's keys from the same screen
type ASCIIRenderer struct {
	screen        tcell.Screen
	logger        *logger.Logger
	asciiGradient []rune // Characters from dark to light
	metersPerCell float64

	mutex       sync.Mutex
	pressed     [numControls]time.Time
	quit        bool
	reset       bool
	togglePause bool
	now         func() time.Time
	done        chan struct{}
}

// NewASCIIRenderer takes over the terminal screen. metersPerCell sets the map scale.
func NewASCIIRenderer(screen tcell.Screen, metersPerCell float64, log *logger.Logger) (*ASCIIRenderer, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	screen.SetStyle(styleDefault)
	screen.HideCursor()
	screen.Clear()

	if metersPerCell <= 0 {
		metersPerCell = 32
	}

	r := &ASCIIRenderer{
		screen:        screen,
		logger:        log.Named("ascii"),
		asciiGradient: []rune{' ', '.', '\'', '`', ',', ':', ';', '"', '-', '+', '=', '*', '#', '%', '@', '$'},
		metersPerCell: metersPerCell,
		now:           time.Now,
		done:          make(chan struct{}),
	}
	go r.pollEvents()
	return r, nil
}

// pollEvents feeds terminal events into the control state until Close
func (r *ASCIIRenderer) pollEvents() {
	for {
		ev := r.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case <-r.done:
			return
		default:
		}
		r.handleEvent(ev)
	}
}

func (r *ASCIIRenderer) handleEvent(ev tcell.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	switch ev := ev.(type) {
	case *tcell.EventResize:
		r.screen.Sync()
	case *tcell.EventKey:
		now := r.now()
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			r.quit = true
		case tcell.KeyUp:
			r.pressed[ctrlPitchDown] = now
		case tcell.KeyDown:
			r.pressed[ctrlPitchUp] = now
		case tcell.KeyLeft:
			r.pressed[ctrlRollLeft] = now
		case tcell.KeyRight:
			r.pressed[ctrlRollRight] = now
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'w', 'W':
				r.pressed[ctrlPitchDown] = now
			case 's', 'S':
				r.pressed[ctrlPitchUp] = now
			case 'a', 'A':
				r.pressed[ctrlRollLeft] = now
			case 'd', 'D':
				r.pressed[ctrlRollRight] = now
			case 'q', 'Q':
				r.pressed[ctrlYawLeft] = now
			case 'e', 'E':
				r.pressed[ctrlYawRight] = now
			case '+', '=':
				r.pressed[ctrlThrottleUp] = now
			case '-', '_':
				r.pressed[ctrlThrottleDown] = now
			case 'r', 'R':
				r.reset = true
			case 'p', 'P':
				r.togglePause = true
			}
		}
	}
}

// held reports whether a control was pressed within the hold window
func (r *ASCIIRenderer) held(c control, now time.Time) float64 {
	if now.Sub(r.pressed[c]) < keyHold {
		return 1
	}
	return 0
}

// Poll returns the controls held within the last key hold window and
// consumes one-shot requests
func (r *ASCIIRenderer) Poll() Intent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	in := Intent{
		Controls: physics.ControlInput{
			Pitch:         r.held(ctrlPitchUp, now) - r.held(ctrlPitchDown, now),
			Roll:          r.held(ctrlRollRight, now) - r.held(ctrlRollLeft, now),
			Yaw:           r.held(ctrlYawRight, now) - r.held(ctrlYawLeft, now),
			ThrottleDelta: r.held(ctrlThrottleUp, now) - r.held(ctrlThrottleDown, now),
		},
		Quit:        r.quit,
		Reset:       r.reset,
		TogglePause: r.togglePause,
	}
	r.reset = false
	r.togglePause = false
	return in
}

// shade picks a gradient rune for a height given the tallest biome amplitude
func (r *ASCIIRenderer) shade(height, amplitude float64) rune {
	if amplitude <= 0 {
		return r.asciiGradient[0]
	}
	t := math.Max(0, math.Min(1, height/amplitude))
	idx := int(t * float64(len(r.asciiGradient)-1))
	return r.asciiGradient[idx]
}

// headingRune points along the aircraft's horizontal heading, screen up being -Z
func headingRune(forwardX, forwardZ float64) rune {
	if math.Abs(forwardX) < 1e-9 && math.Abs(forwardZ) < 1e-9 {
		return '+'
	}
	// 0 is north (-Z), increasing clockwise
	angle := math.Atan2(forwardX, -forwardZ)
	sector := int(math.Floor(angle/(math.Pi/4)+0.5)+8) % 8
	return []rune{'^', '/', '>', '\\', 'v', '/', '<', '\\'}[sector]
}

// Render draws the map around the aircraft and a telemetry header
func (r *ASCIIRenderer) Render(frame Frame) {
	r.screen.Clear()
	width, height := r.screen.Size()

	store := frame.Chunks
	hf := store.HeightField()
	a, b := hf.Biomes()
	amplitude := math.Max(a.Amplitude, b.Amplitude)

	px, pz := frame.Body.Position.X(), frame.Body.Position.Z()
	mapRows := height - hudRows
	centerCol, centerRow := width/2, hudRows+mapRows/2

	for row := hudRows; row < height; row++ {
		for col := 0; col < width; col++ {
			// terminal cells are about twice as tall as wide
			x := px + float64(col-centerCol)*r.metersPerCell
			z := pz + float64(row-centerRow)*r.metersPerCell*2

			if _, ok := store.Chunk(store.KeyAt(x, z)); !ok {
				continue
			}
			s := hf.At(x, z)
			color := tcell.NewRGBColor(int32(s.Color.R*255), int32(s.Color.G*255), int32(s.Color.B*255))
			r.screen.SetContent(col, row, r.shade(s.Height, amplitude), nil, styleDefault.Foreground(color))
		}
	}

	if centerRow < height {
		r.screen.SetContent(centerCol, centerRow, headingRune(frame.Body.Forward.X(), frame.Body.Forward.Z()), nil, styleCraft)
	}

	r.drawText(0, 0, frame.Telemetry.String(), styleHUD)
	status := fmt.Sprintf(" %s  chunks %d  %.0f fps ", frame.Mode, store.Len(), frame.FPS)
	style := styleHUD
	switch frame.Mode {
	case sim.ModeCrashed:
		style = styleCrashed
		status += " R to restart "
	case sim.ModePaused:
		style = stylePaused
	}
	r.drawText(0, 1, status, style)

	r.screen.Show()
}

func (r *ASCIIRenderer) drawText(x, y int, text string, style tcell.Style) {
	for _, ch := range text {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

// UpdateResolution resyncs the terminal; the map follows the screen size
func (r *ASCIIRenderer) UpdateResolution(width, height int) {
	r.screen.Sync()
}

// Close restores the terminal
func (r *ASCIIRenderer) Close() {
	close(r.done)
	r.screen.Fini()
}
