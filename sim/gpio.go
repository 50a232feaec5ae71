package sim

import (
	"errors"
	"time"

	"sortbin/core"
)

// PinMode records how a simulated pin was configured
type PinMode uint8

const (
	Unconfigured PinMode = iota
	Output
	InputPullUp
	InputPullDown
)

// ErrNotOutput is returned when firmware writes a pin it did not configure as output
var ErrNotOutput = errors.New("pin not configured as output")

// Edge is one level change on a pin
type Edge struct {
	Pin   core.GPIOPin
	Level bool
	At    time.Duration
}

// GPIO is a simulated pin bank implementing core.GPIODriver
type GPIO struct {
	clock  *Clock
	modes  map[core.GPIOPin]PinMode
	levels map[core.GPIOPin]bool
	edges  []Edge
	faults map[core.GPIOPin]error
}

// NewGPIO creates a pin bank stamping edges with clock; clock may be nil
func NewGPIO(clock *Clock) *GPIO {
	return &GPIO{
		clock:  clock,
		modes:  make(map[core.GPIOPin]PinMode),
		levels: make(map[core.GPIOPin]bool),
		faults: make(map[core.GPIOPin]error),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	return g.configure(pin, Output)
}

func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	if err := g.configure(pin, InputPullUp); err != nil {
		return err
	}
	g.levels[pin] = true
	return nil
}

func (g *GPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	if err := g.configure(pin, InputPullDown); err != nil {
		return err
	}
	g.levels[pin] = false
	return nil
}

func (g *GPIO) configure(pin core.GPIOPin, mode PinMode) error {
	if err := g.faults[pin]; err != nil {
		return err
	}
	g.modes[pin] = mode
	return nil
}

// SetPin drives an output pin and records the edge if the level changed
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	if err := g.faults[pin]; err != nil {
		return err
	}
	if g.modes[pin] != Output {
		return ErrNotOutput
	}
	if g.levels[pin] != value {
		g.edges = append(g.edges, Edge{Pin: pin, Level: value, At: g.now()})
	}
	g.levels[pin] = value
	return nil
}

// GetPin reads the current level of a pin
func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	if err := g.faults[pin]; err != nil {
		return false, err
	}
	return g.levels[pin], nil
}

// ReadPin reads a pin, ignoring errors
func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	v, _ := g.GetPin(pin)
	return v
}

// Drive sets the external level seen on an input pin
func (g *GPIO) Drive(pin core.GPIOPin, level bool) {
	g.levels[pin] = level
}

// Present drives the three sensor inputs so that the firmware reads r,
// honouring each line's inversion.
func (g *GPIO) Present(pins core.SensorPins, r core.SensorReading) {
	g.Drive(pins.Presence.Pin, r.Presence != pins.Presence.Invert)
	g.Drive(pins.Moisture.Pin, r.Moisture != pins.Moisture.Invert)
	g.Drive(pins.Metallic.Pin, r.Metallic != pins.Metallic.Invert)
}

// Fail makes every access to pin return err; a nil err clears the fault
func (g *GPIO) Fail(pin core.GPIOPin, err error) {
	if err == nil {
		delete(g.faults, pin)
		return
	}
	g.faults[pin] = err
}

// Mode returns how pin was configured
func (g *GPIO) Mode(pin core.GPIOPin) PinMode {
	return g.modes[pin]
}

// Level returns the current level of pin
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.levels[pin]
}

// Edges returns every recorded level change on pin, in order
func (g *GPIO) Edges(pin core.GPIOPin) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Pin == pin {
			out = append(out, e)
		}
	}
	return out
}

// Trace returns every recorded level change on any pin, in order
func (g *GPIO) Trace() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Pulses returns the width of every completed high pulse on pin
func (g *GPIO) Pulses(pin core.GPIOPin) []time.Duration {
	var out []time.Duration
	var rise time.Duration
	high := false
	for _, e := range g.Edges(pin) {
		switch {
		case e.Level && !high:
			rise, high = e.At, true
		case !e.Level && high:
			out = append(out, e.At-rise)
			high = false
		}
	}
	return out
}

// WasHigh reports whether pin went high at any point
func (g *GPIO) WasHigh(pin core.GPIOPin) bool {
	for _, e := range g.Edges(pin) {
		if e.Level {
			return true
		}
	}
	return false
}

// ResetEdges forgets the recorded edges, keeping levels and modes
func (g *GPIO) ResetEdges() {
	g.edges = g.edges[:0]
}

func (g *GPIO) now() time.Duration {
	if g.clock == nil {
		return 0
	}
	return g.clock.Now()
}
