package core

import "errors"

// State is a state of the control loop
type State uint8

const (
	Idle State = iota
	Sampling
	NoObjectFeedback
	AlertActuation
)

func (s State) String() string {
	switch s {
	case Sampling:
		return "Sampling"
	case NoObjectFeedback:
		return "NoObjectFeedback"
	case AlertActuation:
		return "AlertActuation"
	default:
		return "Idle"
	}
}

// LoopConfig holds the control loop parameters
type LoopConfig struct {
	// HoldSeconds is how long the result stays on the display before the next
	// sample. It is the same for every branch.
	HoldSeconds uint32

	// DisplayColumn is the column every result label is written at
	DisplayColumn uint8
}

// CycleReport describes one completed classification cycle
type CycleReport struct {
	Cycle         uint32
	Reading       SensorReading
	Class         WasteClass
	PulseWidthUS  uint32 // 0 when no pulse was issued
	HoldOverflows uint32
}

// Controller is the single control loop of the bin. It owns the output port for
// the whole cycle; classification, actuation, feedback and reset run strictly in
// sequence and cycles never overlap.
type Controller struct {
	inputs   *InputPort
	outputs  *OutputPort
	actuator *Actuator
	display  Display
	timing   *Timing
	cfg      LoopConfig

	state        State
	cycle        uint32
	onTransition func(from, to State)
}

// NewController wires the collaborators together and drives every output low
func NewController(inputs *InputPort, outputs *OutputPort, actuator *Actuator, display Display, timing *Timing, cfg LoopConfig) (*Controller, error) {
	if inputs == nil || outputs == nil || actuator == nil || display == nil || timing == nil {
		return nil, errors.New("controller: missing collaborator")
	}

	c := &Controller{
		inputs:   inputs,
		outputs:  outputs,
		actuator: actuator,
		display:  display,
		timing:   timing,
		cfg:      cfg,
		state:    Idle,
	}
	if err := outputs.ClearAll(); err != nil {
		return nil, errors.New("controller: clear outputs: " + err.Error())
	}
	return c, nil
}

// OnTransition registers fn to be called on every state change
func (c *Controller) OnTransition(fn func(from, to State)) {
	c.onTransition = fn
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Cycles returns the number of cycles started so far
func (c *Controller) Cycles() uint32 {
	return c.cycle
}

// Outputs returns the output port owned by the loop
func (c *Controller) Outputs() *OutputPort {
	return c.outputs
}

// Run executes classification cycles forever
func (c *Controller) Run() {
	for {
		c.Cycle()
	}
}

// RunCycles executes n classification cycles and returns their reports
func (c *Controller) RunCycles(n int) []CycleReport {
	reports := make([]CycleReport, 0, n)
	for i := 0; i < n; i++ {
		rep, _ := c.Cycle()
		reports = append(reports, rep)
	}
	return reports
}

// Cycle runs one sample, classify, act, feedback, reset pass. Collaborator
// errors are logged and the first one is returned, but the cycle always
// completes and always ends in Idle with every output low.
func (c *Controller) Cycle() (CycleReport, error) {
	c.cycle++
	rep := CycleReport{Cycle: c.cycle}

	var firstErr error
	check := func(err error) {
		if err == nil {
			return
		}
		RecordEvent(EvtError, c.cycle, uint32(c.state), 0)
		DebugPrintln("cycle " + utoa(c.cycle) + " " + c.state.String() + ": " + err.Error())
		if firstErr == nil {
			firstErr = err
		}
	}

	c.enter(Sampling)
	reading, err := c.inputs.ReadSensors()
	check(err)
	rep.Reading = reading
	RecordEvent(EvtSample, c.cycle, sampleBits(reading), 0)

	rep.Class = Classify(reading)
	RecordEvent(EvtClassify, c.cycle, uint32(rep.Class), 0)
	DebugPrintln("cycle " + utoa(c.cycle) + " sensors=" + reading.String() + " class=" + rep.Class.String())

	if rep.Class == NoObject {
		c.enter(NoObjectFeedback)
	} else {
		c.enter(AlertActuation)
		check(c.outputs.SetBuzzer(true))
		check(c.outputs.SetIndicator(rep.Class.Indicator(), true))

		width, err := c.actuator.Actuate(rep.Class)
		check(err)
		if err == nil {
			rep.PulseWidthUS = width
			RecordEvent(EvtPulse, c.cycle, width, 0)
		}
	}

	check(c.show(rep.Class))

	rep.HoldOverflows = c.timing.Clock().OverflowsFor(c.cfg.HoldSeconds)
	c.timing.DelayOverflows(rep.HoldOverflows)
	RecordEvent(EvtHold, c.cycle, rep.HoldOverflows, 0)

	check(c.outputs.ClearAll())
	RecordEvent(EvtReset, c.cycle, 0, 0)
	c.enter(Idle)

	return rep, firstErr
}

// show writes the label for class at the configured column
func (c *Controller) show(class WasteClass) error {
	if err := c.display.ClearAndHome(); err != nil {
		return errors.New("display clear: " + err.Error())
	}
	if err := c.display.ShowText(class.Label(), c.cfg.DisplayColumn); err != nil {
		return errors.New("display write: " + err.Error())
	}
	RecordEvent(EvtDisplay, c.cycle, uint32(class), 0)
	return nil
}

func (c *Controller) enter(next State) {
	prev := c.state
	c.state = next
	if c.onTransition != nil {
		c.onTransition(prev, next)
	}
}

func sampleBits(r SensorReading) uint32 {
	var v uint32
	if r.Presence {
		v |= 1
	}
	if r.Moisture {
		v |= 1 << 1
	}
	if r.Metallic {
		v |= 1 << 2
	}
	return v
}
