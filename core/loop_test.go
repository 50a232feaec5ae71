package core_test

import (
	"errors"
	"testing"
	"time"

	"sortbin/core"
	"sortbin/sim"
)

func newBench(t *testing.T) *sim.Bench {
	t.Helper()
	core.ClearEventRing()
	b, err := sim.NewBench(nil)
	if err != nil {
		t.Fatalf("NewBench failed: %v", err)
	}
	return b
}

func reading(presence, moisture, metallic bool) core.SensorReading {
	return core.SensorReading{Presence: presence, Moisture: moisture, Metallic: metallic}
}

// assertQuiet checks that every output line is low
func assertQuiet(t *testing.T, b *sim.Bench) {
	t.Helper()
	pins := b.Config.OutputPins()
	if b.GPIO.Level(pins.Buzzer) {
		t.Error("buzzer still active")
	}
	for i, pin := range pins.Indicators {
		if b.GPIO.Level(pin) {
			t.Errorf("indicator %d still active", i)
		}
	}
	if b.GPIO.Level(pins.Actuator) {
		t.Error("actuator line still high")
	}
	if b.Outputs.Feedback().Active() {
		t.Errorf("feedback shadow still active: %+v", b.Outputs.Feedback())
	}
}

func TestCyclePlasticEndToEnd(t *testing.T) {
	b := newBench(t)
	pins := b.Config.OutputPins()

	b.Present(reading(true, false, false))
	rep, err := b.Controller.Cycle()
	if err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}

	if rep.Class != core.Plastic {
		t.Errorf("class = %v, expected Plastic", rep.Class)
	}
	if b.Display.Last() != "PLASTIC" {
		t.Errorf("display = %q, expected PLASTIC", b.Display.Last())
	}
	if got := b.Display.Frames()[0].Column; got != b.Config.Display.LabelColumn() {
		t.Errorf("label written at column %d, expected %d", got, b.Config.Display.LabelColumn())
	}

	pulses := b.ActuatorPulses()
	if len(pulses) != 1 || pulses[0] != 1333*time.Microsecond {
		t.Errorf("actuator pulses = %v, expected [1.333ms]", pulses)
	}
	if rep.PulseWidthUS != 1333 {
		t.Errorf("report pulse width = %d, expected 1333", rep.PulseWidthUS)
	}

	if !b.GPIO.WasHigh(pins.Buzzer) {
		t.Error("buzzer never activated")
	}
	if !b.GPIO.WasHigh(pins.Indicators[0]) {
		t.Error("indicator 1 never activated")
	}
	if b.GPIO.WasHigh(pins.Indicators[1]) || b.GPIO.WasHigh(pins.Indicators[2]) {
		t.Error("wrong indicator activated")
	}

	if b.Controller.State() != core.Idle {
		t.Errorf("state = %v, expected Idle", b.Controller.State())
	}
	assertQuiet(t, b)
}

func TestCycleNoObjectEndToEnd(t *testing.T) {
	for _, r := range []core.SensorReading{
		reading(false, false, false),
		reading(false, true, false),
		reading(false, false, true),
		reading(false, true, true),
	} {
		b := newBench(t)
		pins := b.Config.OutputPins()

		b.Present(r)
		rep, err := b.Controller.Cycle()
		if err != nil {
			t.Fatalf("Cycle failed: %v", err)
		}

		if rep.Class != core.NoObject {
			t.Errorf("%+v: class = %v, expected NoObject", r, rep.Class)
		}
		if b.Display.Last() != "NO OBJECT" {
			t.Errorf("%+v: display = %q, expected NO OBJECT", r, b.Display.Last())
		}
		if len(b.ActuatorPulses()) != 0 || b.GPIO.WasHigh(pins.Actuator) {
			t.Errorf("%+v: actuator pulsed without an object", r)
		}
		if b.GPIO.WasHigh(pins.Buzzer) {
			t.Errorf("%+v: buzzer activated without an object", r)
		}
		if rep.PulseWidthUS != 0 {
			t.Errorf("%+v: report pulse width = %d, expected 0", r, rep.PulseWidthUS)
		}
		assertQuiet(t, b)
	}
}

func TestCycleEachClass(t *testing.T) {
	tests := []struct {
		r         core.SensorReading
		class     core.WasteClass
		label     string
		width     time.Duration
		indicator int
	}{
		{reading(true, false, false), core.Plastic, "PLASTIC", 1333 * time.Microsecond, 0},
		{reading(true, false, true), core.Metal, "METAL", 1666 * time.Microsecond, 1},
		{reading(true, true, false), core.Wet, "WET", 2000 * time.Microsecond, 2},
		{reading(true, true, true), core.Wet, "WET", 2000 * time.Microsecond, 2},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			b := newBench(t)
			pins := b.Config.OutputPins()

			b.Present(tc.r)
			rep, err := b.Controller.Cycle()
			if err != nil {
				t.Fatalf("Cycle failed: %v", err)
			}
			if rep.Class != tc.class || b.Display.Last() != tc.label {
				t.Errorf("got %v/%q, expected %v/%q", rep.Class, b.Display.Last(), tc.class, tc.label)
			}
			pulses := b.ActuatorPulses()
			if len(pulses) != 1 || pulses[0] != tc.width {
				t.Errorf("pulses = %v, expected [%v]", pulses, tc.width)
			}
			for i, pin := range pins.Indicators {
				if b.GPIO.WasHigh(pin) != (i == tc.indicator) {
					t.Errorf("indicator %d activity = %v", i, b.GPIO.WasHigh(pin))
				}
			}
		})
	}
}

func TestFeedbackSetBeforePulse(t *testing.T) {
	b := newBench(t)
	pins := b.Config.OutputPins()

	b.Present(reading(true, false, true))
	if _, err := b.Controller.Cycle(); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}

	order := map[core.GPIOPin]int{}
	for i, e := range b.GPIO.Trace() {
		if _, seen := order[e.Pin]; !seen && e.Level {
			order[e.Pin] = i
		}
	}
	if order[pins.Buzzer] > order[pins.Actuator] {
		t.Error("buzzer must be on before the actuator pulse")
	}
	if order[pins.Indicators[1]] > order[pins.Actuator] {
		t.Error("indicator must be on before the actuator pulse")
	}
}

func TestOutputsQuietAtEverySample(t *testing.T) {
	b := newBench(t)

	var transitions []core.State
	b.Controller.OnTransition(func(from, to core.State) {
		transitions = append(transitions, to)
		if to == core.Sampling {
			if from != core.Idle {
				t.Errorf("entered Sampling from %v", from)
			}
			assertQuiet(t, b)
		}
	})

	sequence := []core.SensorReading{
		reading(true, true, false),
		reading(true, false, false),
		reading(false, false, false),
		reading(true, false, true),
		reading(true, true, true),
		reading(false, true, true),
	}
	for _, r := range sequence {
		b.Present(r)
		if _, err := b.Controller.Cycle(); err != nil {
			t.Fatalf("Cycle failed: %v", err)
		}
	}

	if len(transitions) != 3*len(sequence) {
		t.Fatalf("expected %d transitions, got %d", 3*len(sequence), len(transitions))
	}
	for i := 0; i < len(transitions); i += 3 {
		if transitions[i] != core.Sampling || transitions[i+2] != core.Idle {
			t.Errorf("cycle %d transitions %v", i/3, transitions[i:i+3])
		}
	}
	if b.Controller.Cycles() != uint32(len(sequence)) {
		t.Errorf("Cycles() = %d, expected %d", b.Controller.Cycles(), len(sequence))
	}
}

func TestHoldIndependentOfBranch(t *testing.T) {
	b := newBench(t)
	counter := b.Clock.Counter()

	measure := func(r core.SensorReading) (time.Duration, int) {
		b.Present(r)
		start := b.Clock.Now()
		overflows := counter.Overflows()
		rep, err := b.Controller.Cycle()
		if err != nil {
			t.Fatalf("Cycle failed: %v", err)
		}
		// Everything but the pulse is hold time in logical time
		hold := b.Clock.Now() - start - time.Duration(rep.PulseWidthUS)*time.Microsecond
		return hold, counter.Overflows() - overflows
	}

	noObjHold, noObjEvents := measure(reading(false, false, false))
	alertHold, alertEvents := measure(reading(true, true, false))

	if noObjHold != alertHold {
		t.Errorf("hold differs: NoObject %v, Alert %v", noObjHold, alertHold)
	}
	if noObjEvents != 46 || alertEvents != 46 {
		t.Errorf("overflow events NoObject=%d Alert=%d, expected 46", noObjEvents, alertEvents)
	}

	// 46 x 65.536ms, about 3s
	if want := 46 * 65536 * time.Microsecond; alertHold != want {
		t.Errorf("hold = %v, expected %v", alertHold, want)
	}
}

func TestCycleCompletesDespiteDisplayFault(t *testing.T) {
	b := newBench(t)
	b.Display.Fail = errors.New("bus timeout")

	b.Present(reading(true, false, false))
	rep, err := b.Controller.Cycle()
	if err == nil {
		t.Fatal("expected display error to be reported")
	}
	if rep.PulseWidthUS != 1333 {
		t.Errorf("pulse still expected, got %dus", rep.PulseWidthUS)
	}
	if rep.HoldOverflows != 46 {
		t.Errorf("hold still expected, got %d overflows", rep.HoldOverflows)
	}
	if b.Controller.State() != core.Idle {
		t.Errorf("state = %v, expected Idle", b.Controller.State())
	}
	assertQuiet(t, b)

	var sawError bool
	for _, evt := range core.EventRingSnapshot() {
		if evt.EventType == core.EvtError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("error event not recorded")
	}
}

func TestSensorFaultFallsBackToNoObject(t *testing.T) {
	b := newBench(t)
	presence := b.Config.SensorPins().Presence.Pin
	b.GPIO.Fail(presence, errors.New("open circuit"))

	b.Present(reading(true, false, false))
	rep, err := b.Controller.Cycle()
	if err == nil {
		t.Fatal("expected sensor error to be reported")
	}
	if rep.Class != core.NoObject {
		t.Errorf("class = %v, expected NoObject", rep.Class)
	}
	if len(b.ActuatorPulses()) != 0 {
		t.Error("actuator pulsed on a failed sample")
	}
	assertQuiet(t, b)

	// The next cycle proceeds normally once the line recovers
	b.GPIO.Fail(presence, nil)
	b.Present(reading(true, false, false))
	if rep, err = b.Controller.Cycle(); err != nil || rep.Class != core.Plastic {
		t.Errorf("recovery cycle = %v, %v", rep.Class, err)
	}
}

func TestRunCyclesReports(t *testing.T) {
	b := newBench(t)
	b.Present(reading(true, false, true))

	reports := b.Controller.RunCycles(3)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, rep := range reports {
		if rep.Cycle != uint32(i+1) || rep.Class != core.Metal || rep.PulseWidthUS != 1666 {
			t.Errorf("report %d = %+v", i, rep)
		}
	}

	events := core.EventRingSnapshot()
	if len(events) == 0 {
		t.Fatal("event ring empty")
	}
	if last := events[len(events)-1]; last.EventType != core.EvtReset || last.Cycle != 3 {
		t.Errorf("last event = %s cycle %d, expected RESET cycle 3", core.EventName(last.EventType), last.Cycle)
	}
}

func TestNewControllerRequiresCollaborators(t *testing.T) {
	b := newBench(t)
	if _, err := core.NewController(b.Inputs, b.Outputs, b.Actuator, nil, b.Timing, b.Config.LoopConfig()); err == nil {
		t.Error("expected error for missing display")
	}
}
