package core_test

import (
	"errors"
	"testing"

	"sortbin/core"
	"sortbin/sim"
)

var testOutputs = core.OutputPins{
	Buzzer:     15,
	Indicators: [core.IndicatorCount]core.GPIOPin{16, 17, 18},
	Actuator:   22,
}

func newPort(t *testing.T) (*core.OutputPort, *sim.GPIO) {
	t.Helper()
	gpio := sim.NewGPIO(nil)
	port, err := core.NewOutputPort(gpio, testOutputs)
	if err != nil {
		t.Fatalf("NewOutputPort failed: %v", err)
	}
	return port, gpio
}

func TestOutputPortStartsLow(t *testing.T) {
	_, gpio := newPort(t)

	pins := []core.GPIOPin{15, 16, 17, 18, 22}
	for _, pin := range pins {
		if gpio.Mode(pin) != sim.Output {
			t.Errorf("pin %d not configured as output", pin)
		}
		if gpio.Level(pin) {
			t.Errorf("pin %d high after construction", pin)
		}
	}
}

func TestOutputPortSingleIndicator(t *testing.T) {
	port, gpio := newPort(t)

	if err := port.SetIndicator(0, true); err != nil {
		t.Fatalf("SetIndicator(0) failed: %v", err)
	}
	if err := port.SetIndicator(2, true); err != nil {
		t.Fatalf("SetIndicator(2) failed: %v", err)
	}

	fb := port.Feedback()
	if fb.Indicators[0] || !fb.Indicators[2] {
		t.Errorf("expected only indicator 2 on, got %v", fb.Indicators)
	}
	if gpio.Level(16) || !gpio.Level(18) {
		t.Errorf("pin levels disagree with shadow state: 16=%v 18=%v", gpio.Level(16), gpio.Level(18))
	}

	if err := port.SetIndicator(3, true); err != core.ErrIndicatorRange {
		t.Errorf("SetIndicator(3) = %v, expected ErrIndicatorRange", err)
	}
	if err := port.SetIndicator(-1, false); err != core.ErrIndicatorRange {
		t.Errorf("SetIndicator(-1) = %v, expected ErrIndicatorRange", err)
	}
}

func TestOutputPortClearFeedback(t *testing.T) {
	port, gpio := newPort(t)

	port.SetBuzzer(true)
	port.SetIndicator(1, true)
	port.SetActuator(true)

	if !port.Feedback().Active() {
		t.Fatal("feedback should be active")
	}

	// A failing indicator must not stop the others from being cleared
	gpio.Fail(16, errors.New("stuck"))
	if err := port.ClearAll(); err == nil {
		t.Error("expected the injected fault to be reported")
	}
	gpio.Fail(16, nil)

	if gpio.Level(15) || gpio.Level(17) || gpio.Level(22) {
		t.Errorf("outputs still high: buzzer=%v ind1=%v actuator=%v",
			gpio.Level(15), gpio.Level(17), gpio.Level(22))
	}
	if port.ActuatorHigh() {
		t.Error("actuator shadow still high")
	}
}

type recordingSwitch struct {
	on    bool
	calls int
}

func (s *recordingSwitch) On() error  { s.on = true; s.calls++; return nil }
func (s *recordingSwitch) Off() error { s.on = false; s.calls++; return nil }

func TestOutputPortBuzzerSwitch(t *testing.T) {
	port, gpio := newPort(t)
	sw := &recordingSwitch{}
	port.UseBuzzer(sw)

	port.SetBuzzer(true)
	if !sw.on || !port.Feedback().Buzzer {
		t.Error("buzzer switch not turned on")
	}
	if gpio.WasHigh(15) {
		t.Error("raw buzzer line driven while a switch is installed")
	}

	port.ClearFeedback()
	if sw.on || port.Feedback().Buzzer {
		t.Error("buzzer switch not turned off")
	}
}

func TestInputPortInversion(t *testing.T) {
	gpio := sim.NewGPIO(nil)
	pins := core.SensorPins{
		Presence: core.SensorLine{Pin: 2, Invert: true, PullUp: true},
		Moisture: core.SensorLine{Pin: 3},
		Metallic: core.SensorLine{Pin: 4},
	}
	in, err := core.NewInputPort(gpio, pins)
	if err != nil {
		t.Fatalf("NewInputPort failed: %v", err)
	}
	if gpio.Mode(2) != sim.InputPullUp || gpio.Mode(3) != sim.InputPullDown {
		t.Errorf("unexpected pin modes: %v %v", gpio.Mode(2), gpio.Mode(3))
	}

	// Pull-up idles high, which an active-low sensor reads as absent
	r, err := in.ReadSensors()
	if err != nil {
		t.Fatalf("ReadSensors failed: %v", err)
	}
	if r.Presence {
		t.Error("idle active-low line read as present")
	}

	want := core.SensorReading{Presence: true, Metallic: true}
	gpio.Present(pins, want)
	if gpio.Level(2) {
		t.Error("active-low presence should be driven low")
	}
	r, err = in.ReadSensors()
	if err != nil {
		t.Fatalf("ReadSensors failed: %v", err)
	}
	if r != want {
		t.Errorf("ReadSensors() = %+v, expected %+v", r, want)
	}
}

func TestPortsRequireDriver(t *testing.T) {
	if _, err := core.NewOutputPort(nil, testOutputs); err != core.ErrPinUnset {
		t.Errorf("NewOutputPort(nil) = %v, expected ErrPinUnset", err)
	}
	if _, err := core.NewInputPort(nil, core.SensorPins{}); err != core.ErrPinUnset {
		t.Errorf("NewInputPort(nil) = %v, expected ErrPinUnset", err)
	}
}
