package core

import "errors"

var (
	// ErrIndicatorRange is returned for an indicator index outside 0..IndicatorCount-1
	ErrIndicatorRange = errors.New("indicator index out of range")

	// ErrPinUnset is returned when a port is built without a driver
	ErrPinUnset = errors.New("gpio driver not set")
)

// OutputPins maps each feedback and actuator signal to a GPIO line
type OutputPins struct {
	Buzzer     GPIOPin
	Indicators [IndicatorCount]GPIOPin
	Actuator   GPIOPin
}

// FeedbackState is the shadow copy of the buzzer and indicator lines
type FeedbackState struct {
	Buzzer     bool
	Indicators [IndicatorCount]bool
}

// Active reports whether any feedback signal is on
func (f FeedbackState) Active() bool {
	if f.Buzzer {
		return true
	}
	for _, on := range f.Indicators {
		if on {
			return true
		}
	}
	return false
}

// OutputPort owns every output line of the bin. It is created once by the
// target and handed to the control loop; nothing else drives these lines.
type OutputPort struct {
	gpio GPIODriver
	pins OutputPins

	// buzzer replaces the raw buzzer line when set
	buzzer Switch

	feedback FeedbackState
	actuator bool
}

// NewOutputPort configures all output lines and drives them low
func NewOutputPort(gpio GPIODriver, pins OutputPins) (*OutputPort, error) {
	if gpio == nil {
		return nil, ErrPinUnset
	}

	p := &OutputPort{gpio: gpio, pins: pins}

	lines := make([]GPIOPin, 0, IndicatorCount+2)
	lines = append(lines, pins.Buzzer, pins.Actuator)
	lines = append(lines, pins.Indicators[:]...)
	for _, pin := range lines {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, errors.New("configure output " + utoa(uint32(pin)) + ": " + err.Error())
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return nil, errors.New("clear output " + utoa(uint32(pin)) + ": " + err.Error())
		}
	}

	return p, nil
}

// UseBuzzer routes buzzer on/off through a device driver instead of the raw line
func (p *OutputPort) UseBuzzer(s Switch) {
	p.buzzer = s
}

// SetBuzzer switches the buzzer
func (p *OutputPort) SetBuzzer(on bool) error {
	var err error
	switch {
	case p.buzzer != nil && on:
		err = p.buzzer.On()
	case p.buzzer != nil:
		err = p.buzzer.Off()
	default:
		err = p.gpio.SetPin(p.pins.Buzzer, on)
	}
	if err != nil {
		return err
	}
	p.feedback.Buzzer = on
	return nil
}

// SetIndicator switches one indicator line. Turning one on turns the others off,
// so at most one indicator is ever active.
func (p *OutputPort) SetIndicator(index int, on bool) error {
	if index < 0 || index >= IndicatorCount {
		return ErrIndicatorRange
	}

	if on {
		for i := range p.pins.Indicators {
			if i == index || !p.feedback.Indicators[i] {
				continue
			}
			if err := p.gpio.SetPin(p.pins.Indicators[i], false); err != nil {
				return err
			}
			p.feedback.Indicators[i] = false
		}
	}

	if err := p.gpio.SetPin(p.pins.Indicators[index], on); err != nil {
		return err
	}
	p.feedback.Indicators[index] = on
	return nil
}

// SetActuator drives the actuator control line
func (p *OutputPort) SetActuator(high bool) error {
	if err := p.gpio.SetPin(p.pins.Actuator, high); err != nil {
		return err
	}
	p.actuator = high
	return nil
}

// ClearFeedback drives the buzzer and all indicators low, unconditionally.
// Every line is written even if an earlier write failed; the first error is returned.
func (p *OutputPort) ClearFeedback() error {
	firstErr := p.SetBuzzer(false)
	for i := range p.pins.Indicators {
		if err := p.gpio.SetPin(p.pins.Indicators[i], false); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.feedback.Indicators[i] = false
	}
	return firstErr
}

// ClearAll drives every output, actuator included, low
func (p *OutputPort) ClearAll() error {
	err := p.ClearFeedback()
	if aerr := p.SetActuator(false); aerr != nil && err == nil {
		err = aerr
	}
	return err
}

// Feedback returns the shadow state of the feedback lines
func (p *OutputPort) Feedback() FeedbackState {
	return p.feedback
}

// ActuatorHigh reports the shadow state of the actuator line
func (p *OutputPort) ActuatorHigh() bool {
	return p.actuator
}

// SensorLine is one digital sensor input
type SensorLine struct {
	Pin    GPIOPin
	Invert bool // active-low sensor
	PullUp bool
}

// SensorPins maps the three sensors to input lines
type SensorPins struct {
	Presence SensorLine
	Moisture SensorLine
	Metallic SensorLine
}

// InputPort samples the sensor lines on demand
type InputPort struct {
	gpio GPIODriver
	pins SensorPins
}

// NewInputPort configures the three sensor lines as inputs
func NewInputPort(gpio GPIODriver, pins SensorPins) (*InputPort, error) {
	if gpio == nil {
		return nil, ErrPinUnset
	}
	for _, line := range [...]SensorLine{pins.Presence, pins.Moisture, pins.Metallic} {
		var err error
		if line.PullUp {
			err = gpio.ConfigureInputPullUp(line.Pin)
		} else {
			err = gpio.ConfigureInputPullDown(line.Pin)
		}
		if err != nil {
			return nil, errors.New("configure input " + utoa(uint32(line.Pin)) + ": " + err.Error())
		}
	}
	return &InputPort{gpio: gpio, pins: pins}, nil
}

// ReadSensors takes one sample of each line in priority order
func (p *InputPort) ReadSensors() (SensorReading, error) {
	var r SensorReading
	var err error
	if r.Presence, err = p.read(p.pins.Presence); err != nil {
		return SensorReading{}, err
	}
	if r.Moisture, err = p.read(p.pins.Moisture); err != nil {
		return SensorReading{}, err
	}
	if r.Metallic, err = p.read(p.pins.Metallic); err != nil {
		return SensorReading{}, err
	}
	return r, nil
}

func (p *InputPort) read(line SensorLine) (bool, error) {
	level, err := p.gpio.GetPin(line.Pin)
	if err != nil {
		return false, err
	}
	return level != line.Invert, nil
}
