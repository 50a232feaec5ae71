//go:build rp2040

package main

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"sortbin/core"
)

// One-shot pulse program. The state machine runs at 1MHz, so one cycle is one
// microsecond. Command word: pulse width in cycles minus pulseOverhead.
//
// The pin is high for the set instruction, x+1 passes of the jmp and the final
// set, i.e. x+2 cycles. A word is pushed back when the line is low again.
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 32).Encode(),   // 1: out x, 32
		asm.Set(rp2pio.SetDestPins, 1).Encode(), // 2: set pins, 1
		// hold:
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(), // 3: jmp x--, 3
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 4: set pins, 0
		asm.Push(false, true).Encode(),           // 5: push block
		// .wrap
	}
}

const (
	pulsePIOOrigin = 0 // jump addresses assume offset 0
	pulseOverhead  = 2
	pioTickHz      = 1000000
)

// PIOPulser generates actuator pulses in a PIO state machine, off the CPU's
// instruction timing. It still blocks until the pulse has completed.
type PIOPulser struct {
	pio *rp2pio.PIO
	sm  rp2pio.StateMachine
	pin machine.Pin
}

// NewPIOPulser loads the pulse program on PIO0 and binds it to pin
func NewPIOPulser(pin core.GPIOPin, clock core.ClockConfig) (*PIOPulser, error) {
	if clock.CPUHz%pioTickHz != 0 || clock.CPUHz/pioTickHz > 0xffff {
		return nil, errors.New("pio pulser: cpu clock not a whole MHz")
	}

	p := &PIOPulser{
		pio: rp2pio.PIO0,
		pin: machine.Pin(pin),
	}
	p.sm = p.pio.StateMachine(0)
	if !p.sm.TryClaim() {
		return nil, errors.New("pio pulser: state machine in use")
	}

	program := buildPulseProgram()
	offset, err := p.pio.AddProgram(program, pulsePIOOrigin)
	if err != nil {
		return nil, errors.New("pio pulser: " + err.Error())
	}

	p.pin.Configure(machine.PinConfig{Mode: p.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(p.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetInShift(false, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(uint16(clock.CPUHz/pioTickHz), 0)

	// Init first, pin directions after
	p.sm.Init(offset, cfg)
	p.sm.SetPindirsConsecutive(p.pin, 1, true)
	p.sm.SetPinsConsecutive(p.pin, 1, false)
	p.sm.SetEnabled(true)

	return p, nil
}

// Pulse emits one high pulse of widthUS and waits for the program to report it done
func (p *PIOPulser) Pulse(widthUS uint32) error {
	if widthUS < pulseOverhead {
		return core.ErrPulseWidthRange
	}
	for p.sm.IsTxFIFOFull() {
	}
	p.sm.TxPut(widthUS - pulseOverhead)

	for p.sm.IsRxFIFOEmpty() {
	}
	p.sm.RxGet()
	return nil
}
