//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/hd44780"

	"sortbin/config"
)

// LCD drives an HD44780 character display in 4-bit mode
type LCD struct {
	dev hd44780.Device
}

// NewLCD configures the display pins and initialises the controller
func NewLCD(cfg config.DisplayConfig) (*LCD, error) {
	data := make([]machine.Pin, len(cfg.Data))
	for i, name := range cfg.Data {
		data[i] = machine.Pin(config.MustPin(name))
	}
	rw := machine.NoPin
	if cfg.RW != "" {
		rw = machine.Pin(config.MustPin(cfg.RW))
	}

	dev, err := hd44780.NewGPIO4Bit(data, machine.Pin(config.MustPin(cfg.Enable)), machine.Pin(config.MustPin(cfg.RS)), rw)
	if err != nil {
		return nil, errors.New("hd44780: " + err.Error())
	}
	err = dev.Configure(hd44780.Config{
		Width:  int16(cfg.Width),
		Height: int16(cfg.Height),
	})
	if err != nil {
		return nil, errors.New("hd44780 configure: " + err.Error())
	}
	return &LCD{dev: dev}, nil
}

// ClearAndHome blanks the display and homes the cursor
func (l *LCD) ClearAndHome() error {
	l.dev.ClearDisplay()
	l.dev.SetCursor(0, 0)
	return nil
}

// ShowText writes s on the first row starting at column
func (l *LCD) ShowText(s string, column uint8) error {
	l.dev.SetCursor(column, 0)
	if _, err := l.dev.Write([]byte(s)); err != nil {
		return err
	}
	return l.dev.Display()
}
