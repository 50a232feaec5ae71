package sim

import "strings"

// Frame is one ShowText call
type Frame struct {
	Text   string
	Column uint8
}

// Display records what the firmware writes to the character display
type Display struct {
	// Width is the row length used by Row
	Width int

	// Fail, when set, is returned from every call
	Fail error

	frames []Frame
	clears int
	row    []byte
}

// NewDisplay creates a recording display of the given row width
func NewDisplay(width int) *Display {
	d := &Display{Width: width}
	d.blank()
	return d
}

// ClearAndHome blanks the row
func (d *Display) ClearAndHome() error {
	if d.Fail != nil {
		return d.Fail
	}
	d.clears++
	d.blank()
	return nil
}

// ShowText writes s into the row starting at column, clipped to the width
func (d *Display) ShowText(s string, column uint8) error {
	if d.Fail != nil {
		return d.Fail
	}
	d.frames = append(d.frames, Frame{Text: s, Column: column})
	for i := 0; i < len(s); i++ {
		pos := int(column) + i
		if pos >= len(d.row) {
			break
		}
		d.row[pos] = s[i]
	}
	return nil
}

// Frames returns every ShowText call in order
func (d *Display) Frames() []Frame {
	return d.frames
}

// Last returns the text of the most recent ShowText call
func (d *Display) Last() string {
	if len(d.frames) == 0 {
		return ""
	}
	return d.frames[len(d.frames)-1].Text
}

// Clears returns the number of ClearAndHome calls
func (d *Display) Clears() int {
	return d.clears
}

// Row returns the current row contents without trailing blanks
func (d *Display) Row() string {
	return strings.TrimRight(string(d.row), " ")
}

func (d *Display) blank() {
	if d.Width <= 0 {
		d.Width = 16
	}
	d.row = []byte(strings.Repeat(" ", d.Width))
}
