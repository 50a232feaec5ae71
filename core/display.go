package core

// Display is the character display collaborator. Calls are synchronous and
// return once the text has been written.
type Display interface {
	// ClearAndHome blanks the display and moves the cursor to the first position
	ClearAndHome() error

	// ShowText writes s on the first row starting at column
	ShowText(s string, column uint8) error
}
