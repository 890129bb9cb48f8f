package schip

import (
	"io"
	"os"
	"sync"
)

// Display abstraction for a display
type Display interface {
	// Boot initializes the component
	Boot() error
	// Render
	Render(Screen, ScreenSettings) error
}

// DummyDisplay is a display that does nothing
type DummyDisplay struct {
}

func NewDummyDisplay() *DummyDisplay {
	return &DummyDisplay{}
}

func (d DummyDisplay) Boot() error {
	return nil
}

func (d DummyDisplay) Render(screen Screen, settings ScreenSettings) error {
	return nil
}

// InMemoryDisplay keeps the last frame it was given
type InMemoryDisplay struct {
	mu       sync.Mutex
	screen   Screen
	settings ScreenSettings
	frames   int
}

func NewInMemoryDisplay() *InMemoryDisplay {
	return &InMemoryDisplay{
		screen:   newScreen(SmallScreen),
		settings: SmallScreen,
	}
}

func (d *InMemoryDisplay) Boot() error {
	return nil
}

func (d *InMemoryDisplay) Render(screen Screen, settings ScreenSettings) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.screen = screen
	d.settings = settings
	d.frames++

	return nil
}

// Last returns the last rendered frame and how many frames were rendered
func (d *InMemoryDisplay) Last() (Screen, ScreenSettings, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.screen, d.settings, d.frames
}

const ESC = 0x1B

type TerminalDisplay struct {
	terminal        io.Writer
	OnChar, OffChar string
	// the high resolution mode is drawn with one character per pixel
	OnCharHigh, OffCharHigh string
}

func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayWithOutput(os.Stdout)
}

func NewTerminalDisplayWithOutput(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{
		terminal:    out,
		OnChar:      "##",
		OffChar:     "  ",
		OnCharHigh:  "#",
		OffCharHigh: " ",
	}
}

// Boot implements Display.
func (disp *TerminalDisplay) Boot() error {
	_, err := disp.terminal.Write([]byte{
		// Move cursor do start
		ESC, '[', '1', 'H',
		// clear the terminal
		ESC, '[', '0', 'J',
	})

	return err
}

func (disp *TerminalDisplay) Render(screen Screen, settings ScreenSettings) error {
	on, off := disp.OnChar, disp.OffChar
	if settings.Width > SmallScreen.Width {
		on, off = disp.OnCharHigh, disp.OffCharHigh
	}

	buff := make([]byte, 0, settings.Width*settings.Height*len(on)+settings.Height*2+64)
	buff = append(buff, ESC, '[', '1', 'H')
	for i, b := range screen {
		if b > 0 {
			buff = append(buff, on...)
		} else {
			buff = append(buff, off...)
		}

		if (i+1)%settings.Width == 0 {
			buff = append(buff, '|', '\r', '\n')
		}
	}

	_, err := disp.terminal.Write(buff)
	return err
}
