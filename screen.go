package schip

import "sync"

// Screen representation, one byte per pixel (0 = off, 1 = on), row major
type Screen []byte

// ScreenSettings for the console
// The console switches between 64x32 and 128x64 at runtime.
type ScreenSettings struct {
	Width, Height int
}

var SmallScreen = ScreenSettings{
	Width:  64,
	Height: 32,
}

var LargeScreen = ScreenSettings{
	Width:  128,
	Height: 64,
}

// scrollColumns is how far 00FB/00FC move every row
const scrollColumns = 4

// Framebuffer owns the pixels of the console.
// The pixels and the settings are guarded together because a resolution switch changes both.
type Framebuffer struct {
	mu       sync.RWMutex
	settings ScreenSettings
	pixels   Screen
}

func NewFramebuffer() *Framebuffer {
	return &Framebuffer{
		settings: SmallScreen,
		pixels:   newScreen(SmallScreen),
	}
}

func newScreen(settings ScreenSettings) Screen {
	return make(Screen, settings.Width*settings.Height)
}

// Snapshot returns a copy of the current pixels together with the resolution they belong to
func (fb *Framebuffer) Snapshot() (Screen, ScreenSettings) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	screen := make(Screen, len(fb.pixels))
	copy(screen, fb.pixels)

	return screen, fb.settings
}

func (fb *Framebuffer) Settings() ScreenSettings {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	return fb.settings
}

func (fb *Framebuffer) Clear() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	clear(fb.pixels)
}

// SetResolution reallocates the pixels, which discards whatever was drawn
func (fb *Framebuffer) SetResolution(settings ScreenSettings) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.settings = settings
	fb.pixels = newScreen(settings)
}

// DrawSprite XORs a sprite onto the screen at (x, y).
// Every row holds width bits, most significant bit first. The start position wraps around the
// screen but the sprite itself is clipped at the right and bottom edges.
// Returns whether a pixel was turned off.
func (fb *Framebuffer) DrawSprite(x, y byte, width int, rows []uint16) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	w, h := fb.settings.Width, fb.settings.Height
	startX := int(x) % w
	startY := int(y) % h

	collision := false
	for row, data := range rows {
		py := startY + row
		if py >= h {
			break
		}

		for bit := 0; bit < width; bit++ {
			px := startX + bit
			if px >= w {
				break
			}

			if data&(1<<(width-1-bit)) == 0 {
				continue
			}

			t := py*w + px
			if fb.pixels[t] != 0 {
				fb.pixels[t] = 0
				collision = true
			} else {
				fb.pixels[t] = 1
			}
		}
	}

	return collision
}

// ScrollDown moves every row n rows down, blanking the rows at the top
func (fb *Framebuffer) ScrollDown(n int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	shift := min(n, fb.settings.Height) * fb.settings.Width
	copy(fb.pixels[shift:], fb.pixels[:len(fb.pixels)-shift])
	clear(fb.pixels[:shift])
}

// ScrollRight moves every row 4 pixels right; pixels leaving the row are lost
func (fb *Framebuffer) ScrollRight() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	w := fb.settings.Width
	for y := 0; y < fb.settings.Height; y++ {
		row := fb.pixels[y*w : (y+1)*w]
		copy(row[scrollColumns:], row[:w-scrollColumns])
		clear(row[:scrollColumns])
	}
}

// ScrollLeft moves every row 4 pixels left; pixels leaving the row are lost
func (fb *Framebuffer) ScrollLeft() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	w := fb.settings.Width
	for y := 0; y < fb.settings.Height; y++ {
		row := fb.pixels[y*w : (y+1)*w]
		copy(row, row[scrollColumns:])
		clear(row[w-scrollColumns:])
	}
}

// Pixel reports whether the pixel at (x, y) is on. Out of range coordinates are off.
func (fb *Framebuffer) Pixel(x, y int) bool {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	if x < 0 || y < 0 || x >= fb.settings.Width || y >= fb.settings.Height {
		return false
	}

	return fb.pixels[y*fb.settings.Width+x] != 0
}
