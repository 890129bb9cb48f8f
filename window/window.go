// Package window plays a program in a plain Ebitengine window.
package window

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/guslan/schip"
	"github.com/hajimehoshi/ebiten/v2"
)

// Config of the player window
type Config struct {
	Title string
	// Scale is the size of a low resolution pixel in the window
	Scale int
	// Speed in instructions per second
	Speed      int
	Layout     schip.KeyboardLayout
	Foreground color.RGBA
	Background color.RGBA
}

func DefaultConfig() Config {
	return Config{
		Title:      "schip",
		Scale:      10,
		Speed:      schip.DefaultSpeed,
		Layout:     schip.DefaultKeyboardLayout,
		Foreground: color.RGBA{R: 0xFF, G: 0xCC, B: 0x00, A: 0xFF},
		Background: color.RGBA{R: 0x99, G: 0x66, B: 0x00, A: 0xFF},
	}
}

// Game is an ebiten.Game running a Cpu. It is also the Display and the
// Buzzer of the presenter that drives it once per update.
type Game struct {
	cpu       *schip.Cpu
	presenter *schip.Presenter
	config    Config
	keys      map[ebiten.Key]byte

	// RGBA pixels of the last frame
	pixels   []byte
	settings schip.ScreenSettings
	dirty    bool
	image    *ebiten.Image

	beeping bool
}

func NewGame(cpu *schip.Cpu, config Config) *Game {
	g := &Game{
		cpu:    cpu,
		config: config,
		keys:   keyMap(config.Layout),
	}
	g.presenter = schip.NewPresenter(cpu, g, g)

	return g
}

// Boot implements schip.Display and schip.Buzzer.
func (g *Game) Boot() error {
	return nil
}

// Render implements schip.Display.
func (g *Game) Render(screen schip.Screen, settings schip.ScreenSettings) error {
	if len(screen) != settings.Width*settings.Height {
		return fmt.Errorf("frame of %d pixels for a %dx%d screen", len(screen), settings.Width, settings.Height)
	}

	if g.settings != settings {
		g.settings = settings
		g.pixels = make([]byte, 4*len(screen))
	}

	for i, p := range screen {
		c := g.config.Background
		if p != 0 {
			c = g.config.Foreground
		}
		g.pixels[4*i+0] = c.R
		g.pixels[4*i+1] = c.G
		g.pixels[4*i+2] = c.B
		g.pixels[4*i+3] = c.A
	}
	g.dirty = true

	return nil
}

// Play implements schip.Buzzer.
func (g *Game) Play() {
	g.beeping = true
}

// Stop implements schip.Buzzer.
func (g *Game) Stop() {
	g.beeping = false
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.cpu.Keypad.Set(schip.StateOf(g.keys, ebiten.IsKeyPressed))

	if !g.cpu.IsRunning() {
		if err := g.cpu.Err(); err != nil {
			if errors.Is(err, schip.ErrExit) {
				return ebiten.Termination
			}
			return err
		}
	}

	return g.presenter.Frame()
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.config.Background)
	if g.pixels == nil {
		return
	}

	if g.image == nil || g.image.Bounds().Dx() != g.settings.Width || g.image.Bounds().Dy() != g.settings.Height {
		g.image = ebiten.NewImage(g.settings.Width, g.settings.Height)
		g.dirty = true
	}
	if g.dirty {
		g.image.WritePixels(g.pixels)
		g.dirty = false
	}

	scale := float64(g.config.Scale*schip.SmallScreen.Width) / float64(g.settings.Width)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	screen.DrawImage(g.image, op)
}

// Layout implements ebiten.Game.
// The window keeps its size and both resolutions are scaled into it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.config.Scale * schip.SmallScreen.Width, g.config.Scale * schip.SmallScreen.Height
}

// Run starts the cpu and plays it until the window is closed or the program ends
func Run(cpu *schip.Cpu, config Config) error {
	g := NewGame(cpu, config)

	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(config.Title)
	ebiten.SetTPS(schip.TimerFrequency)

	if err := cpu.Start(config.Speed); err != nil {
		return err
	}
	slog.Info("Playing", slog.Int("speed", config.Speed), slog.Int("scale", config.Scale))

	err := ebiten.RunGame(g)
	stopErr := cpu.Stop()
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err != nil {
		return err
	}
	if errors.Is(stopErr, schip.ErrExit) {
		return nil
	}

	return stopErr
}
