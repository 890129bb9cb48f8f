package gui

import (
	"github.com/guslan/schip"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow

// Boot implements schip.Display and schip.Buzzer.
func (app *ConsoleApp) Boot() error {
	return nil
}

// Render implements schip.Display.
func (app *ConsoleApp) Render(screen schip.Screen, settings schip.ScreenSettings) error {
	app.screen = screen
	app.settings = settings

	return nil
}

// Play implements schip.Buzzer.
func (app *ConsoleApp) Play() {
	app.beeping = true
}

// Stop implements schip.Buzzer.
func (app *ConsoleApp) Stop() {
	app.beeping = false
}

// drawScreen scales either resolution to the same area
func (app *ConsoleApp) drawScreen() {
	w, h := app.settings.Width, app.settings.Height
	size := float32(ScreenWidth) / float32(w)

	rl.DrawRectangle(ScreenPositionX, ScreenPositionY, ScreenWidth, ScreenHeight, ScreenBgColor)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if app.screen[y*w+x] == 0 {
				continue
			}

			rl.DrawRectangleRec(
				rl.NewRectangle(
					ScreenPositionX+size*float32(x),
					ScreenPositionY+size*float32(y),
					size,
					size,
				),
				ScreenPixelColor,
			)
		}
	}
}
