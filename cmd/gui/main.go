package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/guslan/schip"
	"github.com/guslan/schip/gui"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	autostart := flag.Bool("start", false, "Starts the console automatically if there is a program loaded (defaults = false).")
	debug := flag.Bool("debug", false, "Show debug information for the console (defaults = false).")
	initialSpeed := flag.Int("speed", schip.DefaultSpeed, fmt.Sprintf("The starting speed of the CPU in Hz. It has to be in the range [%d, %d] (defaults = %d).", schip.MinSpeed, schip.MaxSpeed, schip.DefaultSpeed))

	flag.Parse()

	if *debug {
		logLevel.Set(slog.LevelDebug)
	}

	app := gui.NewApp(func(config *gui.AppConfig) {
		config.Speed = *initialSpeed
	})

	if flag.NArg() > 0 {
		if err := app.Load(flag.Arg(0)); err != nil {
			slog.Error("Error loading program", slog.Any("error", err))
		}
	}

	if err := app.Run(*autostart); err != nil {
		slog.Error("The console stopped with an error", slog.Any("error", err))
	}
}
