package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/guslan/schip"
	"github.com/guslan/schip/window"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	config := window.DefaultConfig()

	flag.IntVar(&config.Speed, "speed", config.Speed, fmt.Sprintf("Speed in instructions per second, in the range [%d, %d].", schip.MinSpeed, schip.MaxSpeed))
	flag.IntVar(&config.Scale, "scale", config.Scale, "Size in the window of a low resolution pixel.")
	debug := flag.Bool("debug", false, "Show debug information.")
	flag.Parse()

	if *debug {
		logLevel.Set(slog.LevelDebug)
	}

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}
	config.Speed = min(max(config.Speed, schip.MinSpeed), schip.MaxSpeed)
	config.Scale = max(config.Scale, 1)

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	cpu := schip.NewCpu(schip.NewMemory())
	if err := cpu.LoadProgram(program); err != nil {
		log.Fatalln(err)
	}
	config.Title = fmt.Sprintf("schip - %s", flag.Arg(0))

	if err := window.Run(cpu, config); err != nil {
		slog.Error("The program stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
