/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guslan/schip"
	"golang.org/x/sync/errgroup"
)

// the screen owns stdout, so only errors are logged unless -debug is given
var logLevel = new(slog.LevelVar)

func init() {
	logLevel.Set(slog.LevelError)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	speed := flag.Int("speed", schip.DefaultSpeed, fmt.Sprintf("Speed in instructions per second, in the range [%d, %d].", schip.MinSpeed, schip.MaxSpeed))
	hold := flag.Duration("hold", schip.DefaultKeyHold, "How long a typed key stays pressed.")
	device := flag.String("tty", "/dev/tty", "The terminal to read the keyboard from.")
	debug := flag.Bool("debug", false, "Log debug information to stderr.")
	flag.Parse()

	if *debug {
		logLevel.Set(slog.LevelDebug)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "must provide the path to a rom as an argument")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), min(max(*speed, schip.MinSpeed), schip.MaxSpeed), *device, *hold); err != nil {
		slog.Error("the console stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(path string, speed int, device string, hold time.Duration) error {
	program, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cpu := schip.NewCpu(schip.NewMemory())
	if err := cpu.LoadProgram(program); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	kb := schip.NewTerminalKeyboard()
	kb.Device = device
	kb.Hold = hold
	if err := kb.Boot(); err != nil {
		return fmt.Errorf("opening the terminal: %w", err)
	}
	defer kb.Close()

	presenter := schip.NewPresenter(cpu, schip.NewTerminalDisplay(), schip.NewDummyBuzzer())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return cpu.Run(ctx, speed)
	})
	g.Go(func() error {
		return presenter.Run(ctx)
	})
	g.Go(func() error {
		err := kb.Listen(ctx, cpu.Keypad)
		if errors.Is(err, schip.ErrInterrupted) {
			cancel()
			return nil
		}
		return err
	})

	return g.Wait()
}
