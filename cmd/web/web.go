/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/guslan/schip"
	"github.com/guslan/schip/web"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	port := flag.Int("port", 9999, "The port of the server (default = 9999)")
	speed := flag.Int("speed", schip.DefaultSpeed, fmt.Sprintf("Speed in instructions per second (default = %d)", schip.DefaultSpeed))
	static := flag.String("static", "", "Serve the page from this directory instead of the bundled one")
	autostart := flag.Bool("start", false, "Starts the console right away (default = false)")
	debug := flag.Bool("debug", false, "Show debug information (default = false)")
	flag.Parse()

	if *debug {
		logLevel.Set(slog.LevelDebug)
	}

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	server := web.NewServer(schip.NewMemory(), func(config *web.ServerConfig) {
		config.Speed = min(max(*speed, schip.MinSpeed), schip.MaxSpeed)
		config.StaticDir = *static
	})
	if err := server.LoadProgram(program); err != nil {
		log.Fatalln(err)
	}
	slog.Info("Program loaded", slog.String("path", flag.Arg(0)), slog.Int("size", len(program)))

	if *autostart {
		if err := server.Cpu().Start(min(max(*speed, schip.MinSpeed), schip.MaxSpeed)); err != nil {
			log.Fatalln(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, *port); err != nil {
		slog.Error("the server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
