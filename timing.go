package schip

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrInvalidSpeed = errors.New("the speed must be a positive number of instructions per second")
var ErrAlreadyRunning = errors.New("the CPU is already running")

// driver is a single run of the execution loop
type driver struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (d *driver) finished() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// IsRunning reports whether the execution loop is active
func (cpu *Cpu) IsRunning() bool {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	return cpu.driver != nil && !cpu.driver.finished()
}

func (cpu *Cpu) attach(ctx context.Context, speedInHz int) (*driver, context.Context, error) {
	if speedInHz <= 0 {
		return nil, nil, ErrInvalidSpeed
	}

	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	if cpu.driver != nil && !cpu.driver.finished() {
		return nil, nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	cpu.driver = &driver{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	cpu.speedInHz = speedInHz

	return cpu.driver, ctx, nil
}

// Run executes instructions at speedInHz until ctx is done or the program fails.
// A program that exits through 00FD makes Run return nil.
func (cpu *Cpu) Run(ctx context.Context, speedInHz int) error {
	d, ctx, err := cpu.attach(ctx, speedInHz)
	if err != nil {
		return err
	}

	d.err = cpu.loop(ctx, speedInHz)
	d.cancel()
	close(d.done)

	return d.err
}

// Start runs the CPU in the background at speedInHz
func (cpu *Cpu) Start(speedInHz int) error {
	d, ctx, err := cpu.attach(context.Background(), speedInHz)
	if err != nil {
		return err
	}

	go func(d *driver) {
		d.err = cpu.loop(ctx, speedInHz)
		d.cancel()
		close(d.done)
	}(d)

	return nil
}

// Stop halts the background loop and waits for it.
// Returns the error that stopped the program, if any.
// The CPU counts as running until the loop has really returned.
func (cpu *Cpu) Stop() error {
	cpu.mu.Lock()
	d := cpu.driver
	cpu.mu.Unlock()

	if d == nil {
		return nil
	}

	d.cancel()
	<-d.done

	cpu.mu.Lock()
	if cpu.driver == d {
		cpu.driver = nil
	}
	cpu.mu.Unlock()

	return d.err
}

// Wait blocks until the background loop ends on its own or is stopped
func (cpu *Cpu) Wait() error {
	cpu.mu.Lock()
	d := cpu.driver
	cpu.mu.Unlock()

	if d == nil {
		return nil
	}

	<-d.done

	return d.err
}

func (cpu *Cpu) loop(ctx context.Context, speedInHz int) error {
	delay, err := cpu.calibrate(ctx, speedInHz)
	if err != nil {
		return cpu.halted(err)
	}
	cpu.logger.Debug("calibrated the CPU", slog.Int("speed", speedInHz), slog.Duration("delay", delay))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if delay > 0 {
			timer.Reset(delay)
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if err := cpu.step(); err != nil {
			return cpu.halted(err)
		}
	}
}

// calibrate runs a full second worth of instructions as fast as possible and
// returns the pause needed after each one so that the batch would last a second.
// The instructions are really executed.
func (cpu *Cpu) calibrate(ctx context.Context, speedInHz int) (time.Duration, error) {
	start := time.Now()

	for i := 0; i < speedInHz; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := cpu.step(); err != nil {
			return 0, err
		}
	}

	elapsed := time.Since(start)

	return max((time.Second-elapsed)/time.Duration(speedInHz), 0), nil
}

func (cpu *Cpu) halted(err error) error {
	if errors.Is(err, ErrExit) {
		cpu.logger.Info("program exited", slog.Uint64("cycles", cpu.Cycles()))
		return nil
	}

	cpu.logger.Error("CPU halted", slog.Any("error", err), slog.Uint64("cycles", cpu.Cycles()))

	return err
}
