package schip_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guslan/schip"
	"github.com/retroenv/retrogolib/assert"
)

// an endless loop: JP 0x200
var spin = []byte{0x12, 0x00}

func TestRunRejectsInvalidSpeeds(t *testing.T) {
	cpu := newCpu(t, spin)

	assert.True(t, errors.Is(cpu.Run(context.Background(), 0), schip.ErrInvalidSpeed))
	assert.True(t, errors.Is(cpu.Run(context.Background(), -10), schip.ErrInvalidSpeed))
	assert.True(t, errors.Is(cpu.Start(0), schip.ErrInvalidSpeed))
	assert.False(t, cpu.IsRunning())
}

func TestRunUntilCancelled(t *testing.T) {
	cpu := newCpu(t, spin)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, cpu.Run(ctx, 100))
	// the calibration batch runs a full second worth of instructions
	assert.True(t, cpu.Cycles() >= 100)
	assert.NoError(t, cpu.Err())
	assert.False(t, cpu.IsRunning())
}

func TestStartAndStop(t *testing.T) {
	cpu := newCpu(t, spin)

	assert.NoError(t, cpu.Start(1000))
	assert.True(t, cpu.IsRunning())
	assert.Equal(t, 1000, cpu.SpeedInHz())

	assert.True(t, errors.Is(cpu.Start(1000), schip.ErrAlreadyRunning))
	assert.True(t, errors.Is(cpu.Step(), schip.ErrAlreadyRunning))
	assert.True(t, errors.Is(cpu.LoadProgram(spin), schip.ErrAlreadyRunning))

	assert.NoError(t, cpu.Stop())
	assert.False(t, cpu.IsRunning())

	// stopping twice is harmless
	assert.NoError(t, cpu.Stop())

	// and the CPU can be started again
	assert.NoError(t, cpu.Start(1000))
	assert.NoError(t, cpu.Stop())
}

func TestWaitReturnsTheHaltingError(t *testing.T) {
	cpu := newCpu(t, []byte{
		0x60, 0x01,
		0x80, 0x18,
	})

	assert.NoError(t, cpu.Start(100))
	err := cpu.Wait()

	var unknown schip.ErrOpCodeUnknown
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint16(0x8018), unknown.OpCode)
	assert.Equal(t, err, cpu.Err())
	assert.False(t, cpu.IsRunning())
	assert.Equal(t, uint64(1), cpu.Cycles())
}

func TestRunEndsCleanlyOnExit(t *testing.T) {
	cpu := newCpu(t, []byte{
		0x60, 0x01,
		0x00, 0xFD,
	})

	assert.NoError(t, cpu.Run(context.Background(), 10))
	assert.True(t, errors.Is(cpu.Err(), schip.ErrExit))
	assertVxEq(t, "executed", cpu, 0x0, 1)
}

func TestTickWhileRunning(t *testing.T) {
	cpu := newCpu(t, []byte{
		0x60, 0xFF,
		// LD DT, V0; LD ST, V0; LD V1, DT
		0xF0, 0x15,
		0xF0, 0x18,
		0xF1, 0x07,
		0xD0, 0x15,
		0x12, 0x02,
	})

	assert.NoError(t, cpu.Start(schip.MaxSpeed))

	var wg sync.WaitGroup
	badFrames := 0
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			cpu.Tick()
			time.Sleep(100 * time.Microsecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			screen, settings := cpu.Snapshot()
			if len(screen) != settings.Width*settings.Height {
				badFrames++
			}
			cpu.Keypad.Press(byte(i % schip.KeyCount))
			cpu.Keypad.Release(byte(i % schip.KeyCount))
		}
	}()
	wg.Wait()

	assert.Equal(t, 0, badFrames)
	assert.NoError(t, cpu.Stop())
	assert.True(t, cpu.Cycles() > 0)
}

func TestTimersStopAtZero(t *testing.T) {
	cpu := newCpu(t, []byte{
		0x60, 0x02,
		0xF0, 0x15,
		0xF0, 0x18,
	})
	runNCycles(t, cpu, 3)

	cpu.Tick()
	assert.Equal(t, byte(1), cpu.DelayTimer())
	assert.True(t, cpu.IsSoundTimerActive())

	cpu.Tick()
	cpu.Tick()
	assert.Equal(t, byte(0), cpu.DelayTimer())
	assert.Equal(t, byte(0), cpu.SoundTimer())
	assert.False(t, cpu.IsDelayTimerActive())
}

// instructionGate is a SYS routine that counts how many instructions are
// inside it at once and can hold the CPU in the middle of one.
type instructionGate struct {
	active  atomic.Int32
	overlap atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newInstructionGate() *instructionGate {
	return &instructionGate{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *instructionGate) routine(opCode uint16, cpu *schip.Cpu) error {
	if g.active.Add(1) > 1 {
		g.overlap.Store(true)
	}
	defer g.active.Add(-1)

	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release

	return nil
}

func TestStopWaitsForTheLoop(t *testing.T) {
	gate := newInstructionGate()
	cpu := newCpu(t, []byte{
		0x01, 0x23,
		0x12, 0x00,
	}, schip.WithMachineRoutineInterpreter(gate.routine))

	assert.NoError(t, cpu.Start(10))
	<-gate.entered

	stopped := make(chan error, 1)
	go func() {
		stopped <- cpu.Stop()
	}()
	// give Stop the time to cancel the loop
	time.Sleep(20 * time.Millisecond)

	// the loop is still inside an instruction
	assert.True(t, cpu.IsRunning())
	assert.True(t, errors.Is(cpu.Start(10), schip.ErrAlreadyRunning))
	assert.True(t, errors.Is(cpu.Step(), schip.ErrAlreadyRunning))
	assert.True(t, errors.Is(cpu.Reset(), schip.ErrAlreadyRunning))
	assert.True(t, errors.Is(cpu.LoadProgram(spin), schip.ErrAlreadyRunning))

	close(gate.release)
	assert.NoError(t, <-stopped)
	assert.False(t, cpu.IsRunning())
	assert.False(t, gate.overlap.Load())

	assert.NoError(t, cpu.Reset())
}

func TestConcurrentStepsAreSerialized(t *testing.T) {
	gate := newInstructionGate()
	close(gate.release)
	cpu := newCpu(t, []byte{
		0x01, 0x23,
		0x12, 0x00,
	}, schip.WithMachineRoutineInterpreter(gate.routine))

	var wg sync.WaitGroup
	failed := atomic.Int32{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := cpu.Step(); err != nil {
					failed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), failed.Load())
	assert.False(t, gate.overlap.Load())
	assert.Equal(t, uint64(200), cpu.Cycles())
}
