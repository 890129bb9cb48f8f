package schip

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

type ErrOpCodeUnknown struct {
	OpCode uint16
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=%03X", err.OpCode, err.Pc)
}

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")

// ErrExit is returned once the program executes EXIT (00FD)
var ErrExit = errors.New("the program exited")

// MachineRoutineInterpreter interpretes SYS calls (0nnn)
type MachineRoutineInterpreter func(opCode uint16, cpu *Cpu) error

const (
	DefaultSpeed      int = 700
	MaxSpeed          int = 5000
	MinSpeed          int = 5
	DefaultStackDepth int = 16
	// TimerFrequency is the rate at which the delay and sound timers count down
	TimerFrequency int = 60
)

type Config struct {
	Logger *slog.Logger
	// Random is the source of CXNN
	Random io.Reader
	// StackDepth is the maximum number of nested calls. It is never lower than DefaultStackDepth.
	StackDepth                int
	MachineRoutineInterpreter MachineRoutineInterpreter
}

type Option func(config *Config)

func WithLogger(logger *slog.Logger) Option {
	return func(config *Config) {
		config.Logger = logger
	}
}

func WithRandom(r io.Reader) Option {
	return func(config *Config) {
		config.Random = r
	}
}

func WithStackDepth(depth int) Option {
	return func(config *Config) {
		config.StackDepth = max(depth, DefaultStackDepth)
	}
}

func WithMachineRoutineInterpreter(interpreter MachineRoutineInterpreter) Option {
	return func(config *Config) {
		config.MachineRoutineInterpreter = interpreter
	}
}

// Stack of return addresses with a fixed maximum depth
type Stack struct {
	frames []uint16
	depth  int
}

func newStack(depth int) Stack {
	return Stack{
		frames: make([]uint16, 0, depth),
		depth:  depth,
	}
}

func (s *Stack) push(addr uint16) error {
	if len(s.frames) >= s.depth {
		return ErrStackOverflow
	}
	s.frames = append(s.frames, addr)

	return nil
}

func (s *Stack) pop() (uint16, error) {
	if len(s.frames) == 0 {
		return 0, ErrStackUnderflow
	}
	addr := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	return addr, nil
}

func (s Stack) Len() int {
	return len(s.frames)
}

// Frames returns a copy of the return addresses, oldest first
func (s Stack) Frames() []uint16 {
	return append([]uint16(nil), s.frames...)
}

// SCHIP CPU
type Cpu struct {
	Memory *Memory
	// V 8-bit registers
	V [16]byte
	// I 16-bit register (12-bit usable)
	I uint16
	// Program counter
	Pc uint16
	// Stack
	Stack Stack
	// Flags is the persisted register bank (FX75/FX85)
	Flags [16]byte

	// Delay and sound timers. They are decremented by the presentation side
	// while the CPU reads and writes them.
	dt atomic.Uint32
	st atomic.Uint32

	Screen *Framebuffer
	Keypad *Keypad

	cycles atomic.Uint64

	// copy of the loaded program, used by Reset
	program []byte

	logger                    *slog.Logger
	random                    io.Reader
	machineRoutineInterpreter MachineRoutineInterpreter

	// execMu makes instructions, Reset and LoadProgram mutually exclusive
	execMu sync.Mutex

	mu        sync.Mutex
	driver    *driver
	lastError error
	speedInHz int
}

func NewCpu(memory *Memory, opts ...Option) *Cpu {
	config := &Config{
		Logger:     slog.Default(),
		Random:     rand.Reader,
		StackDepth: DefaultStackDepth,
	}
	for _, opt := range opts {
		opt(config)
	}

	loadCharactersInto(memory)

	return &Cpu{
		Memory: memory,

		V:     [16]byte{},
		I:     0,
		Pc:    startOfProgram,
		Stack: newStack(config.StackDepth),
		Flags: [16]byte{},

		Screen: NewFramebuffer(),
		Keypad: NewKeypad(),

		logger:                    config.Logger,
		random:                    config.Random,
		machineRoutineInterpreter: config.MachineRoutineInterpreter,

		speedInHz: DefaultSpeed,
	}
}

func (cpu *Cpu) DelayTimer() byte {
	return byte(cpu.dt.Load())
}

func (cpu *Cpu) SoundTimer() byte {
	return byte(cpu.st.Load())
}

func (cpu *Cpu) IsSoundTimerActive() bool {
	return cpu.SoundTimer() > 0
}

func (cpu *Cpu) IsDelayTimerActive() bool {
	return cpu.DelayTimer() > 0
}

// Tick counts both timers down by one, stopping at zero.
// It is meant to be called TimerFrequency times per second, from any goroutine.
func (cpu *Cpu) Tick() {
	countDown(&cpu.dt)
	countDown(&cpu.st)
}

func countDown(timer *atomic.Uint32) {
	for {
		v := timer.Load()
		if v == 0 || timer.CompareAndSwap(v, v-1) {
			return
		}
	}
}

func (cpu *Cpu) Cycles() uint64 {
	return cpu.cycles.Load()
}

func (cpu *Cpu) SpeedInHz() int {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	return cpu.speedInHz
}

// Snapshot returns a copy of the screen, safe to use while the CPU runs
func (cpu *Cpu) Snapshot() (Screen, ScreenSettings) {
	return cpu.Screen.Snapshot()
}

// Err returns the error that halted the CPU, if any
func (cpu *Cpu) Err() error {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	return cpu.lastError
}

// LoadProgram loads the program into memory and resets the CPU.
// On error the CPU is left untouched.
func (cpu *Cpu) LoadProgram(program []byte) error {
	if cpu.IsRunning() {
		return ErrAlreadyRunning
	}

	cpu.execMu.Lock()
	defer cpu.execMu.Unlock()

	// a loop may have been attached while waiting for the lock
	if cpu.IsRunning() {
		return ErrAlreadyRunning
	}

	if len(program) > MEMORY_SIZE-startOfProgram {
		return ErrProgramDoesNotFitIntoMemory
	}
	cpu.program = append([]byte(nil), program...)
	cpu.reset()

	return nil
}

// Reset puts the CPU back into its power-on state and reloads the last program.
// It cannot be used while the CPU is running.
func (cpu *Cpu) Reset() error {
	if cpu.IsRunning() {
		return ErrAlreadyRunning
	}

	cpu.execMu.Lock()
	defer cpu.execMu.Unlock()

	if cpu.IsRunning() {
		return ErrAlreadyRunning
	}
	cpu.reset()

	return nil
}

// reset must be called with execMu held
func (cpu *Cpu) reset() {
	cpu.Memory.reset()
	if cpu.program != nil {
		// The size was validated when the program was first loaded
		_ = cpu.Memory.LoadProgram(cpu.program)
	}

	cpu.V = [16]byte{}
	cpu.I = 0
	cpu.Pc = startOfProgram
	cpu.Stack = newStack(cpu.Stack.depth)
	cpu.Flags = [16]byte{}
	cpu.dt.Store(0)
	cpu.st.Store(0)
	cpu.cycles.Store(0)

	cpu.Keypad.Reset()
	cpu.Screen.SetResolution(SmallScreen)

	cpu.mu.Lock()
	cpu.lastError = nil
	cpu.mu.Unlock()
}

// Step runs a single instruction. It cannot be used while the CPU is running.
func (cpu *Cpu) Step() error {
	if cpu.IsRunning() {
		return ErrAlreadyRunning
	}

	cpu.execMu.Lock()
	defer cpu.execMu.Unlock()

	if cpu.IsRunning() {
		return ErrAlreadyRunning
	}

	return cpu.stepLocked()
}

// step runs one instruction on behalf of the execution loop
func (cpu *Cpu) step() error {
	cpu.execMu.Lock()
	defer cpu.execMu.Unlock()

	return cpu.stepLocked()
}

func (cpu *Cpu) stepLocked() error {
	if err := cpu.Err(); err != nil {
		return err
	}

	if err := cpu.executeNextInstruction(); err != nil {
		cpu.mu.Lock()
		cpu.lastError = err
		cpu.mu.Unlock()

		return err
	}
	cpu.cycles.Add(1)

	return nil
}

func (cpu *Cpu) executeNextInstruction() error {
	pc := cpu.Pc

	var opCode uint16
	opCode |= uint16(cpu.Memory.Read(pc+0)) << 8
	opCode |= uint16(cpu.Memory.Read(pc+1)) << 0
	cpu.Pc = (pc + 2) & addressMask

	return cpu.executeInstruction(opCode)
}

func (cpu *Cpu) unknownOpCode(opCode uint16) error {
	return ErrOpCodeUnknown{
		OpCode: opCode,
		Pc:     (cpu.Pc - 2) & addressMask,
	}
}

// persistRegisters copies every V register into the flag bank
func (cpu *Cpu) persistRegisters() {
	cpu.Flags = cpu.V
}

// restoreRegisters copies the flag bank back into the V registers
func (cpu *Cpu) restoreRegisters() {
	cpu.V = cpu.Flags
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
