package schip

import "errors"

var ErrProgramDoesNotFitIntoMemory = errors.New("the program does not fit into memory")

const startOfProgram = 0x200

const MEMORY_SIZE = 4096

// addressMask keeps every computed address inside the 4K address space
const addressMask = MEMORY_SIZE - 1

const (
	smallFontOffset = 0x00
	smallFontHeight = 5
	largeFontOffset = 0x50
	largeFontHeight = 10
)

type Memory [MEMORY_SIZE]byte

// NewMemory creates a memory of 4096 bytes with both fonts installed
func NewMemory() *Memory {
	m := Memory([MEMORY_SIZE]byte{})
	loadCharactersInto(&m)

	return &m
}

func (mem Memory) Clone() *Memory {
	m := Memory([MEMORY_SIZE]byte{})

	copy(m[:], mem[:])

	return &m
}

func (mem Memory) IsEqual(other Memory) bool {
	return mem == other
}

// Read returns the byte at addr, wrapping addr into the address space
func (mem *Memory) Read(addr uint16) byte {
	return mem[addr&addressMask]
}

// Write stores b at addr, wrapping addr into the address space
func (mem *Memory) Write(addr uint16, b byte) {
	mem[addr&addressMask] = b
}

// LoadProgram loads the program at the appropriate location.
// Nothing is written when the program is too large.
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MEMORY_SIZE-startOfProgram {
		return ErrProgramDoesNotFitIntoMemory
	}

	clear(mem[startOfProgram:])
	copy(mem[startOfProgram:], program)

	return nil
}

// reset zeroes the whole memory and reinstalls the fonts
func (mem *Memory) reset() {
	clear(mem[:])
	loadCharactersInto(mem)
}

func loadCharactersInto(mem *Memory) {
	copy(mem[smallFontOffset:], smallFont)
	copy(mem[largeFontOffset:], largeFont)
}

var smallFont = []byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// 8x10 glyphs used by the high resolution mode
var largeFont = []byte{
	// 0
	0x7C, 0x82, 0x82, 0x82, 0x82, 0x82, 0x82, 0x82, 0x7C, 0x00,
	// 1
	0x08, 0x18, 0x38, 0x08, 0x08, 0x08, 0x08, 0x08, 0x3C, 0x00,
	// 2
	0x7C, 0x82, 0x02, 0x02, 0x04, 0x18, 0x20, 0x40, 0xFE, 0x00,
	// 3
	0x7C, 0x82, 0x02, 0x02, 0x3C, 0x02, 0x02, 0x82, 0x7C, 0x00,
	// 4
	0x84, 0x84, 0x84, 0x84, 0xFE, 0x04, 0x04, 0x04, 0x04, 0x00,
	// 5
	0xFE, 0x80, 0x80, 0x80, 0xFC, 0x02, 0x02, 0x82, 0x7C, 0x00,
	// 6
	0x7C, 0x82, 0x80, 0x80, 0xFC, 0x82, 0x82, 0x82, 0x7C, 0x00,
	// 7
	0xFE, 0x02, 0x04, 0x08, 0x10, 0x20, 0x20, 0x20, 0x20, 0x00,
	// 8
	0x7C, 0x82, 0x82, 0x82, 0x7C, 0x82, 0x82, 0x82, 0x7C, 0x00,
	// 9
	0x7C, 0x82, 0x82, 0x82, 0x7E, 0x02, 0x02, 0x82, 0x7C, 0x00,
	// A
	0x10, 0x28, 0x44, 0x82, 0x82, 0xFE, 0x82, 0x82, 0x82, 0x00,
	// B
	0xFC, 0x82, 0x82, 0x82, 0xFC, 0x82, 0x82, 0x82, 0xFC, 0x00,
	// C
	0x7C, 0x82, 0x80, 0x80, 0x80, 0x80, 0x80, 0x82, 0x7C, 0x00,
	// D
	0xFC, 0x82, 0x82, 0x82, 0x82, 0x82, 0x82, 0x82, 0xFC, 0x00,
	// E
	0xFE, 0x80, 0x80, 0x80, 0xF8, 0x80, 0x80, 0x80, 0xFE, 0x00,
	// F
	0xFE, 0x80, 0x80, 0x80, 0xF8, 0x80, 0x80, 0x80, 0x80, 0x00,
}
