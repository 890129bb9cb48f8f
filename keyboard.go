package schip

import "sync"

const KeyCount = 16

type KeyboardState [KeyCount]bool

// Keypad tracks the 16 logical keys of the console.
// Key events usually arrive from a UI goroutine while the CPU reads the state.
type Keypad struct {
	mu    sync.Mutex
	state KeyboardState
	// last key that went down
	last byte
	// number of keys currently down
	held int
}

func NewKeypad() *Keypad {
	return &Keypad{}
}

// Press marks k as down. Repeated presses of a held key are ignored.
func (kb *Keypad) Press(k byte) {
	if k >= KeyCount {
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if kb.state[k] {
		return
	}
	kb.state[k] = true
	kb.last = k
	kb.held++
}

// Release marks k as up. Releasing a key that is not down is ignored.
func (kb *Keypad) Release(k byte) {
	if k >= KeyCount {
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if !kb.state[k] {
		return
	}
	kb.state[k] = false
	kb.held--
}

func (kb *Keypad) IsPressed(k byte) bool {
	if k >= KeyCount {
		return false
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.state[k]
}

// GetPressed returns the last key pressed if any key is still held.
// The held key does not need to be the last one pressed.
func (kb *Keypad) GetPressed() (byte, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.last, kb.held > 0
}

func (kb *Keypad) Get() KeyboardState {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.state
}

func (kb *Keypad) Reset() {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.state = KeyboardState{}
	kb.last = 0
	kb.held = 0
}

// KeyboardLayout maps every logical key to the characters that trigger it
type KeyboardLayout [KeyCount][]rune

// Arrow keys and space have no rune; frontends map them on their own.
var DefaultKeyboardLayout = KeyboardLayout{
	0x0: {'x'},
	0x1: {'1'},
	0x2: {'2'},
	0x3: {'3'},
	0x4: {'q'},
	0x5: {'w'},
	0x6: {'e'},
	0x7: {'a'},
	0x8: {'s'},
	0x9: {'d'},
	0xA: {'z'},
	0xB: {'c'},
	0xC: {'4'},
	0xD: {'r'},
	0xE: {'f'},
	0xF: {'v'},
}

// LookupMap inverts a layout into a rune to key map
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := map[rune]byte{}
	for k, runes := range layout {
		for _, r := range runes {
			m[r] = byte(k)
		}
	}

	return m
}

// Set presses and releases every key to match state
func (kb *Keypad) Set(state KeyboardState) {
	for k, down := range state {
		if down {
			kb.Press(byte(k))
		} else {
			kb.Release(byte(k))
		}
	}
}

// StateOf reads a physical keyboard through a lookup map.
// A key is down when any of the physical keys mapped to it is down.
func StateOf[K comparable](lookup map[K]byte, isDown func(K) bool) KeyboardState {
	var state KeyboardState
	for physical, k := range lookup {
		if k < KeyCount && isDown(physical) {
			state[k] = true
		}
	}

	return state
}
