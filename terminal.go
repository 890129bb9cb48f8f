package schip

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode"

	"github.com/pkg/term"
)

// ErrInterrupted is returned by TerminalKeyboard.Listen when Ctrl+C is typed
var ErrInterrupted = errors.New("interrupted from the keyboard")

const (
	ctrlC = 0x03

	// Terminals only report key presses, so a key is released after this long
	DefaultKeyHold = 150 * time.Millisecond
	pollInterval   = 10 * time.Millisecond
)

// arrow keys arrive as ESC [ A..D
var arrowKeys = map[byte]byte{
	'A': 0x5,
	'B': 0x8,
	'C': 0x9,
	'D': 0x7,
}

// TerminalKeyboard feeds a Keypad from a terminal in raw mode
type TerminalKeyboard struct {
	Device string
	Hold   time.Duration
	lookup map[rune]byte
	term   *term.Term
}

func NewTerminalKeyboard() *TerminalKeyboard {
	return NewTerminalKeyboardWithLayout(DefaultKeyboardLayout)
}

func NewTerminalKeyboardWithLayout(layout KeyboardLayout) *TerminalKeyboard {
	lookup := LookupMap(layout)
	lookup[' '] = 0x6

	return &TerminalKeyboard{
		Device: "/dev/tty",
		Hold:   DefaultKeyHold,
		lookup: lookup,
	}
}

// Boot puts the terminal in raw mode
func (kb *TerminalKeyboard) Boot() error {
	t, err := term.Open(kb.Device, term.RawMode)
	if err != nil {
		return err
	}

	if err := t.SetReadTimeout(pollInterval); err != nil {
		t.Restore()
		t.Close()
		return err
	}

	kb.term = t

	return nil
}

// Close restores the terminal
func (kb *TerminalKeyboard) Close() error {
	if kb.term == nil {
		return nil
	}

	defer func() {
		kb.term = nil
	}()

	if err := kb.term.Restore(); err != nil {
		kb.term.Close()
		return err
	}

	return kb.term.Close()
}

// Listen presses and releases keys on the keypad until ctx is done
func (kb *TerminalKeyboard) Listen(ctx context.Context, keypad *Keypad) error {
	if kb.term == nil {
		return errors.New("the terminal keyboard has not been booted")
	}

	var releaseAt [KeyCount]time.Time
	buf := make([]byte, 32)

	for ctx.Err() == nil {
		n, err := kb.term.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		now := time.Now()
		keys, interrupted := kb.decode(buf[:n])
		if interrupted {
			return ErrInterrupted
		}
		for _, k := range keys {
			keypad.Press(k)
			releaseAt[k] = now.Add(kb.Hold)
		}

		for k, at := range releaseAt {
			if !at.IsZero() && now.After(at) {
				keypad.Release(byte(k))
				releaseAt[k] = time.Time{}
			}
		}
	}

	return nil
}

func (kb *TerminalKeyboard) decode(input []byte) ([]byte, bool) {
	keys := make([]byte, 0, len(input))

	for i := 0; i < len(input); i++ {
		b := input[i]
		switch {
		case b == ctrlC:
			return keys, true

		case b == ESC && i+2 < len(input) && input[i+1] == '[':
			if k, ok := arrowKeys[input[i+2]]; ok {
				keys = append(keys, k)
			}
			i += 2

		default:
			if k, ok := kb.lookup[unicode.ToLower(rune(b))]; ok {
				keys = append(keys, k)
			}
		}
	}

	return keys, false
}
