package schip

import (
	"context"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestTerminalKeyboardDecode(t *testing.T) {
	kb := NewTerminalKeyboard()

	tests := []struct {
		name        string
		input       []byte
		keys        []byte
		interrupted bool
	}{
		{"letters", []byte("x1qV"), []byte{0x0, 0x1, 0x4, 0xF}, false},
		{"space", []byte(" "), []byte{0x6}, false},
		{"unknown", []byte("mp"), []byte{}, false},
		{"arrows", []byte{ESC, '[', 'A', ESC, '[', 'D'}, []byte{0x5, 0x7}, false},
		{"unknown sequence", []byte{ESC, '[', 'Z', 'e'}, []byte{0x6}, false},
		{"ctrl c", []byte{'w', ctrlC, 's'}, []byte{0x5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, interrupted := kb.decode(tt.input)
			assert.Equal(t, tt.keys, keys)
			assert.Equal(t, tt.interrupted, interrupted)
		})
	}
}

func TestTerminalKeyboardRequiresBoot(t *testing.T) {
	kb := NewTerminalKeyboard()

	assert.True(t, kb.Listen(context.Background(), NewKeypad()) != nil)
	assert.NoError(t, kb.Close())
}
