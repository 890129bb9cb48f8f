package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/schip"
)

// ScanCode is a raylib key code
type ScanCode = int32

// arrows and space mirror W/A/S/D and E of the default layout
var extraKeys = map[ScanCode]byte{
	rl.KeyUp:    0x5,
	rl.KeyLeft:  0x7,
	rl.KeyDown:  0x8,
	rl.KeyRight: 0x9,
	rl.KeySpace: 0x6,
}

// runeToScanCode maps the characters used by keyboard layouts to raylib keys.
// raylib uses the ASCII code of the upper case letter or digit.
func runeToScanCode(r rune) (ScanCode, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return rl.KeyA + ScanCode(r-'a'), true
	case r >= 'A' && r <= 'Z':
		return rl.KeyA + ScanCode(r-'A'), true
	case r >= '0' && r <= '9':
		return rl.KeyZero + ScanCode(r-'0'), true
	case r == ' ':
		return rl.KeySpace, true
	}

	return 0, false
}

func keyboardLookupMap(layout schip.KeyboardLayout) map[ScanCode]byte {
	lookup := make(map[ScanCode]byte, schip.KeyCount+len(extraKeys))
	for sc, k := range extraKeys {
		lookup[sc] = k
	}
	for r, k := range schip.LookupMap(layout) {
		if sc, ok := runeToScanCode(r); ok {
			lookup[sc] = k
		}
	}

	return lookup
}
