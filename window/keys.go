package window

import (
	"github.com/guslan/schip"
	"github.com/hajimehoshi/ebiten/v2"
)

var runeKeys = map[rune]ebiten.Key{
	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD,
	'e': ebiten.KeyE, 'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH,
	'i': ebiten.KeyI, 'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL,
	'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO, 'p': ebiten.KeyP,
	'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX,
	'y': ebiten.KeyY, 'z': ebiten.KeyZ,
	'0': ebiten.Key0, '1': ebiten.Key1, '2': ebiten.Key2, '3': ebiten.Key3,
	'4': ebiten.Key4, '5': ebiten.Key5, '6': ebiten.Key6, '7': ebiten.Key7,
	'8': ebiten.Key8, '9': ebiten.Key9,
	' ': ebiten.KeySpace,
}

// arrows and space mirror W/A/S/D and E of the default layout
var extraKeys = map[ebiten.Key]byte{
	ebiten.KeyArrowUp:    0x5,
	ebiten.KeyArrowLeft:  0x7,
	ebiten.KeyArrowDown:  0x8,
	ebiten.KeyArrowRight: 0x9,
	ebiten.KeySpace:      0x6,
}

func keyMap(layout schip.KeyboardLayout) map[ebiten.Key]byte {
	keys := make(map[ebiten.Key]byte, schip.KeyCount+len(extraKeys))
	for k, v := range extraKeys {
		keys[k] = v
	}
	for r, v := range schip.LookupMap(layout) {
		if k, ok := runeKeys[r]; ok {
			keys[k] = v
		}
	}

	return keys
}
