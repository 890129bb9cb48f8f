package window

import (
	"testing"

	"github.com/guslan/schip"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrogolib/assert"
)

func TestKeyMap(t *testing.T) {
	keys := keyMap(schip.DefaultKeyboardLayout)

	assert.Equal(t, byte(0x0), keys[ebiten.KeyX])
	assert.Equal(t, byte(0xC), keys[ebiten.Key4])
	assert.Equal(t, byte(0xF), keys[ebiten.KeyV])
	assert.Equal(t, byte(0x5), keys[ebiten.KeyArrowUp])
	assert.Equal(t, byte(0x6), keys[ebiten.KeySpace])

	_, ok := keys[ebiten.KeyP]
	assert.False(t, ok)
}

func TestArrowKeepsItsAliasPressed(t *testing.T) {
	keys := keyMap(schip.DefaultKeyboardLayout)
	state := schip.StateOf(keys, func(k ebiten.Key) bool { return k == ebiten.KeyArrowUp })

	assert.True(t, state[0x5])
	for k, down := range state {
		if k != 0x5 {
			assert.False(t, down)
		}
	}
}

func TestRenderConvertsToRGBA(t *testing.T) {
	config := DefaultConfig()
	g := NewGame(schip.NewCpu(schip.NewMemory()), config)

	fb := schip.NewFramebuffer()
	fb.DrawSprite(0, 0, 8, []uint16{0x80})
	screen, settings := fb.Snapshot()

	assert.NoError(t, g.Render(screen, settings))
	assert.Equal(t, 4*64*32, len(g.pixels))
	assert.Equal(t, []byte{config.Foreground.R, config.Foreground.G, config.Foreground.B, config.Foreground.A}, g.pixels[0:4])
	assert.Equal(t, []byte{config.Background.R, config.Background.G, config.Background.B, config.Background.A}, g.pixels[4:8])
	assert.True(t, g.dirty)

	fb.SetResolution(schip.LargeScreen)
	screen, settings = fb.Snapshot()
	assert.NoError(t, g.Render(screen, settings))
	assert.Equal(t, 4*128*64, len(g.pixels))

	assert.True(t, g.Render(screen[:10], settings) != nil)
}

func TestLayoutIsFixed(t *testing.T) {
	g := NewGame(schip.NewCpu(schip.NewMemory()), DefaultConfig())

	w, h := g.Layout(1920, 1080)
	assert.Equal(t, 640, w)
	assert.Equal(t, 320, h)
}

func TestBuzzer(t *testing.T) {
	g := NewGame(schip.NewCpu(schip.NewMemory()), DefaultConfig())

	g.Play()
	assert.True(t, g.beeping)
	g.Stop()
	assert.False(t, g.beeping)
}
