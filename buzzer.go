package schip

import "sync/atomic"

// Buzzer is told when the sound timer starts and stops.
// Producing the actual sound is left to the implementation.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

type DummyBuzzer struct {
	isPlaying atomic.Bool
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.isPlaying.Store(true)
}

// Stop implements Buzzer
func (b *DummyBuzzer) Stop() {
	b.isPlaying.Store(false)
}

func (b *DummyBuzzer) IsPlaying() bool {
	return b.isPlaying.Load()
}
