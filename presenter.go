package schip

import (
	"context"
	"time"
)

// Presenter is the periodic side of the console: it counts the timers down,
// renders the screen and drives the buzzer, TimerFrequency times per second.
type Presenter struct {
	Cpu     *Cpu
	Display Display
	Buzzer  Buzzer
	// Interval between frames, defaults to 1/TimerFrequency
	Interval time.Duration

	playing bool
}

func NewPresenter(cpu *Cpu, display Display, buzzer Buzzer) *Presenter {
	return &Presenter{
		Cpu:      cpu,
		Display:  display,
		Buzzer:   buzzer,
		Interval: time.Second / time.Duration(TimerFrequency),
	}
}

// Boot initializes the display and the buzzer
func (p *Presenter) Boot() error {
	if err := p.Display.Boot(); err != nil {
		return err
	}

	return p.Buzzer.Boot()
}

// Run presents frames until ctx is done or the display fails
func (p *Presenter) Run(ctx context.Context) error {
	if err := p.Boot(); err != nil {
		return err
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	defer p.Buzzer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Frame(); err != nil {
				return err
			}
		}
	}
}

// Frame runs a single presentation step
func (p *Presenter) Frame() error {
	p.Cpu.Tick()

	if p.Cpu.IsSoundTimerActive() != p.playing {
		p.playing = !p.playing
		if p.playing {
			p.Buzzer.Play()
		} else {
			p.Buzzer.Stop()
		}
	}

	screen, settings := p.Cpu.Snapshot()

	return p.Display.Render(screen, settings)
}
