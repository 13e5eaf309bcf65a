package tui

import (
	"errors"
	"sync"

	"github.com/mobil-koeln/ojp-sign/internal/display"
)

// Panel is a display.Panel that hands frames to the simulator. Only the
// newest undelivered frame is kept.
type Panel struct {
	frames chan display.Frame

	mu    sync.Mutex
	awake bool
}

// NewPanel creates a panel with an empty frame slot
func NewPanel() *Panel {
	return &Panel{frames: make(chan display.Frame, 1)}
}

// Frames is the channel the model listens on
func (p *Panel) Frames() <-chan display.Frame { return p.frames }

func (p *Panel) Ready() bool { return true }

func (p *Panel) Wake() error {
	p.mu.Lock()
	p.awake = true
	p.mu.Unlock()
	return nil
}

func (p *Panel) Draw(f display.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.awake {
		return errors.New("draw on hibernating panel")
	}
	for {
		select {
		case p.frames <- f:
			return nil
		default:
		}
		// drop the stale frame and retry
		select {
		case <-p.frames:
		default:
		}
	}
}

func (p *Panel) Hibernate() error {
	p.mu.Lock()
	p.awake = false
	p.mu.Unlock()
	return nil
}
