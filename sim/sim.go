// Package sim is the host side of the simulator: a framebuffer console
// for the machine's UART output, a desktop window or headless runner to
// drive it, and debug views of the running kernel.
//
// The machine itself advances only when task code steps it, so the host
// loop never touches machine internals directly; it consumes the
// mutex-guarded UART and the atomic LED pin.
package sim

import (
	"image/color"
	"os"
	"time"

	"github.com/k0kubun/pp/v3"

	"ember/kernel"
	"ember/mcu"
)

// Sim couples one machine and kernel with their host-side views.
type Sim struct {
	board   Board
	m       *mcu.Machine
	k       *kernel.Kernel
	fb      *Framebuffer
	console *Console
	log     Logger
	start   time.Time
}

func New(board Board, k *kernel.Kernel) *Sim {
	fb := NewFramebuffer(320, 240)
	return &Sim{
		board:   board,
		m:       k.Machine(),
		k:       k,
		fb:      fb,
		console: NewConsole(fb),
		log:     NewLogger(os.Stdout),
		start:   time.Now(),
	}
}

func (s *Sim) Kernel() *kernel.Kernel    { return s.k }
func (s *Sim) Framebuffer() *Framebuffer { return s.fb }

// FeedInput queues bytes on the machine's UART receive side.
func (s *Sim) FeedInput(p []byte) { s.m.UART().FeedRX(p) }

// step runs one host frame: drain pending UART output into the console
// and refresh the LED indicator.
func (s *Sim) step() error {
	if out := s.m.UART().DrainTX(); len(out) > 0 {
		if _, err := s.console.Write(out); err != nil {
			return err
		}
		if err := s.console.Flush(); err != nil {
			return err
		}
	}
	s.drawLED()
	return nil
}

func (s *Sim) drawLED() {
	c := color.RGBA{R: 0x20, G: 0x28, B: 0x20}
	if s.m.LED().IsHigh() {
		c = color.RGBA{G: 0xFF}
	}
	w := int16(s.fb.width)
	_ = s.console.d.FillRectangle(w-10, 2, 8, 8, c)
}

// Snapshot is the host-visible state for debug dumps. It holds only
// values safe to read while the machine runs.
type Snapshot struct {
	Board      string
	ClockHz    uint32
	TickHz     uint32
	Ticks      uint64
	LEDHigh    bool
	UptimeWall time.Duration
}

func (s *Sim) Snapshot() Snapshot {
	return Snapshot{
		Board:      s.board.Name,
		ClockHz:    s.board.ClockHz,
		TickHz:     s.board.TickHz,
		Ticks:      s.k.Ticks(),
		LEDHigh:    s.m.LED().IsHigh(),
		UptimeWall: time.Since(s.start).Round(time.Millisecond),
	}
}

// DumpState pretty-prints a snapshot to stderr.
func (s *Sim) DumpState() {
	p := pp.New()
	p.SetOutput(os.Stderr)
	p.Println(s.Snapshot())
}
