package mcu

import (
	"sync"
	"sync/atomic"
)

// UART is a byte-oriented serial port. The transmit side is a ring the
// host drains; the receive side is a queue the host feeds. Both ends are
// synchronized so a host observer can touch them while the machine runs.
type UART struct {
	mu sync.Mutex
	tx []byte
	rx []byte
}

// WriteByte transmits one byte.
func (u *UART) WriteByte(b byte) {
	u.mu.Lock()
	u.tx = append(u.tx, b)
	u.mu.Unlock()
}

// WriteString transmits a string byte by byte.
func (u *UART) WriteString(s string) {
	u.mu.Lock()
	u.tx = append(u.tx, s...)
	u.mu.Unlock()
}

// DrainTX removes and returns everything transmitted since the last call.
func (u *UART) DrainTX() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.tx) == 0 {
		return nil
	}
	out := u.tx
	u.tx = nil
	return out
}

// FeedRX queues host-side input for the machine to read.
func (u *UART) FeedRX(p []byte) {
	u.mu.Lock()
	u.rx = append(u.rx, p...)
	u.mu.Unlock()
}

// ReadByte returns the next received byte, if any.
func (u *UART) ReadByte() (byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.rx) == 0 {
		return 0, false
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b, true
}

// Pin is a single output pin, observable from the host side.
type Pin struct {
	high atomic.Bool
}

// High drives the pin high.
func (p *Pin) High() { p.high.Store(true) }

// Low drives the pin low.
func (p *Pin) Low() { p.high.Store(false) }

// Toggle inverts the pin. The machine is the only writer.
func (p *Pin) Toggle() { p.high.Store(!p.high.Load()) }

// IsHigh reports the pin state.
func (p *Pin) IsHigh() bool { return p.high.Load() }
