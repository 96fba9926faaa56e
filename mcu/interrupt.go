package mcu

import "time"

// IRQ identifies an interrupt source.
type IRQ uint8

const (
	// IRQTimer0Compare fires on a timer 0 compare match.
	IRQTimer0Compare IRQ = iota
	// IRQWatchdog fires on watchdog timeout when the watchdog is in
	// interrupt mode.
	IRQWatchdog

	numIRQs
)

// SetVector installs the handler for an interrupt source. A nil handler
// leaves the interrupt pending but undelivered, like an empty vector slot.
func (m *Machine) SetVector(irq IRQ, fn func(*Machine)) {
	m.vectors[irq] = fn
}

// Pending reports whether an interrupt is latched but not yet delivered.
func (m *Machine) Pending(irq IRQ) bool { return m.pending[irq] }

// Step advances the machine by the given number of CPU cycles. Timer and
// watchdog expiry latch a pending interrupt; if the global interrupt flag
// is set, pending interrupts are delivered here, in vector order, on the
// caller's flow of control.
//
// This is the only place interrupts fire. Code that never advances cycles
// is never preempted, just as straight-line code on the real part is never
// preempted between cli and sei.
func (m *Machine) Step(cycles uint64) {
	m.cycles += cycles
	m.timer.advance(m, cycles)
	m.wdt.advance(m, cycles)
	m.deliverPending()
	if m.cfg.RealTime {
		m.pace()
	}
}

func (m *Machine) deliverPending() {
	for irq := IRQ(0); irq < numIRQs; irq++ {
		if !m.pending[irq] || m.vectors[irq] == nil {
			continue
		}
		if m.sreg&FlagI == 0 {
			return
		}
		m.pending[irq] = false

		// Hardware clears the interrupt flag on entry and the final
		// reti sets it again. The handler runs in between; anything
		// it leaves in SREG is overwritten by the reti, matching the
		// real exit sequence.
		m.sreg &^= FlagI
		m.vectors[irq](m)
		m.sreg |= FlagI
	}
}

// pace sleeps so that emulated time does not run ahead of wall time.
func (m *Machine) pace() {
	if m.paceStart.IsZero() {
		m.paceStart = time.Now()
		m.paceBase = m.cycles
		return
	}
	simulated := time.Duration((m.cycles - m.paceBase) * uint64(time.Second) / uint64(m.cfg.ClockHz))
	ahead := simulated - time.Since(m.paceStart)
	if ahead > 2*time.Millisecond {
		time.Sleep(ahead)
	}
}
