package port

import "ember/mcu"

// TickSource is the periodic interrupt source driving the scheduling
// tick. Two implementations exist and they are mutually exclusive: the
// build configuration selects exactly one, never both, never neither.
type TickSource interface {
	// Configure arms the hardware and registers tick as the interrupt
	// handler. The caller guarantees interrupts are globally disabled
	// for the duration, so a partially configured source cannot fire.
	Configure(m *mcu.Machine, tick func())

	// Disarm masks the source's interrupts, returning it to idle.
	Disarm(m *mcu.Machine)

	// RateHz returns the achieved tick rate, valid after Configure. The
	// achieved rate equals the requested rate only when the hardware
	// divides evenly; each implementation documents which side it errs on.
	RateHz() uint32
}

// TimerTick drives the tick from the compare-match timer. The comparator
// is computed with integer arithmetic: truncating it shortens the period,
// so the achieved rate lands at or above the requested one (16 MHz at a
// 1000 Hz request gives 1041 Hz). The error is deliberate and exposed
// through RateHz rather than hidden. A comparator wider than the 8-bit
// register is written low byte only, as the hardware register would
// take it.
type TimerTick struct {
	clockHz   uint32
	requestHz uint32
	achieved  uint32
}

// NewTimerTick creates a timer-compare tick source for the given CPU
// clock and requested tick rate.
func NewTimerTick(clockHz, requestHz uint32) *TimerTick {
	return &TimerTick{clockHz: clockHz, requestHz: requestHz}
}

func (t *TimerTick) Configure(m *mcu.Machine, tick func()) {
	if t.requestHz == 0 {
		panic("port: zero tick rate")
	}
	compare := t.clockHz / t.requestHz

	// Only 8 bits of comparator, so the fixed prescale does the rest.
	compare /= mcu.TimerPrescale
	if compare == 0 {
		// The requested rate exceeds clock/prescale; no comparator
		// value can reach it. Build misconfiguration, trap.
		panic("port: tick rate unreachable from timer prescale")
	}

	t.achieved = t.clockHz / (mcu.TimerPrescale * compare)

	// Compare match is inclusive: a comparator of n fires every n+1
	// counts.
	compare--

	m.SetVector(mcu.IRQTimer0Compare, func(*mcu.Machine) { tick() })
	m.ConfigureTimer0Compare(byte(compare))
}

func (t *TimerTick) Disarm(m *mcu.Machine) {
	m.MaskTimer0Interrupts()
}

func (t *TimerTick) RateHz() uint32 { return t.achieved }

// WatchdogTick drives the tick from the watchdog timer in interrupt-only
// mode. The watchdog offers a fixed menu of timeouts, so the achieved
// rate is whatever the chosen timeout gives, not independently tunable.
type WatchdogTick struct {
	requestHz uint32
	timeout   mcu.WatchdogTimeout
	achieved  uint32
}

// NewWatchdogTick creates a watchdog tick source for the requested rate.
func NewWatchdogTick(requestHz uint32) *WatchdogTick {
	return &WatchdogTick{requestHz: requestHz}
}

// chooseWatchdogTimeout picks the shortest fixed timeout whose period is
// at least the requested one, so the achieved rate never exceeds the
// requested rate. Rates are whole hertz, so the slowest expressible
// request is 1 Hz and the one-second timeout always satisfies it; the
// longer menu entries are never selected.
func chooseWatchdogTimeout(requestHz uint32) mcu.WatchdogTimeout {
	if requestHz == 0 {
		panic("port: zero tick rate")
	}
	periodMs := 1000 / requestHz
	for _, t := range mcu.WatchdogTimeouts() {
		if t.Milliseconds() >= periodMs {
			return t
		}
	}
	return mcu.WDTO1S
}

func (w *WatchdogTick) Configure(m *mcu.Machine, tick func()) {
	w.timeout = chooseWatchdogTimeout(w.requestHz)
	w.achieved = 1000 / w.timeout.Milliseconds()

	m.SetVector(mcu.IRQWatchdog, func(*mcu.Machine) { tick() })
	m.WatchdogInterruptEnable(w.timeout)
}

func (w *WatchdogTick) Disarm(m *mcu.Machine) {
	m.WatchdogDisable()
}

func (w *WatchdogTick) RateHz() uint32 { return w.achieved }

// Timeout returns the timeout constant chosen by Configure.
func (w *WatchdogTick) Timeout() mcu.WatchdogTimeout { return w.timeout }
