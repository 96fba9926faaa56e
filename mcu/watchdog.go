package mcu

// WatchdogTimeout selects one of the fixed watchdog periods. The watchdog
// runs from its own oscillator; only this fixed menu of timeouts exists.
type WatchdogTimeout uint8

const (
	WDTO15MS WatchdogTimeout = iota
	WDTO30MS
	WDTO60MS
	WDTO120MS
	WDTO250MS
	WDTO500MS
	WDTO1S
	WDTO2S
	WDTO4S
	WDTO8S
)

var wdtoMillis = [...]uint32{15, 30, 60, 120, 250, 500, 1000, 2000, 4000, 8000}

// Milliseconds returns the nominal period of the timeout constant.
func (t WatchdogTimeout) Milliseconds() uint32 { return wdtoMillis[t] }

// WatchdogTimeouts lists every available timeout, shortest first.
func WatchdogTimeouts() []WatchdogTimeout {
	out := make([]WatchdogTimeout, len(wdtoMillis))
	for i := range out {
		out[i] = WatchdogTimeout(i)
	}
	return out
}

// watchdog models the free-running watchdog in interrupt-only mode. The
// reset function is never armed here; once enabled it rolls over and
// latches a fresh interrupt every period.
type watchdog struct {
	enabled bool
	timeout WatchdogTimeout
	acc     uint64
}

// WatchdogInterruptEnable arms the watchdog to fire only its interrupt,
// not its reset, at the given fixed timeout. The caller must have
// interrupts globally disabled.
func (m *Machine) WatchdogInterruptEnable(t WatchdogTimeout) {
	m.wdt.timeout = t
	m.wdt.acc = 0
	m.wdt.enabled = true
}

// WatchdogDisable stops the watchdog entirely.
func (m *Machine) WatchdogDisable() {
	m.wdt.enabled = false
	m.pending[IRQWatchdog] = false
}

// WatchdogEnabled reports whether the watchdog is armed.
func (m *Machine) WatchdogEnabled() bool { return m.wdt.enabled }

func (w *watchdog) advance(m *Machine, cycles uint64) {
	if !w.enabled {
		return
	}
	period := uint64(m.cfg.ClockHz) * uint64(w.timeout.Milliseconds()) / 1000
	if period == 0 {
		period = 1
	}
	w.acc += cycles
	for w.acc >= period {
		w.acc -= period
		m.pending[IRQWatchdog] = true
	}
}
