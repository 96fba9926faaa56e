package mcu

// TimerPrescale is the fixed clock divider feeding timer 0. The 8-bit
// comparator cannot reach scheduler-rate periods from the CPU clock
// directly, so the prescaler is not configurable here, matching the
// single prescale choice the original hardware setup uses.
const TimerPrescale uint32 = 1024

// timer0 is an 8-bit timer in clear-on-compare-match mode. Only the
// pieces the tick generator needs are modeled: the compare register, the
// compare-match interrupt enable, and the prescaled counting itself.
type timer0 struct {
	enabled bool
	compare byte
	acc     uint64
}

// ConfigureTimer0Compare programs the comparator, selects the /1024
// prescale with clear-on-match, and enables the compare interrupt. The
// caller must have interrupts globally disabled, so the half-configured
// timer cannot fire.
func (m *Machine) ConfigureTimer0Compare(compare byte) {
	m.timer.compare = compare
	m.timer.acc = 0
	m.timer.enabled = true
}

// MaskTimer0Interrupts disables all timer 0 interrupts.
func (m *Machine) MaskTimer0Interrupts() {
	m.timer.enabled = false
	m.pending[IRQTimer0Compare] = false
}

// Timer0Compare returns the programmed comparator value.
func (m *Machine) Timer0Compare() byte { return m.timer.compare }

func (t *timer0) advance(m *Machine, cycles uint64) {
	if !t.enabled {
		return
	}
	period := uint64(TimerPrescale) * (uint64(t.compare) + 1)
	t.acc += cycles
	for t.acc >= period {
		t.acc -= period
		m.pending[IRQTimer0Compare] = true
	}
}
