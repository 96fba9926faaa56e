package port

import (
	"testing"

	"ember/mcu"
)

// TestTimerTickScenario is the worked example: 16 MHz clock, 1000 Hz
// requested, /1024 prescale. The comparator truncates to 15, 14 is
// programmed, and the achieved rate is 1041 Hz.
func TestTimerTickScenario(t *testing.T) {
	m := mcu.New(mcu.Config{ClockHz: 16_000_000, SRAMBytes: 2048})
	src := NewTimerTick(16_000_000, 1000)

	src.Configure(m, func() {})

	if got := m.Timer0Compare(); got != 14 {
		t.Fatalf("Timer0Compare() = %d, want 14", got)
	}
	if got := src.RateHz(); got != 1041 {
		t.Fatalf("RateHz() = %d, want 1041", got)
	}
}

// TestTimerTickExactDivision: when the requested rate divides the
// prescaled clock exactly, the achieved rate equals the requested rate.
func TestTimerTickExactDivision(t *testing.T) {
	cases := []struct {
		clockHz uint32
		tickHz  uint32
	}{
		{8_192_000, 1000},
		{8_192_000, 500},
		{16_384_000, 1000},
		{1_048_576, 64},
	}
	for _, c := range cases {
		m := mcu.New(mcu.Config{ClockHz: c.clockHz, SRAMBytes: 2048})
		src := NewTimerTick(c.clockHz, c.tickHz)
		src.Configure(m, func() {})

		if got := src.RateHz(); got != c.tickHz {
			t.Fatalf("clock %d, tick %d: RateHz() = %d, want %d", c.clockHz, c.tickHz, got, c.tickHz)
		}
		compare := uint32(m.Timer0Compare()) + 1
		if got := c.clockHz / (mcu.TimerPrescale * compare); got != src.RateHz() {
			t.Fatalf("clock %d, tick %d: clock/(prescale*compare) = %d, want %d",
				c.clockHz, c.tickHz, got, src.RateHz())
		}
	}
}

func TestTimerTickFiresHandler(t *testing.T) {
	m := mcu.New(mcu.Config{ClockHz: 16_000_000, SRAMBytes: 2048})
	src := NewTimerTick(16_000_000, 1000)

	ticks := 0
	src.Configure(m, func() { ticks++ })
	m.Sei()

	m.Step(1024 * 15)
	if ticks != 1 {
		t.Fatalf("ticks = %d after one period, want 1", ticks)
	}

	src.Disarm(m)
	m.Step(1024 * 15 * 2)
	if ticks != 1 {
		t.Fatalf("ticks = %d after disarm, want 1", ticks)
	}
}

func TestChooseWatchdogTimeout(t *testing.T) {
	cases := []struct {
		requestHz uint32
		want      mcu.WatchdogTimeout
	}{
		{1000, mcu.WDTO15MS},
		{66, mcu.WDTO15MS},
		{50, mcu.WDTO30MS},
		{10, mcu.WDTO120MS},
		{4, mcu.WDTO250MS},
		{1, mcu.WDTO1S},
	}
	for _, c := range cases {
		if got := chooseWatchdogTimeout(c.requestHz); got != c.want {
			t.Fatalf("chooseWatchdogTimeout(%d) = %v, want %v", c.requestHz, got, c.want)
		}
	}
}

// TestWatchdogTickRateNeverExceedsRequested: the achieved rate is fixed
// by the chosen timeout constant and stays at or below the request.
func TestWatchdogTickRateNeverExceedsRequested(t *testing.T) {
	for _, requestHz := range []uint32{1, 2, 5, 10, 33, 66, 100, 500, 1000} {
		m := mcu.New(mcu.Config{ClockHz: 16_000_000, SRAMBytes: 2048})
		src := NewWatchdogTick(requestHz)
		src.Configure(m, func() {})

		if got := src.RateHz(); got > requestHz {
			t.Fatalf("request %d Hz: RateHz() = %d, want <= request", requestHz, got)
		}
		if got := 1000 / src.Timeout().Milliseconds(); got != src.RateHz() {
			t.Fatalf("request %d Hz: RateHz() = %d, want %d from timeout", requestHz, src.RateHz(), got)
		}
	}
}

func TestWatchdogTickArmAndDisarm(t *testing.T) {
	m := mcu.New(mcu.Config{ClockHz: 16_000_000, SRAMBytes: 2048})
	src := NewWatchdogTick(66)

	ticks := 0
	src.Configure(m, func() { ticks++ })
	if !m.WatchdogEnabled() {
		t.Fatal("watchdog not armed after Configure")
	}
	m.Sei()

	period := uint64(m.ClockHz()) * 15 / 1000
	m.Step(period)
	if ticks != 1 {
		t.Fatalf("ticks = %d after one period, want 1", ticks)
	}

	src.Disarm(m)
	if m.WatchdogEnabled() {
		t.Fatal("watchdog still armed after Disarm")
	}
}

func TestCountTickSecondWindow(t *testing.T) {
	m := mcu.New(mcu.Config{ClockHz: 16_000_000, SRAMBytes: 2048})
	p := New(m, newFakeSched(), Config{TickSource: NewTimerTick(m.ClockHz(), 1000)})
	p.tickRateHz.Store(3)
	p.ticksRemaining = 3

	for i := 0; i < 3; i++ {
		p.countTick()
	}
	if got := p.Seconds(); got != 1 {
		t.Fatalf("Seconds() = %d after one window, want 1", got)
	}
	if got := p.TicksRemainingInSec(); got != 3 {
		t.Fatalf("TicksRemainingInSec() = %d after reset, want 3", got)
	}

	p.countTick()
	if got := p.TicksRemainingInSec(); got != 2 {
		t.Fatalf("TicksRemainingInSec() = %d, want 2", got)
	}
}
