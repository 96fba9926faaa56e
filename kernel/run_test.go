package kernel

import (
	"sync/atomic"
	"testing"
	"time"

	"ember/port"
)

func waitEvent(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("event %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event %q", want)
	}
}

// TestTwoTaskYieldHandoff runs two real tasks through the full start and
// yield path: the first spawned task runs first with its parameter in
// place, each yield hands the processor to the other task, and register
// state written before a yield is intact after the task is resumed.
func TestTwoTaskYieldHandoff(t *testing.T) {
	m := testMachine()
	k := New(m, Config{TickHz: 1000})

	events := make(chan string, 8)
	aParam := make(chan uint16, 1)
	bRegsIntact := make(chan bool, 1)

	taskA := func(param uint16) {
		aParam <- param
		events <- "A:start"
		k.Yield()
		events <- "A:resumed"
		k.Yield()
		select {}
	}
	taskB := func(uint16) {
		m.SetReg(2, 0xB2)
		m.SetReg(30, 0xBE)
		events <- "B:start"
		k.Yield()
		bRegsIntact <- m.Reg(2) == 0xB2 && m.Reg(30) == 0xBE
		events <- "B:resumed"
		select {}
	}

	if _, err := k.Spawn("A", taskA, 256, 0xABCD); err != nil {
		t.Fatalf("Spawn(A) error: %v", err)
	}
	if _, err := k.Spawn("B", taskB, 256, 0); err != nil {
		t.Fatalf("Spawn(B) error: %v", err)
	}

	go k.Start()

	waitEvent(t, events, "A:start")
	waitEvent(t, events, "B:start")
	waitEvent(t, events, "A:resumed")
	waitEvent(t, events, "B:resumed")

	if got := <-aParam; got != 0xABCD {
		t.Fatalf("task A parameter = %#x, want 0xABCD", got)
	}
	if !<-bRegsIntact {
		t.Fatal("task B registers changed across task A's turn")
	}
}

// TestPreemptiveTickSwitchesTasks: with the preemptive policy a task that
// never yields still loses the processor on a due tick.
func TestPreemptiveTickSwitchesTasks(t *testing.T) {
	m := testMachine()
	k := New(m, Config{
		Port: port.Config{
			TickSource: port.NewTimerTick(m.ClockHz(), 1000),
			Preemptive: true,
		},
	})

	var done atomic.Bool
	bRan := make(chan struct{})

	spin := func(uint16) {
		for !done.Load() {
			m.Step(1024)
		}
		select {}
	}
	taskB := func(uint16) {
		close(bRan)
		spin(0)
	}

	if _, err := k.Spawn("spinner", spin, 256, 0); err != nil {
		t.Fatalf("Spawn(spinner) error: %v", err)
	}
	if _, err := k.Spawn("B", taskB, 256, 0); err != nil {
		t.Fatalf("Spawn(B) error: %v", err)
	}

	go k.Start()

	select {
	case <-bRan:
	case <-time.After(5 * time.Second):
		t.Fatal("second task never preempted in")
	}
	done.Store(true)
}

// TestCooperativeTickNeverPreempts: with the cooperative policy the tick
// advances the clock but a non-yielding task keeps the processor.
func TestCooperativeTickNeverPreempts(t *testing.T) {
	m := testMachine()
	k := New(m, Config{
		Port: port.Config{
			TickSource: port.NewTimerTick(m.ClockHz(), 1000),
			Preemptive: false,
		},
	})

	spun := make(chan struct{})
	bRan := make(chan struct{})

	spin := func(uint16) {
		for k.Ticks() < 50 {
			m.Step(1024)
		}
		close(spun)
		select {}
	}
	taskB := func(uint16) {
		close(bRan)
		select {}
	}

	if _, err := k.Spawn("spinner", spin, 256, 0); err != nil {
		t.Fatalf("Spawn(spinner) error: %v", err)
	}
	if _, err := k.Spawn("B", taskB, 256, 0); err != nil {
		t.Fatalf("Spawn(B) error: %v", err)
	}

	go k.Start()

	select {
	case <-spun:
	case <-time.After(5 * time.Second):
		t.Fatal("spinner never reached 50 ticks")
	}
	select {
	case <-bRan:
		t.Fatal("task scheduled without a yield in cooperative mode")
	default:
	}
	if k.Ticks() < 50 {
		t.Fatalf("Ticks() = %d, want >= 50", k.Ticks())
	}
}

// TestTickRateVisibleToObservers: host-side code reads the achieved
// tick rate while the kernel runs; it must become visible after Start
// without any further coordination.
func TestTickRateVisibleToObservers(t *testing.T) {
	k := New(testMachine(), Config{TickHz: 1000})
	if _, err := spawnIdle(k, "idle"); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	go k.Start()

	deadline := time.After(5 * time.Second)
	for k.TickRateHz() == 0 {
		select {
		case <-deadline:
			t.Fatal("achieved tick rate never published")
		case <-time.After(time.Millisecond):
		}
	}
	if got := k.TickRateHz(); got != 1041 {
		t.Fatalf("TickRateHz() = %d, want 1041", got)
	}
}

// TestStopDisarmsTickSource: after Stop the running task keeps the
// processor and the tick count stops advancing no matter how many cycles
// elapse.
func TestStopDisarmsTickSource(t *testing.T) {
	m := testMachine()
	k := New(m, Config{
		Port: port.Config{
			TickSource: port.NewTimerTick(m.ClockHz(), 1000),
			Preemptive: true,
		},
	})

	frozen := make(chan bool, 1)

	task := func(uint16) {
		for k.Ticks() < 10 {
			m.Step(1024)
		}
		k.Stop()
		before := k.Ticks()
		for i := 0; i < 100; i++ {
			m.Step(16 * 1024)
		}
		frozen <- k.Ticks() == before
		select {}
	}

	if _, err := k.Spawn("only", task, 256, 0); err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	go k.Start()

	select {
	case ok := <-frozen:
		if !ok {
			t.Fatal("tick count advanced after Stop")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("task never reported after Stop")
	}
}
