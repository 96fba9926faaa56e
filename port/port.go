// Package port is the architecture layer that lets a task kernel run on
// the emulated MCU: it builds the initial saved-context image for new
// tasks, moves the full register set between the machine and a task's
// private stack, generates the scheduling tick from one of two hardware
// sources, and hands control between tasks.
//
// The kernel proper (task selection, ready queues, tick accounting) lives
// outside this package and is reached only through the Scheduler
// interface. In the other direction the kernel sees an opaque contract:
// InitTaskStack to lay out a new stack, Start/Stop to arm and disarm the
// tick, and Yield to give up the processor.
package port

import (
	"sync/atomic"

	"ember/mcu"
)

// TaskRef is the one field of a task record this layer may touch: the
// saved stack pointer. It is a capability into kernel-owned state, not a
// view of the whole task record.
type TaskRef interface {
	StackPtr() mcu.Addr
	SetStackPtr(mcu.Addr)
}

// Scheduler is what the external kernel must provide.
type Scheduler interface {
	// SwitchContext selects the next task to run and updates the
	// current-task reference. It runs between a completed context save
	// and the matching restore, with interrupts disabled.
	SwitchContext()

	// IncrementTick advances the kernel's logical clock and reports
	// whether a reschedule interval has elapsed.
	IncrementTick() bool

	// Current returns the stack-pointer capability of whichever task
	// the kernel currently considers installed.
	Current() TaskRef
}

// Config fixes the build-configuration choices: the tick source and the
// scheduling policy. Neither changes after construction.
type Config struct {
	// TickSource is the periodic interrupt source. Exactly one must be
	// supplied; there is no default at this level.
	TickSource TickSource

	// Preemptive selects whether the tick may switch tasks. In
	// cooperative mode the tick only advances the logical clock and
	// switches happen on explicit Yield.
	Preemptive bool
}

// DefaultConfig returns the configuration selected by build tags: the
// timer-compare tick source unless built with "tickwdt", preemptive
// scheduling unless built with "coop".
func DefaultConfig(clockHz, tickHz uint32) Config {
	return Config{
		TickSource: defaultTickSource(clockHz, tickHz),
		Preemptive: defaultPreemptive,
	}
}

// Port binds the context-switch machinery to one machine and one kernel.
type Port struct {
	m          *mcu.Machine
	sched      Scheduler
	src        TickSource
	preemptive bool

	// Achieved tick rate, written once by Start and readable from
	// host-side observers while the machine runs.
	tickRateHz atomic.Uint32

	// Countdown of ticks left in the current one-second window and the
	// elapsed windows. Mutated only with interrupts disabled or from
	// the tick handler, which cannot be interrupted.
	ticksRemaining uint32
	seconds        uint32

	flows   map[mcu.Addr]*flow
	running *flow
	boot    *flow
}

// New creates a port. A missing tick source is a build misconfiguration
// and traps immediately rather than at the first tick.
func New(m *mcu.Machine, sched Scheduler, cfg Config) *Port {
	if cfg.TickSource == nil {
		panic("port: no tick source configured")
	}
	return &Port{
		m:          m,
		sched:      sched,
		src:        cfg.TickSource,
		preemptive: cfg.Preemptive,
		flows:      make(map[mcu.Addr]*flow),
		boot:       newFlow(nil),
	}
}

// Machine returns the machine this port drives.
func (p *Port) Machine() *mcu.Machine { return p.m }

// TickRateHz returns the achieved tick rate. Integer divider arithmetic
// means it can differ from the requested rate: the timer path truncates
// its comparator and can land above, the watchdog path always lands at
// or below. Valid after Start has configured the tick source.
func (p *Port) TickRateHz() uint32 { return p.tickRateHz.Load() }

// TicksRemainingInSec returns how many ticks are left in the current
// one-second window. The tick handler decrements it and resets it to the
// achieved rate when it reaches zero.
func (p *Port) TicksRemainingInSec() uint32 { return p.ticksRemaining }

// Seconds returns how many full one-second tick windows have elapsed.
func (p *Port) Seconds() uint32 { return p.seconds }

// countTick is the per-tick bookkeeping for second-granularity timing.
func (p *Port) countTick() {
	if p.ticksRemaining > 0 {
		p.ticksRemaining--
	}
	if p.ticksRemaining == 0 {
		p.ticksRemaining = p.tickRateHz.Load()
		p.seconds++
	}
}
