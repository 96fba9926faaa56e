// Package kernel is a small round-robin task kernel for the emulated
// MCU. It owns task records, the ready order and the logical clock; the
// mechanics of suspending and resuming tasks live in the port layer,
// which reaches back in through the port.Scheduler interface.
package kernel

import (
	"errors"
	"fmt"
	"sync/atomic"

	"ember/mcu"
	"ember/port"
)

const (
	maxTasks = 16

	// MinStackBytes is the smallest stack Spawn accepts: enough for the
	// saved-context frame on an extended-PC part plus headroom for the
	// task itself.
	MinStackBytes = 64
)

var (
	ErrTooManyTasks  = errors.New("kernel: too many tasks")
	ErrStackTooSmall = errors.New("kernel: stack too small")
	ErrOutOfSRAM     = errors.New("kernel: out of SRAM")
	ErrNoTasks       = errors.New("kernel: no tasks to run")
)

// TaskID identifies a task.
type TaskID uint8

// TaskFunc is a task body; it receives the startup parameter and must
// never return.
type TaskFunc = port.TaskFunc

// Task is one task record. The saved stack pointer is the only field the
// port layer ever touches, through the StackPtr capability methods.
type Task struct {
	sp mcu.Addr

	id       TaskID
	name     string
	entry    mcu.Addr
	stackTop mcu.Addr
}

// StackPtr returns the saved stack pointer.
func (t *Task) StackPtr() mcu.Addr { return t.sp }

// SetStackPtr stores a saved stack pointer.
func (t *Task) SetStackPtr(sp mcu.Addr) { t.sp = sp }

// ID returns the task identifier.
func (t *Task) ID() TaskID { return t.id }

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Config sets up the kernel clock.
type Config struct {
	// TickHz is the requested tick rate for the default tick source.
	TickHz uint32

	// TimeSliceTicks is how many ticks elapse before IncrementTick
	// reports a reschedule due. Zero means one: reschedule every tick.
	TimeSliceTicks uint32

	// Port overrides the build-default port configuration when its
	// TickSource is non-nil. Tests use this to pin a tick source and
	// policy regardless of build tags.
	Port port.Config
}

// Kernel is the task kernel for one machine.
type Kernel struct {
	m *mcu.Machine
	p *port.Port

	tasks   [maxTasks]*Task
	count   int
	rr      int
	current *Task

	ticks     atomic.Uint64
	slice     uint32
	sliceLeft uint32

	nextStackTop mcu.Addr
}

// New creates a kernel bound to a machine.
func New(m *mcu.Machine, cfg Config) *Kernel {
	if cfg.TimeSliceTicks == 0 {
		cfg.TimeSliceTicks = 1
	}
	pcfg := cfg.Port
	if pcfg.TickSource == nil {
		pcfg = port.DefaultConfig(m.ClockHz(), cfg.TickHz)
	}

	k := &Kernel{
		m:            m,
		slice:        cfg.TimeSliceTicks,
		sliceLeft:    cfg.TimeSliceTicks,
		nextStackTop: m.SRAMTop(),
	}
	k.p = port.New(m, k, pcfg)
	return k
}

// Spawn creates a task with its own stack region carved from the top of
// SRAM and a fully initialized saved-context image. The first spawned
// task becomes current and runs first.
func (k *Kernel) Spawn(name string, fn TaskFunc, stackBytes int, param uint16) (*Task, error) {
	if k.count >= maxTasks {
		return nil, ErrTooManyTasks
	}
	if stackBytes < MinStackBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrStackTooSmall, stackBytes)
	}
	if int(k.nextStackTop) < stackBytes {
		return nil, ErrOutOfSRAM
	}

	top := k.nextStackTop
	k.nextStackTop = top - mcu.Addr(stackBytes)

	entry := k.p.RegisterTask(fn)
	t := &Task{
		id:       TaskID(k.count),
		name:     name,
		entry:    entry,
		stackTop: top,
	}
	t.sp = k.p.InitStack(top, entry, param)

	k.tasks[k.count] = t
	k.count++
	if k.current == nil {
		k.current = t
	}
	return t, nil
}

// Start disables interrupts, arms the tick source and hands control to
// the first task. It does not return under normal operation; the error
// covers only the no-tasks case, detected before anything is armed.
func (k *Kernel) Start() error {
	if k.count == 0 {
		return ErrNoTasks
	}
	k.m.Cli()
	k.p.Start()
	return nil // unreachable; port.Start traps rather than return
}

// Stop disarms the tick source. The current task keeps running until it
// yields; nothing reschedules it afterwards.
func (k *Kernel) Stop() { k.p.Stop() }

// Yield lets the calling task give up the processor.
func (k *Kernel) Yield() { k.p.Yield() }

// Ticks returns the logical tick count. Safe to read from host-side
// observers while the machine runs.
func (k *Kernel) Ticks() uint64 { return k.ticks.Load() }

// TickRateHz returns the achieved tick rate, valid once Start has
// configured the tick source.
func (k *Kernel) TickRateHz() uint32 { return k.p.TickRateHz() }

// Seconds returns elapsed full tick-rate windows.
func (k *Kernel) Seconds() uint32 { return k.p.Seconds() }

// Machine returns the machine this kernel runs on.
func (k *Kernel) Machine() *mcu.Machine { return k.m }

// TaskCount returns the number of spawned tasks.
func (k *Kernel) TaskCount() int { return k.count }

// SwitchContext selects the next task round robin and repoints the
// current-task reference. Called by the port with a completed context
// save and interrupts disabled.
func (k *Kernel) SwitchContext() {
	if k.count == 0 {
		return
	}
	k.rr = (k.rr + 1) % k.count
	k.current = k.tasks[k.rr]
}

// IncrementTick advances the logical clock and reports whether the time
// slice has run out.
func (k *Kernel) IncrementTick() bool {
	k.ticks.Add(1)
	k.sliceLeft--
	if k.sliceLeft == 0 {
		k.sliceLeft = k.slice
		return true
	}
	return false
}

// Current returns the stack-pointer capability of the current task.
func (k *Kernel) Current() port.TaskRef { return k.current }
