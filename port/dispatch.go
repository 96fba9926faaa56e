package port

import (
	"fmt"

	"ember/mcu"
)

// TaskFunc is a task body. It receives the startup parameter the kernel
// passed when the stack was initialized and must never return; a task
// that falls off its end has nowhere to go, so the dispatcher traps.
type TaskFunc func(param uint16)

// flow is one hardware thread of control: a task body plus the goroutine
// that animates it. Exactly one flow runs at a time; the rest are parked
// on their token channel. A flow is reachable through two code addresses:
// entry, found on a freshly initialized stack, and resume, pushed
// whenever the flow is suspended.
type flow struct {
	fn      TaskFunc
	entry   mcu.Addr
	resume  mcu.Addr
	token   chan struct{}
	started bool
}

func newFlow(fn TaskFunc) *flow {
	return &flow{fn: fn, token: make(chan struct{}, 1)}
}

// RegisterTask attaches a task body at a fresh code address and returns
// the address for the kernel to bake into the task's initial stack.
func (p *Port) RegisterTask(fn TaskFunc) mcu.Addr {
	f := newFlow(fn)
	f.entry = p.m.ReserveCode()
	f.resume = p.m.ReserveCode()
	p.flows[f.entry] = f
	p.flows[f.resume] = f
	return f.entry
}

// dispatchReturn is the return instruction that ends every entry point:
// pop the return address off the freshly restored stack and transfer
// control to the flow it names. Returning into the running flow is the
// no-switch case and simply falls through to the caller. Otherwise the
// target is started (entry address, first run) or unparked (resume
// address), and the caller's goroutine parks until some later restore
// returns into it.
func (p *Port) dispatchReturn() {
	addr := p.m.PopReturnAddr()
	f := p.flows[addr]
	if f == nil {
		panic(fmt.Sprintf("port: return to unmapped address %#x", addr))
	}
	if f == p.running {
		return
	}

	prev := p.running
	p.running = f
	if addr == f.entry {
		if f.started {
			panic("port: task entered twice")
		}
		f.started = true
		go p.runTask(f)
	} else {
		if !f.started {
			panic("port: resume of a task that never started")
		}
		f.token <- struct{}{}
	}

	<-prev.token
}

// runTask is the cold start of a task flow: the startup parameter is
// recovered from the calling convention's parameter registers, which the
// restore just loaded from the initial stack image.
func (p *Port) runTask(f *flow) {
	param := uint16(p.m.Reg(24)) | uint16(p.m.Reg(25))<<8
	f.fn(param)
	panic("port: task function returned")
}
