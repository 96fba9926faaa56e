package port

// The two interrupt entry points. Both share one protocol: save the full
// context, consult the kernel, restore whichever context the kernel now
// calls current, return. The only branch is whether the tick path asks
// for a task switch, and that is fixed by the scheduling policy at build
// configuration time.

// Yield is the manual context switch: task code calls it to give up the
// processor. It returns when some later switch selects this task again.
func (p *Port) Yield() {
	p.m.PushReturnAddr(p.running.resume)
	p.saveContext()
	p.sched.SwitchContext()
	p.restoreContext()
	p.dispatchReturn()
}

// handleTick is the periodic tick entry, invoked by the machine from
// whichever interrupt source the configuration armed. It must match
// Yield exactly from the SwitchContext call onward; the only difference
// is that the logical clock advances because this entry comes from the
// tick.
func (p *Port) handleTick() {
	p.m.PushReturnAddr(p.running.resume)
	p.saveContext()
	p.countTick()
	due := p.sched.IncrementTick()
	if due && p.preemptive {
		p.sched.SwitchContext()
	}
	p.restoreContext()
	p.dispatchReturn()
}

// Start arms the tick source and transfers control to whatever task the
// kernel has already marked current. It never returns under normal
// operation: the restore-then-return falls into task code, and from then
// on control moves only between tasks. The caller must have interrupts
// globally disabled so the half-configured tick source cannot fire.
func (p *Port) Start() {
	if p.m.InterruptsEnabled() {
		panic("port: Start with interrupts enabled")
	}
	p.src.Configure(p.m, p.handleTick)
	rate := p.src.RateHz()
	p.tickRateHz.Store(rate)
	p.ticksRemaining = rate

	p.running = p.boot
	p.restoreContext()
	p.dispatchReturn()

	// Nothing maps back to the boot flow, so dispatchReturn cannot
	// return. Reaching this point means the context machinery is
	// corrupt; halt rather than continue.
	panic("port: scheduler start returned")
}

// Stop disarms the tick source, returning the hardware to idle. No
// further rescheduling occurs; whatever task is current keeps running
// until it yields on its own.
func (p *Port) Stop() {
	p.src.Disarm(p.m)
}
