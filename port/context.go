package port

import "ember/mcu"

// Context transfer. The two halves below are exact mirror images and are
// the only code that touches the saved-register layout; every entry point
// goes through them so the ordering invariant lives in one place.
//
// Save pushes r0 first, then the status register with interrupts disabled
// in between the read and the push: a tick arriving after the registers
// are already on the stack would otherwise re-enter the save and stack
// the register image twice. Extended-PC parts additionally carry RAMPZ
// and EIND. r1 is pushed and then cleared because everything downstream
// assumes it reads zero.

// saveContext pushes the full register set onto the running task's stack
// and publishes the resulting stack pointer through the current-task
// reference. Interrupts are disabled from the flags push onward.
func (p *Port) saveContext() {
	m := p.m

	m.Push(m.Reg(0))
	flags := m.SREG()
	m.Cli()
	m.Push(flags)
	if m.ExtendedPC() {
		m.Push(m.RAMPZ())
		m.Push(m.EIND())
	}
	m.Push(m.Reg(1))
	m.SetReg(1, 0)
	for r := 2; r < mcu.NumRegs; r++ {
		m.Push(m.Reg(r))
	}

	p.sched.Current().SetStackPtr(m.SP())
}

// restoreContext reads the stack pointer from the current-task reference,
// which the scheduler may have repointed since the matching save, installs
// it, and pops every register in the exact reverse order of saveContext.
// Popping the flags re-enables interrupts if they were enabled at save
// time.
func (p *Port) restoreContext() {
	m := p.m

	m.SetSP(p.sched.Current().StackPtr())
	for r := mcu.NumRegs - 1; r >= 2; r-- {
		m.SetReg(r, m.Pop())
	}
	m.SetReg(1, m.Pop())
	if m.ExtendedPC() {
		m.SetEIND(m.Pop())
		m.SetRAMPZ(m.Pop())
	}
	m.SetSREG(m.Pop())
	m.SetReg(0, m.Pop())
}
