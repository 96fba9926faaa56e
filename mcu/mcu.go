// Package mcu emulates an AVR-class 8-bit microcontroller: a 32-entry
// register file, a status register with a global interrupt-enable bit, a
// 16-bit stack pointer into byte-addressed SRAM, an 8-bit compare-match
// timer, and a watchdog timer.
//
// The emulation is instruction-free. "Code" is Go functions attached at
// synthetic addresses above SRAM; pushes, pops and return-address traffic
// use the same byte layout the real chip would. Interrupts are delivered
// synchronously at cycle-advance points (Step), so there is exactly one
// logical thread of control at any instant.
package mcu

import (
	"fmt"
	"time"
)

// Addr is a byte address in the emulated address space.
type Addr uint16

// FlagI is the global interrupt-enable bit of the status register.
const FlagI byte = 0x80

// codeBase is the first synthetic code address. SRAM must end below it.
const codeBase Addr = 0x8000

// NumRegs is the size of the general-purpose register file.
const NumRegs = 32

// Config selects the emulated part.
type Config struct {
	// ClockHz is the CPU clock feeding the timers.
	ClockHz uint32

	// SRAMBytes is the size of SRAM. Address 0 is the lowest byte.
	SRAMBytes int

	// ExtendedPC emulates parts whose program counter exceeds 16 bits:
	// return addresses take three bytes and the RAMPZ/EIND extension
	// registers become part of the task context.
	ExtendedPC bool

	// RealTime paces Step so that emulated cycles track wall-clock time.
	// Off, the machine runs as fast as the host allows.
	RealTime bool
}

// Machine is one emulated MCU. It is not safe for concurrent use: the
// register file, SRAM and stack pointer belong to whichever flow of
// control currently runs, exactly as on the real chip. The UART and LED
// peripherals are internally synchronized so a host-side observer may
// read them while the machine runs.
type Machine struct {
	cfg Config

	regs  [NumRegs]byte
	sreg  byte
	rampz byte
	eind  byte
	sp    Addr
	sram  []byte

	codeNext Addr

	cycles  uint64
	timer   timer0
	wdt     watchdog
	pending [numIRQs]bool
	vectors [numIRQs]func(*Machine)

	paceStart time.Time
	paceBase  uint64

	uart UART
	led  Pin
}

// New creates a machine. SRAM must fit below the synthetic code space.
func New(cfg Config) *Machine {
	if cfg.SRAMBytes <= 0 || cfg.SRAMBytes > int(codeBase) {
		panic(fmt.Sprintf("mcu: bad SRAM size %d", cfg.SRAMBytes))
	}
	if cfg.ClockHz == 0 {
		panic("mcu: zero clock")
	}
	return &Machine{
		cfg:      cfg,
		sram:     make([]byte, cfg.SRAMBytes),
		codeNext: codeBase,
	}
}

// ClockHz returns the configured CPU clock.
func (m *Machine) ClockHz() uint32 { return m.cfg.ClockHz }

// ExtendedPC reports whether return addresses take three bytes.
func (m *Machine) ExtendedPC() bool { return m.cfg.ExtendedPC }

// SRAM exposes the raw memory. Stack regions are carved out of it by the
// kernel; the machine itself does no allocation.
func (m *Machine) SRAM() []byte { return m.sram }

// SRAMTop returns the highest valid SRAM address.
func (m *Machine) SRAMTop() Addr { return Addr(len(m.sram) - 1) }

// Reg returns general-purpose register n.
func (m *Machine) Reg(n int) byte { return m.regs[n] }

// SetReg writes general-purpose register n.
func (m *Machine) SetReg(n int, v byte) { m.regs[n] = v }

// SREG returns the status register.
func (m *Machine) SREG() byte { return m.sreg }

// SetSREG writes the status register, including the interrupt-enable bit.
func (m *Machine) SetSREG(v byte) { m.sreg = v }

// RAMPZ returns the RAMPZ extension register (extended-PC parts only).
func (m *Machine) RAMPZ() byte { return m.rampz }

// SetRAMPZ writes the RAMPZ extension register.
func (m *Machine) SetRAMPZ(v byte) { m.rampz = v }

// EIND returns the EIND extension register (extended-PC parts only).
func (m *Machine) EIND() byte { return m.eind }

// SetEIND writes the EIND extension register.
func (m *Machine) SetEIND(v byte) { m.eind = v }

// SP returns the stack pointer.
func (m *Machine) SP() Addr { return m.sp }

// SetSP installs a new stack pointer.
func (m *Machine) SetSP(sp Addr) { m.sp = sp }

// Cli clears the global interrupt-enable bit.
func (m *Machine) Cli() { m.sreg &^= FlagI }

// Sei sets the global interrupt-enable bit. A pending interrupt is
// delivered at the next Step, not here, matching the one-instruction
// shadow of the real part.
func (m *Machine) Sei() { m.sreg |= FlagI }

// InterruptsEnabled reports the global interrupt-enable bit.
func (m *Machine) InterruptsEnabled() bool { return m.sreg&FlagI != 0 }

// Push stores a byte at SP and moves SP down (post-decrement store).
func (m *Machine) Push(b byte) {
	m.sram[m.sp] = b
	m.sp--
}

// Pop moves SP up and returns the byte there (pre-increment load).
func (m *Machine) Pop() byte {
	m.sp++
	return m.sram[m.sp]
}

// PushReturnAddr pushes a code address the way a call instruction would:
// low byte first, then high, then a zero pad byte on extended-PC parts.
func (m *Machine) PushReturnAddr(a Addr) {
	m.Push(byte(a))
	m.Push(byte(a >> 8))
	if m.cfg.ExtendedPC {
		m.Push(0)
	}
}

// PopReturnAddr pops a code address the way a return instruction would.
// The pad byte of extended-PC parts is discarded.
func (m *Machine) PopReturnAddr() Addr {
	if m.cfg.ExtendedPC {
		_ = m.Pop()
	}
	hi := m.Pop()
	lo := m.Pop()
	return Addr(hi)<<8 | Addr(lo)
}

// ReserveCode hands out a fresh synthetic code address.
func (m *Machine) ReserveCode() Addr {
	a := m.codeNext
	m.codeNext += 2
	if m.codeNext < codeBase {
		panic("mcu: code space exhausted")
	}
	return a
}

// UART returns the serial peripheral.
func (m *Machine) UART() *UART { return &m.uart }

// LED returns the board LED pin.
func (m *Machine) LED() *Pin { return &m.led }

// Cycles returns the number of cycles executed so far.
func (m *Machine) Cycles() uint64 { return m.cycles }
