package port

import "ember/mcu"

// flagsIntEnabled is the status-register image a fresh task starts with:
// everything clear except the global interrupt-enable bit.
const flagsIntEnabled = mcu.FlagI

// Stack sentinel bytes placed above the frame. Diagnostic only; nothing
// reads them back.
const (
	sentinel0 = 0x11
	sentinel1 = 0x22
	sentinel2 = 0x33
)

// diagByte is the fill value for register slot n: the decimal digits of n
// read as hex (r18 -> 0x18). Uninitialized-register bugs then show a
// recognizable pattern in a memory dump instead of zeros.
func diagByte(n int) byte {
	return byte(n/10<<4 | n%10)
}

// InitTaskStack lays out the initial saved-context image for a new task
// in mem, starting at top and growing toward lower addresses, and returns
// the stack-pointer value to store in the task's record. Handing that
// value to the restore half of the context transfer and performing a
// return transfers control to entry with param in r24:r25 and interrupts
// enabled.
//
// The bytes are written in the exact reverse order the restore sequence
// pops them: sentinels, the entry address low byte first (plus a zero pad
// byte on extended-PC parts, which confine task code to the low 64K), r0,
// the startup flags, zeroed RAMPZ/EIND slots on extended-PC parts, a zero
// r1, then r2 through r31 with the parameter overwriting the r24/r25
// slots, low byte first.
//
// Pure data layout: no I/O, no failure mode.
func InitTaskStack(mem []byte, top mcu.Addr, entry mcu.Addr, param uint16, extendedPC bool) mcu.Addr {
	cur := top
	put := func(b byte) {
		mem[cur] = b
		cur--
	}

	put(sentinel0)
	put(sentinel1)
	put(sentinel2)

	// Return address, popped last of all by the starting return.
	put(byte(entry))
	put(byte(entry >> 8))
	if extendedPC {
		put(0)
	}

	// The frame the save half would have produced, flags as early as
	// possible so a real save disables interrupts with minimal stack
	// use.
	put(0) // r0
	put(flagsIntEnabled)
	if extendedPC {
		put(0) // rampz
		put(0) // eind
	}
	put(0) // r1, the fixed zero register

	for r := 2; r < mcu.NumRegs; r++ {
		switch r {
		case 24:
			put(byte(param))
		case 25:
			put(byte(param >> 8))
		default:
			put(diagByte(r))
		}
	}

	return cur
}

// InitStack is InitTaskStack against this port's machine.
func (p *Port) InitStack(top, entry mcu.Addr, param uint16) mcu.Addr {
	return InitTaskStack(p.m.SRAM(), top, entry, param, p.m.ExtendedPC())
}
