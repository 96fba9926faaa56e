// Package tasks holds demo task bodies for the simulator. Each body
// follows the same shape: do a slice of work, step the machine to burn
// the cycles, yield. Stepping is what moves simulated time forward, so
// a task that never steps starves the tick source.
package tasks

import (
	"fmt"

	"ember/kernel"
)

// stepQuantum is how many cycles a task burns per loop iteration. Small
// enough that tick interrupts land close to their deadline.
const stepQuantum = 512

// Blink returns a task body toggling the on-board LED every period
// ticks. A non-zero startup parameter overrides the period.
func Blink(k *kernel.Kernel, period uint64) kernel.TaskFunc {
	return func(param uint16) {
		if param != 0 {
			period = uint64(param)
		}
		m := k.Machine()
		led := m.LED()

		next := k.Ticks() + period
		for {
			for k.Ticks() < next {
				m.Step(stepQuantum)
			}
			led.Toggle()
			next += period
			k.Yield()
		}
	}
}

// Reporter returns a task body that writes an uptime line to the UART
// once per second window.
func Reporter(k *kernel.Kernel) kernel.TaskFunc {
	return func(uint16) {
		m := k.Machine()
		u := m.UART()

		u.WriteString("kernel up\r\n")
		last := uint32(0)
		for {
			if s := k.Seconds(); s != last {
				last = s
				u.WriteString(fmt.Sprintf("uptime %ds, %d ticks\r\n", s, k.Ticks()))
			}
			m.Step(stepQuantum)
			k.Yield()
		}
	}
}

// Echo returns a task body that copies UART input back to the output
// side.
func Echo(k *kernel.Kernel) kernel.TaskFunc {
	return func(uint16) {
		m := k.Machine()
		u := m.UART()

		for {
			for {
				b, ok := u.ReadByte()
				if !ok {
					break
				}
				u.WriteByte(b)
			}
			m.Step(stepQuantum)
			k.Yield()
		}
	}
}
