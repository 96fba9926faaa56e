//go:build !coop

package port

// Preemptive scheduling, the default build configuration: a tick whose
// reschedule interval has elapsed switches tasks.
const defaultPreemptive = true
