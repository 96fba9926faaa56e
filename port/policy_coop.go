//go:build coop

package port

// Cooperative scheduling, selected with the "coop" build tag: the tick
// only advances the logical clock and switches happen on explicit Yield.
const defaultPreemptive = false
