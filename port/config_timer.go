//go:build !tickwdt

package port

// Timer-compare tick source, the default build configuration.
func defaultTickSource(clockHz, tickHz uint32) TickSource {
	return NewTimerTick(clockHz, tickHz)
}
