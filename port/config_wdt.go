//go:build tickwdt

package port

// Watchdog tick source, selected with the "tickwdt" build tag.
func defaultTickSource(clockHz, tickHz uint32) TickSource {
	return NewWatchdogTick(tickHz)
}
