package stopwatch

import "fmt"

// FormatStopped renders a duration as MM:SS:CC (two-digit centiseconds).
// Used for stopped and reported times.
func FormatStopped(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	centis := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, centis)
}

// FormatRunning renders a duration as MM:SS:C (one digit, 100 ms
// resolution). The coarser running format is a legibility choice for the
// live display, not a limit of the underlying clock.
func FormatRunning(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	tenths := (ms % 1000) / 100
	return fmt.Sprintf("%02d:%02d:%d", minutes, seconds, tenths)
}
