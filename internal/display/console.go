// Package display renders engine state for a human. The device hardware
// drives a TFT panel; this implementation writes the same information to the
// structured log so a headless build stays observable.
package display

import (
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/splits"
	"github.com/azckamp/lanetimer/internal/stopwatch"
)

// Console is a core.Listener that logs state transitions and, like the
// panel's dirty-string cache, only reports the running clock when its
// rendered form actually changes.
type Console struct {
	lastRendered string
}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) OnStateChanged(state stopwatch.State) {
	log.Info().Stringer("state", state).Msg("display: state")
}

func (c *Console) OnElapsed(elapsedMs int64, running bool) {
	if !running {
		return
	}
	rendered := stopwatch.FormatRunning(elapsedMs)
	if rendered == c.lastRendered {
		return
	}
	c.lastRendered = rendered
	log.Debug().Str("elapsed", rendered).Msg("display: clock")
}

func (c *Console) OnLapAdded(lap splits.Lap) {
	log.Info().
		Int("lap", lap.Index).
		Str("lap_time", stopwatch.FormatStopped(lap.DurationMs)).
		Str("total", stopwatch.FormatStopped(lap.TotalMs)).
		Msg("display: lap")
}

func (c *Console) OnConnectionChanged(connected bool) {
	log.Info().Bool("connected", connected).Msg("display: connection")
}

func (c *Console) OnSyncChanged(synchronized bool) {
	log.Info().Bool("synchronized", synchronized).Msg("display: time sync")
}

func (c *Console) OnEventHeatChanged(event, heat string) {
	log.Info().Str("event", event).Str("heat", heat).Msg("display: event/heat")
}

func (c *Console) OnSplitReceived(entry splits.Entry) {
	log.Info().Int("lane", entry.Lane).Str("time", entry.Formatted).Msg("display: split")
}

func (c *Console) OnClear() {
	c.lastRendered = ""
	log.Info().Msg("display: cleared")
}
