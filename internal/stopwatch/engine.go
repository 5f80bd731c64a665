package stopwatch

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/clocksync"
)

// State of the stopwatch. There is no paused state: a race is either running
// or it is not.
type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Engine computes elapsed time from either the local clock or the
// synchronized server clock. When a start carries a server timestamp, every
// device measures against that shared instant; otherwise the engine degrades
// to purely local timing.
//
// Invariant: while running, elapsed is derived from a start instant; while
// stopped, it is the frozen value from the last stop. Exactly one of the two
// holds at any time.
type Engine struct {
	clock clockwork.Clock
	sync  *clocksync.Synchronizer

	state          State
	localStart     time.Time
	syncedStartMs  int64
	hasSyncedStart bool
	frozenMs       int64
}

func New(clock clockwork.Clock, sync *clocksync.Synchronizer) *Engine {
	return &Engine{clock: clock, sync: sync}
}

func (e *Engine) State() State { return e.state }

func (e *Engine) Running() bool { return e.state == StateRunning }

// Start begins timing from the local clock. A second start while running has
// no effect.
func (e *Engine) Start() bool {
	if e.state == StateRunning {
		return false
	}
	e.localStart = e.clock.Now()
	e.syncedStartMs = 0
	e.hasSyncedStart = false
	e.frozenMs = 0
	e.state = StateRunning
	log.Info().Msg("stopwatch started")
	return true
}

// RemoteStart begins timing from a server-broadcast start instant. All lanes
// that receive the same broadcast measure against the same timestamp, which
// is how a common start is achieved without the devices agreeing on offsets
// among themselves.
func (e *Engine) RemoteStart(serverTimestamp int64) bool {
	if e.state == StateRunning {
		return false
	}
	e.localStart = e.clock.Now()
	e.syncedStartMs = serverTimestamp
	e.hasSyncedStart = true
	e.frozenMs = 0
	e.state = StateRunning
	log.Info().Int64("server_start_ms", serverTimestamp).Msg("stopwatch started from server timestamp")
	return true
}

// Stop freezes the elapsed time. Only valid while running.
func (e *Engine) Stop() bool {
	if e.state != StateRunning {
		return false
	}
	e.frozenMs = e.ElapsedMillis()
	e.state = StateStopped
	log.Info().Str("elapsed", FormatStopped(e.frozenMs)).Msg("stopwatch stopped")
	return true
}

// Reset returns the engine to a pristine stopped state from any state.
func (e *Engine) Reset() {
	e.state = StateStopped
	e.localStart = time.Time{}
	e.syncedStartMs = 0
	e.hasSyncedStart = false
	e.frozenMs = 0
	log.Info().Msg("stopwatch reset")
}

// ElapsedMillis returns the current elapsed time. While running it prefers
// the synchronized path (server clock minus the shared start instant) and
// falls back to the local clock when no synced start exists.
func (e *Engine) ElapsedMillis() int64 {
	if e.state != StateRunning {
		return e.frozenMs
	}
	if e.hasSyncedStart {
		return e.sync.Now() - e.syncedStartMs
	}
	return e.clock.Since(e.localStart).Milliseconds()
}

// HasSyncedStart reports whether the current run was anchored to a server
// start timestamp.
func (e *Engine) HasSyncedStart() bool { return e.hasSyncedStart }
