package role

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/clocksync"
	"github.com/azckamp/lanetimer/internal/protocol"
	"github.com/azckamp/lanetimer/internal/splits"
	"github.com/azckamp/lanetimer/internal/stopwatch"
)

// Role selects the device's command behavior. A lane records and reports its
// own splits; the starter has sole authority to broadcast the race start.
type Role string

const (
	Lane    Role = "lane"
	Starter Role = "starter"
)

func Parse(s string) (Role, error) {
	switch Role(s) {
	case Lane, Starter:
		return Role(s), nil
	default:
		return "", fmt.Errorf("role: unknown role %q", s)
	}
}

// StartLock gates start commands. It is set whenever a start is issued or
// accepted and cleared only by an explicit reset, so a second start cannot
// slip through before the server's reset round-trips back.
type StartLock struct {
	held bool
}

func (l *StartLock) Held() bool { return l.held }

func (l *StartLock) Acquire() { l.held = true }

func (l *StartLock) Release() { l.held = false }

// Env is the view of the core a controller acts on. All pointers are owned
// by the single core loop; controllers only run on that loop.
type Env struct {
	Sync  *clocksync.Synchronizer
	Watch *stopwatch.Engine
	Laps  *splits.Recorder
	Lock  *StartLock

	Lane  int
	Event string
	Heat  string
}

// Controller maps a debounced button press to role-specific behavior. The
// returned message, if any, is sent to the server by the caller.
type Controller interface {
	Role() Role
	HandlePress(env *Env) (msg any, lap splits.Lap, recorded bool)
}

// LaneController records a lap on each press while the race runs. It has no
// start/stop authority at all; a lane starts only on a server broadcast.
type LaneController struct{}

func (LaneController) Role() Role { return Lane }

func (LaneController) HandlePress(env *Env) (any, splits.Lap, bool) {
	if !env.Watch.Running() {
		log.Debug().Msg("lap press ignored, stopwatch not running")
		return nil, splits.Lap{}, false
	}

	lap, ok := env.Laps.AddLap(env.Watch.ElapsedMillis(), env.Sync.Now())
	if !ok {
		return nil, splits.Lap{}, false
	}

	log.Info().
		Int("lap", lap.Index).
		Str("lap_time", stopwatch.FormatStopped(lap.DurationMs)).
		Str("total", stopwatch.FormatStopped(lap.TotalMs)).
		Msg("lap recorded")

	// The wire timestamp is the time of transmission, not the lap's captured
	// elapsed; the server applies its own RTT correction.
	msg := protocol.NewSplit(env.Lane, env.Sync.Now(), stopwatch.FormatStopped(lap.TotalMs))
	return msg, lap, true
}

// StarterController issues the start broadcast. The StartLock is the only
// guard against a double press before the server's reset comes back.
type StarterController struct{}

func (StarterController) Role() Role { return Starter }

func (StarterController) HandlePress(env *Env) (any, splits.Lap, bool) {
	if env.Lock.Held() || env.Watch.Running() {
		log.Warn().
			Bool("start_lock", env.Lock.Held()).
			Bool("running", env.Watch.Running()).
			Msg("start press rejected")
		return nil, splits.Lap{}, false
	}

	ts := env.Sync.Now()
	env.Lock.Acquire()
	// Run from the same instant we broadcast; the echoed start from the
	// server is rejected by the lock.
	env.Watch.RemoteStart(ts)

	log.Info().
		Int64("timestamp", ts).
		Str("event", env.Event).
		Str("heat", env.Heat).
		Msg("start issued")

	return protocol.NewStart(ts, env.Event, env.Heat), splits.Lap{}, false
}

// ForRole returns the controller variant for the configured role.
func ForRole(r Role) Controller {
	if r == Starter {
		return StarterController{}
	}
	return LaneController{}
}
