package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/button"
	"github.com/azckamp/lanetimer/internal/clocksync"
	"github.com/azckamp/lanetimer/internal/protocol"
	"github.com/azckamp/lanetimer/internal/role"
	"github.com/azckamp/lanetimer/internal/session"
	"github.com/azckamp/lanetimer/internal/splits"
	"github.com/azckamp/lanetimer/internal/stopwatch"
)

// DefaultDisplayRefresh is how often the listener gets a fresh elapsed time
// while nothing else is happening. The device display ran at 20 Hz; 10 Hz is
// plenty for the one-digit running format.
const DefaultDisplayRefresh = 100 * time.Millisecond

// Sender is the outbound half of the protocol session.
type Sender interface {
	Send(msg any) bool
}

// RunArchiver persists a finished run. Optional.
type RunArchiver interface {
	SaveRun(event, heat string, laps []splits.Lap) error
}

// Config is the immutable engine configuration. Reconfiguring means
// rebuilding the engine, matching the device's restart-on-reconfigure
// behavior.
type Config struct {
	Lane           int
	Role           role.Role
	DisplayRefresh time.Duration
}

// Snapshot is a point-in-time copy of the engine state, safe to read from
// any goroutine. The diagnostics endpoint serves it as JSON.
type Snapshot struct {
	Connected     bool   `json:"connected"`
	Synchronized  bool   `json:"synchronized"`
	OffsetMs      int64  `json:"offset_ms"`
	BestRTTMs     int64  `json:"best_rtt_ms"`
	LastRTTMs     int64  `json:"last_rtt_ms"`
	PingSamples   int    `json:"ping_samples"`
	State         string `json:"state"`
	Elapsed       string `json:"elapsed"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	LapCount      int    `json:"lap_count"`
	Event         string `json:"event"`
	Heat          string `json:"heat"`
	Role          string `json:"role"`
	Lane          int    `json:"lane"`
	StartLockHeld bool   `json:"start_lock_held"`
}

// Engine is the single owner of all mutable timing state. It consumes
// session events, debounced button presses, and its own ping schedule in one
// goroutine; nothing else mutates the synchronizer, stopwatch, lap log, or
// start lock.
type Engine struct {
	cfg   Config
	clock clockwork.Clock

	sync  *clocksync.Synchronizer
	watch *stopwatch.Engine
	laps  *splits.Recorder
	lock  *role.StartLock
	ctrl  role.Controller

	out      Sender
	events   <-chan session.Event
	buttons  <-chan button.Event
	listener Listener
	archive  RunArchiver

	pingTimer clockwork.Timer
	connected bool
	event     string
	heat      string

	snap atomic.Pointer[Snapshot]
}

func New(cfg Config, clock clockwork.Clock, out Sender, events <-chan session.Event, buttons <-chan button.Event, listener Listener, archive RunArchiver) *Engine {
	if cfg.DisplayRefresh <= 0 {
		cfg.DisplayRefresh = DefaultDisplayRefresh
	}
	if listener == nil {
		listener = NopListener{}
	}

	sync := clocksync.New(clock)
	e := &Engine{
		cfg:      cfg,
		clock:    clock,
		sync:     sync,
		watch:    stopwatch.New(clock, sync),
		laps:     splits.NewRecorder(),
		lock:     &role.StartLock{},
		ctrl:     role.ForRole(cfg.Role),
		out:      out,
		events:   events,
		buttons:  buttons,
		listener: listener,
		archive:  archive,
	}

	// Armed on connect; parked until then.
	e.pingTimer = clock.NewTimer(time.Hour)
	stopTimer(e.pingTimer)

	e.publishSnapshot()
	return e
}

// Run processes events until the context is cancelled or the session event
// channel closes.
func (e *Engine) Run(ctx context.Context) error {
	log.Info().
		Str("role", string(e.cfg.Role)).
		Int("lane", e.cfg.Lane).
		Msg("timing engine started")

	refresh := e.clock.NewTicker(e.cfg.DisplayRefresh)
	defer refresh.Stop()
	defer stopTimer(e.pingTimer)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("timing engine shutting down")
			return ctx.Err()
		case ev, ok := <-e.events:
			if !ok {
				return nil
			}
			e.handleSessionEvent(ev)
		case <-e.buttons:
			e.handlePress()
		case <-e.pingTimer.Chan():
			e.sendPing()
		case <-refresh.Chan():
			e.listener.OnElapsed(e.watch.ElapsedMillis(), e.watch.Running())
		}
		e.publishSnapshot()
	}
}

// Snapshot returns the most recently published state copy.
func (e *Engine) Snapshot() Snapshot {
	if s := e.snap.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

func (e *Engine) handleSessionEvent(ev session.Event) {
	switch ev.Kind {
	case session.KindConnected:
		e.connected = true
		// Fresh measurement per connection; a stale offset must never be
		// reused against a server whose identity or clock may have changed.
		e.sync.Reset()
		e.listener.OnConnectionChanged(true)
		e.listener.OnSyncChanged(false)
		e.sendPing()

	case session.KindDisconnected:
		e.connected = false
		stopTimer(e.pingTimer)
		e.listener.OnConnectionChanged(false)

	case session.KindMessage:
		e.dispatch(ev.Msg)
	}
}

// dispatch routes one decoded inbound message. The server is authoritative;
// nothing here queues or replays.
func (e *Engine) dispatch(msg any) {
	switch m := msg.(type) {
	case protocol.Ping:
		// The server may originate pings too; echo its stamp back with our
		// best idea of current time.
		e.out.Send(protocol.NewPong(m.Time, e.sync.Now()))

	case protocol.Pong:
		wasSynced := e.sync.Synchronized()
		e.sync.HandlePong(m.ClientPingTime, m.ServerTime)
		if !wasSynced && e.sync.Synchronized() {
			e.listener.OnSyncChanged(true)
		}

	case protocol.Start:
		e.handleRemoteStart(m)

	case protocol.Reset:
		e.reset()

	case protocol.Split:
		if entry, ok := e.laps.RecordRemote(m.Lane, m.Timestamp, m.Time); ok {
			e.listener.OnSplitReceived(entry)
		}

	case protocol.EventHeat:
		e.event, e.heat = m.Event, m.Heat
		log.Info().Str("event", e.event).Str("heat", e.heat).Msg("event/heat updated")
		e.listener.OnEventHeatChanged(e.event, e.heat)

	case protocol.Clear:
		e.laps.ClearRemote()
		e.event, e.heat = "", ""
		e.listener.OnClear()

	default:
		log.Debug().Type("msg", msg).Msg("unhandled message")
	}
}

func (e *Engine) handleRemoteStart(m protocol.Start) {
	if e.lock.Held() {
		log.Warn().Msg("start rejected, start lock held")
		return
	}
	e.lock.Acquire()

	if m.Event != "" || m.Heat != "" {
		e.event, e.heat = m.Event, m.Heat
		e.listener.OnEventHeatChanged(e.event, e.heat)
	}

	var started bool
	if m.Timestamp != nil {
		started = e.watch.RemoteStart(*m.Timestamp)
	} else {
		// Start arrived with no server timestamp; run on local time.
		started = e.watch.Start()
	}
	if started {
		e.laps.ResetLaps()
		e.listener.OnStateChanged(stopwatch.StateRunning)
	}
}

// reset implements the "new race" semantics: everything race-scoped goes,
// including the start lock and the remote split table. The finished run is
// archived first when there is anything to keep.
func (e *Engine) reset() {
	if e.archive != nil && e.laps.LapCount() > 0 {
		if err := e.archive.SaveRun(e.event, e.heat, e.laps.Laps()); err != nil {
			log.Error().Err(err).Msg("failed to archive run")
		}
	}

	e.watch.Reset()
	e.laps.ResetLaps()
	e.laps.ClearRemote()
	e.lock.Release()
	e.listener.OnStateChanged(stopwatch.StateStopped)
}

func (e *Engine) handlePress() {
	wasRunning := e.watch.Running()

	env := &role.Env{
		Sync:  e.sync,
		Watch: e.watch,
		Laps:  e.laps,
		Lock:  e.lock,
		Lane:  e.cfg.Lane,
		Event: e.event,
		Heat:  e.heat,
	}
	msg, lap, recorded := e.ctrl.HandlePress(env)

	if recorded {
		e.listener.OnLapAdded(lap)
	}
	if msg != nil {
		e.out.Send(msg)
	}
	if !wasRunning && e.watch.Running() {
		e.laps.ResetLaps()
		e.listener.OnStateChanged(stopwatch.StateRunning)
	}
}

// sendPing emits the next ping and rearms the timer at the burst or steady
// cadence. No response timeout exists: an unanswered ping only delays
// synchronization.
func (e *Engine) sendPing() {
	if !e.connected {
		return
	}
	e.out.Send(e.sync.NewPing())
	e.pingTimer.Reset(e.sync.NextPingInterval())
}

func (e *Engine) publishSnapshot() {
	elapsed := e.watch.ElapsedMillis()
	running := e.watch.Running()

	format := stopwatch.FormatStopped
	if running {
		format = stopwatch.FormatRunning
	}

	e.snap.Store(&Snapshot{
		Connected:     e.connected,
		Synchronized:  e.sync.Synchronized(),
		OffsetMs:      e.sync.OffsetMillis(),
		BestRTTMs:     e.sync.BestRTTMillis(),
		LastRTTMs:     e.sync.LastRTTMillis(),
		PingSamples:   e.sync.Samples(),
		State:         e.watch.State().String(),
		Elapsed:       format(elapsed),
		ElapsedMs:     elapsed,
		LapCount:      e.laps.LapCount(),
		Event:         e.event,
		Heat:          e.heat,
		Role:          string(e.cfg.Role),
		Lane:          e.cfg.Lane,
		StartLockHeld: e.lock.Held(),
	})
}

func stopTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
