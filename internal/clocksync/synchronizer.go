package clocksync

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/protocol"
)

const (
	// BurstPings pings are sent at BurstInterval after every (re)connect so
	// the first offset estimate lands within a couple of seconds; after that
	// the cadence relaxes to SteadyInterval.
	BurstPings     = 5
	BurstInterval  = 500 * time.Millisecond
	SteadyInterval = 5 * time.Second
)

// Synchronizer estimates the offset between the local clock and the timing
// server's clock from ping/pong round trips, so that
// serverTime ≈ localTime + offset.
//
// The offset in use is always the one from the most recent pong. Network
// conditions drift, so recency wins over averaging; the best (lowest) RTT is
// tracked for diagnostics only.
type Synchronizer struct {
	clock clockwork.Clock

	offsetMillis int64
	synchronized bool
	bestRTT      int64 // -1 until the first sample
	lastRTT      int64
	samples      int
	pingsSent    int
	lastPingAt   time.Time
}

func New(clock clockwork.Clock) *Synchronizer {
	return &Synchronizer{clock: clock, bestRTT: -1, lastRTT: -1}
}

// LocalMillis returns the raw local clock in milliseconds.
func (s *Synchronizer) LocalMillis() int64 {
	return s.clock.Now().UnixMilli()
}

// Now returns the best available estimate of the server clock. Before the
// first pong it falls back to the local clock, so the stopwatch stays usable
// even if synchronization never completes.
func (s *Synchronizer) Now() int64 {
	if s.synchronized {
		return s.LocalMillis() + s.offsetMillis
	}
	return s.LocalMillis()
}

// NewPing builds the next outbound ping, stamped with the local clock.
func (s *Synchronizer) NewPing() protocol.Ping {
	s.pingsSent++
	s.lastPingAt = s.clock.Now()
	return protocol.NewPing(s.LocalMillis())
}

// NextPingInterval implements the variable cadence: rapid while the first
// burst of pings is still outstanding, then steady state.
func (s *Synchronizer) NextPingInterval() time.Duration {
	if s.pingsSent < BurstPings {
		return BurstInterval
	}
	return SteadyInterval
}

// HandlePong folds one pong into the estimate. clientPingTime is our echoed
// ping stamp, serverTime the server clock at reply time. The one-way delay is
// assumed to be half the round trip.
func (s *Synchronizer) HandlePong(clientPingTime, serverTime int64) {
	now := s.LocalMillis()
	rtt := now - clientPingTime
	if rtt < 0 {
		log.Warn().Int64("rtt_ms", rtt).Msg("discarding pong with negative round trip")
		return
	}

	s.offsetMillis = serverTime - now + rtt/2
	s.synchronized = true
	s.lastRTT = rtt
	if s.bestRTT < 0 || rtt < s.bestRTT {
		s.bestRTT = rtt
	}
	s.samples++

	log.Debug().
		Int64("rtt_ms", rtt).
		Int64("best_rtt_ms", s.bestRTT).
		Int64("offset_ms", s.offsetMillis).
		Int("samples", s.samples).
		Msg("clock sample recorded")
}

// Reset discards all synchronization state. Called on every reconnect: the
// server identity or clock may have changed, so a stale offset must never
// survive into a new session.
func (s *Synchronizer) Reset() {
	s.offsetMillis = 0
	s.synchronized = false
	s.bestRTT = -1
	s.lastRTT = -1
	s.samples = 0
	s.pingsSent = 0
	s.lastPingAt = time.Time{}
}

func (s *Synchronizer) Synchronized() bool { return s.synchronized }

func (s *Synchronizer) OffsetMillis() int64 { return s.offsetMillis }

// BestRTTMillis returns the lowest observed round trip, or -1 before the
// first sample.
func (s *Synchronizer) BestRTTMillis() int64 { return s.bestRTT }

// LastRTTMillis returns the most recent round trip, or -1 before the first
// sample.
func (s *Synchronizer) LastRTTMillis() int64 { return s.lastRTT }

func (s *Synchronizer) Samples() int { return s.samples }
