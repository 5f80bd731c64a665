package splits

import (
	"github.com/rs/zerolog/log"
)

const (
	// MaxLaps bounds the local lap log; presses beyond it are ignored rather
	// than crashing the device mid-race.
	MaxLaps = 90
	// MaxLanes sizes the table of other lanes' reported splits.
	MaxLanes = 10
)

// Lap is one locally recorded split. Index is 1-based and monotonically
// increasing within a run.
type Lap struct {
	Index      int
	DurationMs int64
	TotalMs    int64
	CapturedMs int64 // synchronized timestamp at capture
}

// Entry is another lane's most recently reported split. Entries are
// overwritten independently as reports arrive.
type Entry struct {
	Lane        int
	TimestampMs int64
	Formatted   string
	Valid       bool
}

// Recorder keeps the bounded lap log for the local lane and the fixed-size
// table of remote split reports. The two are independent: remote reports are
// purely informational and never touch local laps.
type Recorder struct {
	laps   []Lap
	remote [MaxLanes]Entry
}

func NewRecorder() *Recorder {
	return &Recorder{laps: make([]Lap, 0, MaxLaps)}
}

// AddLap appends a lap at the given total elapsed time. The lap duration is
// the delta against the previous lap's total, or the full elapsed time for
// the first lap. Returns false when the log is full.
func (r *Recorder) AddLap(totalElapsedMs, capturedMs int64) (Lap, bool) {
	if len(r.laps) >= MaxLaps {
		log.Warn().Int("max_laps", MaxLaps).Msg("lap log full, ignoring lap")
		return Lap{}, false
	}

	duration := totalElapsedMs
	if n := len(r.laps); n > 0 {
		duration = totalElapsedMs - r.laps[n-1].TotalMs
	}

	lap := Lap{
		Index:      len(r.laps) + 1,
		DurationMs: duration,
		TotalMs:    totalElapsedMs,
		CapturedMs: capturedMs,
	}
	r.laps = append(r.laps, lap)
	return lap, true
}

// RecordRemote stores a split reported by another lane, replacing whatever
// was there. Returns false for out-of-range lanes.
func (r *Recorder) RecordRemote(lane int, timestampMs int64, formatted string) (Entry, bool) {
	if lane < 0 || lane >= MaxLanes {
		log.Warn().Int("lane", lane).Msg("split for out-of-range lane dropped")
		return Entry{}, false
	}
	entry := Entry{Lane: lane, TimestampMs: timestampMs, Formatted: formatted, Valid: true}
	r.remote[lane] = entry
	return entry, true
}

// ClearRemote wipes the remote split table. Local laps are untouched; only a
// full reset clears those.
func (r *Recorder) ClearRemote() {
	r.remote = [MaxLanes]Entry{}
}

// ResetLaps clears the local lap log for a new run.
func (r *Recorder) ResetLaps() {
	r.laps = r.laps[:0]
}

func (r *Recorder) LapCount() int { return len(r.laps) }

// Laps returns a copy of the lap log.
func (r *Recorder) Laps() []Lap {
	out := make([]Lap, len(r.laps))
	copy(out, r.laps)
	return out
}

// Remote returns a copy of the remote split table, indexed by lane.
func (r *Recorder) Remote() [MaxLanes]Entry {
	return r.remote
}
