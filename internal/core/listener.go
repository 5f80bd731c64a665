package core

import (
	"github.com/azckamp/lanetimer/internal/splits"
	"github.com/azckamp/lanetimer/internal/stopwatch"
)

// Listener receives the engine's observable state changes. The display layer
// implements this; a typed interface replaces the raw callback pointers the
// device firmware used for the same purpose.
//
// All methods are invoked from the engine's own goroutine and must not block.
type Listener interface {
	OnStateChanged(state stopwatch.State)
	OnElapsed(elapsedMs int64, running bool)
	OnLapAdded(lap splits.Lap)
	OnConnectionChanged(connected bool)
	OnSyncChanged(synchronized bool)
	OnEventHeatChanged(event, heat string)
	OnSplitReceived(entry splits.Entry)
	OnClear()
}

// NopListener is a Listener that ignores everything. Embed it to implement
// only the notifications a sink cares about.
type NopListener struct{}

func (NopListener) OnStateChanged(stopwatch.State)    {}
func (NopListener) OnElapsed(int64, bool)             {}
func (NopListener) OnLapAdded(splits.Lap)             {}
func (NopListener) OnConnectionChanged(bool)          {}
func (NopListener) OnSyncChanged(bool)                {}
func (NopListener) OnEventHeatChanged(string, string) {}
func (NopListener) OnSplitReceived(splits.Entry)      {}
func (NopListener) OnClear()                          {}
