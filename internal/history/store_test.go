package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/azckamp/lanetimer/internal/splits"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", clockwork.NewFakeClock())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)

	laps := []splits.Lap{
		{Index: 1, DurationMs: 30120, TotalMs: 30120, CapturedMs: 1000},
		{Index: 2, DurationMs: 31050, TotalMs: 61170, CapturedMs: 2000},
	}
	if err := store.SaveRun("100m Free", "3", laps); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].Event != "100m Free" || runs[0].Heat != "3" {
		t.Errorf("run = %+v, want saved event/heat", runs[0])
	}
	if diff := cmp.Diff(laps, runs[0].Laps); diff != "" {
		t.Errorf("laps mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	for i := 1; i <= 3; i++ {
		laps := []splits.Lap{{Index: 1, DurationMs: int64(i), TotalMs: int64(i)}}
		if err := store.SaveRun("Event", "1", laps); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	runs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want limit 2", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Errorf("run order = %d then %d, want newest first", runs[0].ID, runs[1].ID)
	}
}

func TestRecentRunsEmpty(t *testing.T) {
	store := openTestStore(t)
	runs, err := store.RecentRuns(5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %d, want 0", len(runs))
	}
}
